package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stsysd/shuukan/heatmap"
	"github.com/stsysd/shuukan/model"
)

// GetGraphParams represents parameters for getting a graph.
type GetGraphParams struct {
	Year  int
	Title string
}

// NewGetGraphParams creates parameters for graph generation from HTTP request.
func NewGetGraphParams(r *http.Request) (*GetGraphParams, error) {
	year, err := model.NewYear(r.PathValue("year"))
	if err != nil {
		return nil, fmt.Errorf("invalid year: %w", err)
	}
	return &GetGraphParams{
		Year:  year.Int(),
		Title: r.URL.Query().Get("title"),
	}, nil
}

// handleGetGraph は指定年の週次目標の達成状況をヒートマップとして返却するハンドラーです。
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	params, err := NewGetGraphParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plans, err := s.store.ListWeeklyPlans(r.Context(), params.Year)
	if err != nil {
		s.logger.Error("Error listing weekly plans", zap.Int("year", params.Year), zap.Error(err))
		http.Error(w, "Failed to retrieve weekly plans", http.StatusInternalServerError)
		return
	}

	// プランが存在する週のみ列を作る（存在しない週は空欄）
	columns := make([]heatmap.Column, 0, len(plans))
	for _, plan := range plans {
		columns = append(columns, planColumn(plan))
	}

	opts := heatmap.DefaultOptions()
	opts.Title = params.Title

	firstMonday := model.ISOWeek{Year: params.Year, Week: 1}.Start(time.Local)
	svg := heatmap.GenerateObjectiveHeatmapSVG(firstMonday, model.WeeksInYear(params.Year), columns, opts)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

// planColumn は週次プランをヒートマップの1列に変換します。
func planColumn(plan *model.WeeklyPlan) heatmap.Column {
	cells := make([]heatmap.Cell, 0, len(plan.Objectives))
	for _, o := range plan.Objectives {
		cell := heatmap.Cell{
			Completed: o.Status == model.StatusCompleted,
			Label:     o.Content,
		}
		if o.Target != nil && o.Current != nil && *o.Target > 0 {
			cell.Progress = min(*o.Current / *o.Target, 1)
		}
		cells = append(cells, cell)
	}
	return heatmap.Column{Week: plan.Week.Week, Cells: cells}
}
