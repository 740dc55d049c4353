package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/stsysd/shuukan/model"
)

// WeeklyPlanResponse is the response body of a weekly plan.
type WeeklyPlanResponse struct {
	*model.WeeklyPlan
	ReadOnly bool `json:"read_only"`
}

// MetricResponse is the response body of a metric update.
type MetricResponse struct {
	Objective model.WeeklyObjective `json:"objective"`
	Celebrate bool                  `json:"celebrate"`
}

// WeekParams represents parameters identifying a weekly plan.
type WeekParams struct {
	Week model.ISOWeek
}

// NewWeekParams creates week parameters from HTTP request path values.
func NewWeekParams(r *http.Request) (*WeekParams, error) {
	week, err := model.NewISOWeek(r.PathValue("year"), r.PathValue("week"))
	if err != nil {
		return nil, err
	}
	return &WeekParams{Week: week}, nil
}

// ObjectiveParams represents parameters identifying an objective slot.
type ObjectiveParams struct {
	Week model.ISOWeek
	Slot int
}

// NewObjectiveParams creates objective parameters from HTTP request path values.
func NewObjectiveParams(r *http.Request) (*ObjectiveParams, error) {
	weekParams, err := NewWeekParams(r)
	if err != nil {
		return nil, err
	}
	slot, err := model.NewSlot(r.PathValue("slot"))
	if err != nil {
		return nil, err
	}
	return &ObjectiveParams{Week: weekParams.Week, Slot: slot.Int()}, nil
}

// UpdateObjectiveParams represents parameters for editing an objective.
type UpdateObjectiveParams struct {
	ObjectiveParams
	Content *string
	Status  *model.ObjectiveStatus
}

// NewUpdateObjectiveParams creates parameters for objective editing from HTTP request.
func NewUpdateObjectiveParams(r *http.Request) (*UpdateObjectiveParams, error) {
	objParams, err := NewObjectiveParams(r)
	if err != nil {
		return nil, err
	}

	var requestBody struct {
		Content *string                `json:"content"`
		Status  *model.ObjectiveStatus `json:"status"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if requestBody.Content == nil && requestBody.Status == nil {
		return nil, fmt.Errorf("content or status is required")
	}
	if requestBody.Status != nil && !requestBody.Status.IsValid() {
		return nil, fmt.Errorf("status must be pending or completed")
	}

	return &UpdateObjectiveParams{
		ObjectiveParams: *objParams,
		Content:         requestBody.Content,
		Status:          requestBody.Status,
	}, nil
}

// UpdateMetricParams represents parameters for a metric update.
type UpdateMetricParams struct {
	ObjectiveParams
	Update model.MetricUpdate
}

// NewUpdateMetricParams creates parameters for a metric update from HTTP request.
func NewUpdateMetricParams(r *http.Request) (*UpdateMetricParams, error) {
	objParams, err := NewObjectiveParams(r)
	if err != nil {
		return nil, err
	}

	var requestBody struct {
		Field model.MetricField `json:"field"`
		Value json.RawMessage   `json:"value"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	update := model.MetricUpdate{Field: requestBody.Field}
	isNull := len(requestBody.Value) == 0 || string(requestBody.Value) == "null"

	switch requestBody.Field {
	case model.FieldTarget, model.FieldCurrent:
		if !isNull {
			var n float64
			if err := json.Unmarshal(requestBody.Value, &n); err != nil {
				return nil, fmt.Errorf("value must be a number or null for %s", requestBody.Field)
			}
			// current は0未満にしない（Stepと同じ丸め）
			if requestBody.Field == model.FieldCurrent {
				n = max(n, 0)
			}
			update.Number = &n
		}
	case model.FieldUnit:
		if !isNull {
			var text string
			if err := json.Unmarshal(requestBody.Value, &text); err != nil {
				return nil, fmt.Errorf("value must be a string or null for unit")
			}
			update.Text = &text
		}
	default:
		return nil, fmt.Errorf("field must be one of target, current, unit")
	}

	return &UpdateMetricParams{ObjectiveParams: *objParams, Update: update}, nil
}

// StepMetricParams represents parameters for an increment or decrement.
type StepMetricParams struct {
	ObjectiveParams
	Delta float64
}

// NewStepMetricParams creates parameters for a step update from HTTP request.
func NewStepMetricParams(r *http.Request) (*StepMetricParams, error) {
	objParams, err := NewObjectiveParams(r)
	if err != nil {
		return nil, err
	}

	var requestBody struct {
		Delta *float64 `json:"delta"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if requestBody.Delta == nil {
		return nil, fmt.Errorf("delta is required")
	}

	return &StepMetricParams{ObjectiveParams: *objParams, Delta: *requestBody.Delta}, nil
}

// handleGetWeeklyPlan は週次プラン取得エンドポイントのハンドラーです。
// 初回アクセス時はプランを作成します。
func (s *Server) handleGetWeeklyPlan(w http.ResponseWriter, r *http.Request) {
	params, err := NewWeekParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := s.store.GetOrCreateWeeklyPlan(r.Context(), params.Week)
	if err != nil {
		s.logger.Error("Error getting weekly plan", zap.Stringer("week", params.Week), zap.Error(err))
		s.writeJSONError(w, "Failed to get weekly plan", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, s.planResponse(plan))
}

// handleListWeeklyPlans は年ごとの週次プラン一覧のハンドラーです。
func (s *Server) handleListWeeklyPlans(w http.ResponseWriter, r *http.Request) {
	year, err := model.NewYear(r.URL.Query().Get("year"))
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plans, err := s.store.ListWeeklyPlans(r.Context(), year.Int())
	if err != nil {
		s.logger.Error("Error listing weekly plans", zap.Int("year", year.Int()), zap.Error(err))
		s.writeJSONError(w, "Failed to list weekly plans", http.StatusInternalServerError)
		return
	}

	resp := make([]WeeklyPlanResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, s.planResponse(p))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleUpdateObjective は目標の本文・状態を更新するハンドラーです。
func (s *Server) handleUpdateObjective(w http.ResponseWriter, r *http.Request) {
	params, err := NewUpdateObjectiveParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, ok := s.writablePlan(w, r, params.Week)
	if !ok {
		return
	}

	objective := plan.Objectives[params.Slot]
	if params.Content != nil {
		objective = model.SetContent(objective, *params.Content)
	}
	if params.Status != nil {
		objective, err = model.SetStatus(objective, *params.Status)
		if err != nil {
			s.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if !s.saveObjective(w, r, plan, params.Slot, objective) {
		return
	}
	s.writeJSON(w, http.StatusOK, objective)
}

// handleUpdateMetric は目標の数値トラッキングを更新するハンドラーです。
func (s *Server) handleUpdateMetric(w http.ResponseWriter, r *http.Request) {
	params, err := NewUpdateMetricParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, ok := s.writablePlan(w, r, params.Week)
	if !ok {
		return
	}

	objective, celebrate, err := model.UpdateMetric(plan.Objectives[params.Slot], params.Update)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.saveObjective(w, r, plan, params.Slot, objective) {
		return
	}
	s.writeJSON(w, http.StatusOK, MetricResponse{Objective: objective, Celebrate: celebrate})
}

// handleStepMetric は current の増減（0未満にはしない）を行うハンドラーです。
func (s *Server) handleStepMetric(w http.ResponseWriter, r *http.Request) {
	params, err := NewStepMetricParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, ok := s.writablePlan(w, r, params.Week)
	if !ok {
		return
	}

	objective, celebrate := model.Step(plan.Objectives[params.Slot], params.Delta)

	if !s.saveObjective(w, r, plan, params.Slot, objective) {
		return
	}
	s.writeJSON(w, http.StatusOK, MetricResponse{Objective: objective, Celebrate: celebrate})
}

// handleUpdateRetrospective は週の振り返りを更新するハンドラーです。
func (s *Server) handleUpdateRetrospective(w http.ResponseWriter, r *http.Request) {
	params, err := NewWeekParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var retro model.Retrospective
	if err := decodeJSON(r, &retro); err != nil {
		s.writeJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	plan, ok := s.writablePlan(w, r, params.Week)
	if !ok {
		return
	}

	if err := s.store.SaveRetrospective(r.Context(), plan.ID, retro); err != nil {
		s.logger.Error("Error saving retrospective", zap.Stringer("week", params.Week), zap.Error(err))
		s.writeJSONError(w, "Failed to save retrospective", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, retro)
}

// writablePlan は過去の週であれば409を返し、そうでなければプランを取得（なければ作成）します。
func (s *Server) writablePlan(w http.ResponseWriter, r *http.Request, week model.ISOWeek) (*model.WeeklyPlan, bool) {
	// 過去の週にはプランを作成しない
	if week.IsPast(s.now()) {
		s.writeJSONError(w, model.ErrWeekReadOnly.Error(), http.StatusConflict)
		return nil, false
	}

	plan, err := s.store.GetOrCreateWeeklyPlan(r.Context(), week)
	if err != nil {
		s.logger.Error("Error getting weekly plan", zap.Stringer("week", week), zap.Error(err))
		s.writeJSONError(w, "Failed to get weekly plan", http.StatusInternalServerError)
		return nil, false
	}
	return plan, true
}

// saveObjective は目標を保存します。失敗時はログを出してエラーレスポンスを返します。
func (s *Server) saveObjective(w http.ResponseWriter, r *http.Request, plan *model.WeeklyPlan, slot int, objective model.WeeklyObjective) bool {
	err := s.store.SaveObjective(r.Context(), plan.ID, slot, objective)
	if err == nil {
		return true
	}

	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrWeeklyPlanNotFound):
		s.writeJSONError(w, "Weekly plan not found", http.StatusNotFound)
	default:
		s.logger.Error("Error saving objective",
			zap.Stringer("week", plan.Week),
			zap.Int("slot", slot),
			zap.Error(err))
		s.writeJSONError(w, "Failed to save objective", http.StatusInternalServerError)
	}
	return false
}

func (s *Server) planResponse(plan *model.WeeklyPlan) WeeklyPlanResponse {
	return WeeklyPlanResponse{WeeklyPlan: plan, ReadOnly: plan.IsPast(s.now())}
}
