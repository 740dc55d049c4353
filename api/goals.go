package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/stsysd/shuukan/model"
)

// CreateGoalParams represents parameters for committing a generated plan.
type CreateGoalParams struct {
	Title       string
	Deadline    string
	HoursPerDay float64
	Language    model.Language
	Phases      []model.Phase
}

// NewCreateGoalParams creates parameters for goal creation from HTTP request.
func NewCreateGoalParams(r *http.Request) (*CreateGoalParams, error) {
	var requestBody struct {
		Title       string        `json:"title"`
		Deadline    string        `json:"deadline"`
		HoursPerDay float64       `json:"hours_per_day"`
		Language    string        `json:"language"`
		Phases      []model.Phase `json:"phases"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	return &CreateGoalParams{
		Title:       requestBody.Title,
		Deadline:    requestBody.Deadline,
		HoursPerDay: requestBody.HoursPerDay,
		Language:    model.NewLanguage(requestBody.Language),
		Phases:      requestBody.Phases,
	}, nil
}

// ListGoalsParams represents parameters for listing goals.
type ListGoalsParams struct {
	Pagination *model.Pagination
}

// NewListGoalsParams creates parameters for goal listing from HTTP request.
func NewListGoalsParams(r *http.Request) (*ListGoalsParams, error) {
	query := r.URL.Query()
	pagination, err := model.NewPagination(query.Get("limit"), query.Get("offset"))
	if err != nil {
		return nil, err
	}
	return &ListGoalsParams{Pagination: pagination}, nil
}

// GetGoalParams represents parameters for getting a goal.
type GetGoalParams struct {
	GoalID *model.GoalID
}

// NewGetGoalParams creates parameters for getting a goal from HTTP request.
func NewGetGoalParams(r *http.Request) (*GetGoalParams, error) {
	goalID, err := model.NewGoalID(r.PathValue("goal_id"))
	if err != nil {
		return nil, err
	}
	return &GetGoalParams{GoalID: goalID}, nil
}

// handleCreateGoal は生成済みプランを目標として確定するハンドラーです。
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	params, err := NewCreateGoalParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := model.NewGoal(params.Title, params.Deadline, params.HoursPerDay, params.Language, params.Phases)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.CreateGoal(r.Context(), goal); err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			s.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("Error creating goal", zap.Error(err))
		s.writeJSONError(w, "Failed to create goal", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, goal)
}

// handleListGoals は目標一覧のハンドラーです。
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	params, err := NewListGoalsParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	goals, err := s.store.ListGoals(r.Context(), params.Pagination)
	if err != nil {
		s.logger.Error("Error listing goals", zap.Error(err))
		s.writeJSONError(w, "Failed to list goals", http.StatusInternalServerError)
		return
	}
	if goals == nil {
		goals = []*model.Goal{}
	}

	s.writeJSON(w, http.StatusOK, goals)
}

// handleGetGoal は目標取得のハンドラーです。
func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	params, err := NewGetGoalParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	goal, err := s.store.GetGoal(r.Context(), params.GoalID.UUID())
	if err != nil {
		if errors.Is(err, model.ErrGoalNotFound) {
			s.writeJSONError(w, "Goal not found", http.StatusNotFound)
			return
		}
		s.logger.Error("Error getting goal", zap.Stringer("goal_id", params.GoalID.UUID()), zap.Error(err))
		s.writeJSONError(w, "Failed to get goal", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, goal)
}
