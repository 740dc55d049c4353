package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/stsysd/shuukan/ai"
	"github.com/stsysd/shuukan/model"
)

// AI呼び出しの結果ラベル
const (
	outcomeOK            = "ok"
	outcomeUpstreamError = "upstream_error"
	outcomeParseError    = "parse_error"
)

// AIErrorResponse はAIエンドポイントのエラーレスポンスです。
// Raw はモデル出力の解析に失敗した場合のみ設定されます。
type AIErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// GenerateGoalResponse はプラン生成のレスポンスです。
type GenerateGoalResponse struct {
	Phases []model.Phase `json:"phases"`
}

// PlannerChatResponse はインタビューの応答です。
type PlannerChatResponse struct {
	Message  string `json:"message"`
	Complete bool   `json:"complete"`
}

// GenerateGoalParams represents parameters for plan generation.
type GenerateGoalParams struct {
	Request ai.GoalRequest
}

// NewGenerateGoalParams creates parameters for plan generation from HTTP request.
func NewGenerateGoalParams(r *http.Request) (*GenerateGoalParams, error) {
	var requestBody struct {
		Goal             string              `json:"goal"`
		Deadline         string              `json:"deadline"`
		HoursPerDay      float64             `json:"hoursPerDay"`
		InterviewContext ai.InterviewContext `json:"interviewContext"`
		DeepDiveData     *ai.DeepDiveData    `json:"deepDiveData"`
		Language         string              `json:"language"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if requestBody.Goal == "" {
		return nil, fmt.Errorf("goal is required")
	}

	return &GenerateGoalParams{
		Request: ai.GoalRequest{
			Goal:             requestBody.Goal,
			Deadline:         requestBody.Deadline,
			HoursPerDay:      requestBody.HoursPerDay,
			InterviewContext: requestBody.InterviewContext,
			DeepDive:         requestBody.DeepDiveData,
			Language:         model.NewLanguage(requestBody.Language),
		},
	}, nil
}

// PlannerChatParams represents parameters for one interview turn.
type PlannerChatParams struct {
	Goal          string
	History       []ai.Message
	QuestionCount int
}

// NewPlannerChatParams creates parameters for an interview turn from HTTP request.
func NewPlannerChatParams(r *http.Request) (*PlannerChatParams, error) {
	var requestBody struct {
		Goal          string       `json:"goal"`
		History       []ai.Message `json:"history"`
		QuestionCount int          `json:"questionCount"`
	}
	if err := decodeJSON(r, &requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if requestBody.Goal == "" {
		return nil, fmt.Errorf("goal is required")
	}
	if requestBody.QuestionCount < 0 {
		return nil, fmt.Errorf("questionCount must not be negative")
	}
	for _, m := range requestBody.History {
		if m.Role != ai.RoleUser && m.Role != ai.RoleAssistant {
			return nil, fmt.Errorf("invalid role in history: %q", m.Role)
		}
	}

	return &PlannerChatParams{
		Goal:          requestBody.Goal,
		History:       requestBody.History,
		QuestionCount: requestBody.QuestionCount,
	}, nil
}

// handleGenerateGoal はAIによるプラン生成エンドポイントのハンドラーです。
func (s *Server) handleGenerateGoal(w http.ResponseWriter, r *http.Request) {
	params, err := NewGenerateGoalParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.generator == nil {
		s.writeAIError(w, AIErrorResponse{Error: "AI generator is not configured"})
		return
	}

	prompt, err := ai.BuildGoalPrompt(params.Request)
	if err != nil {
		s.writeAIError(w, AIErrorResponse{Error: "Failed to build prompt", Details: err.Error()})
		return
	}

	raw, err := s.generator.Generate(r.Context(), prompt)
	if err != nil {
		s.metrics.ObserveAICall("generate-goal", outcomeUpstreamError)
		s.logger.Error("Error generating goal plan", zap.Error(err))
		s.writeAIError(w, AIErrorResponse{Error: "Failed to generate goal plan", Details: err.Error()})
		return
	}

	plan, err := ai.ExtractPlanJSON(raw)
	if err != nil {
		s.metrics.ObserveAICall("generate-goal", outcomeParseError)
		resp := AIErrorResponse{Error: "Failed to parse AI response", Details: err.Error()}
		var extractionErr *ai.ExtractionError
		if errors.As(err, &extractionErr) {
			resp.Details = extractionErr.Err.Error()
			resp.Raw = extractionErr.Raw
		}
		s.logger.Warn("Unparsable AI response", zap.Error(err), zap.Int("raw_len", len(raw)))
		s.writeAIError(w, resp)
		return
	}

	s.metrics.ObserveAICall("generate-goal", outcomeOK)
	s.writeJSON(w, http.StatusOK, GenerateGoalResponse{Phases: plan.Phases})
}

// handlePlannerChat はプラン生成前のインタビューを1往復進めるハンドラーです。
func (s *Server) handlePlannerChat(w http.ResponseWriter, r *http.Request) {
	params, err := NewPlannerChatParams(r)
	if err != nil {
		s.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.generator == nil {
		s.writeAIError(w, AIErrorResponse{Error: "AI generator is not configured"})
		return
	}

	system := ai.BuildInterviewPrompt(params.Goal, params.QuestionCount)
	history := params.History
	if len(history) == 0 {
		// モデルに最初の質問をさせるため、目標をユーザー発話として渡す
		history = []ai.Message{{Role: ai.RoleUser, Content: params.Goal}}
	}

	message, err := s.generator.Chat(r.Context(), system, history)
	if err != nil {
		s.metrics.ObserveAICall("planner-chat", outcomeUpstreamError)
		s.logger.Error("Error in planner chat",
			zap.Int("question_count", params.QuestionCount),
			zap.Error(err))
		s.writeAIError(w, AIErrorResponse{Error: "Failed to get planner response", Details: err.Error()})
		return
	}

	s.metrics.ObserveAICall("planner-chat", outcomeOK)
	s.writeJSON(w, http.StatusOK, PlannerChatResponse{
		Message:  message,
		Complete: ai.IsInterviewComplete(params.QuestionCount, message),
	})
}

// handleGenerateMindmap はマインドマップ生成のスタブです。
func (s *Server) handleGenerateMindmap(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Topic string `json:"topic"`
	}
	// topic は省略可能なので空のボディも受け付ける
	if err := decodeJSON(r, &requestBody); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSONError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	node, err := ai.MockMindmap(r.Context(), requestBody.Topic, s.config.MindmapDelay)
	if err != nil {
		s.logger.Info("Mindmap request cancelled", zap.Error(err))
		s.writeAIError(w, AIErrorResponse{Error: "Failed to generate mindmap", Details: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}

// writeAIError はAIエンドポイントのエラー（500）を返却します。
func (s *Server) writeAIError(w http.ResponseWriter, resp AIErrorResponse) {
	s.writeJSON(w, http.StatusInternalServerError, resp)
}
