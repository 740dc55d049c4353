package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stsysd/shuukan/ai"
	"github.com/stsysd/shuukan/config"
	"github.com/stsysd/shuukan/model"
)

// テスト用の定数
const testAPIKey = "test-api-key"

// テスト用の設定を生成するヘルパー関数
func newTestConfig() *config.Config {
	return &config.Config{
		DataDir:      "./testdata",
		Port:         "8080",
		APIKey:       testAPIKey,
		MindmapDelay: 0,
		LogLevel:     "info",
	}
}

// MockStore はテスト用のインメモリStore実装です。
type MockStore struct {
	mu    sync.Mutex
	plans map[model.ISOWeek]*model.WeeklyPlan
	goals []*model.Goal
	err   error
}

func NewMockStore() *MockStore {
	return &MockStore{plans: make(map[model.ISOWeek]*model.WeeklyPlan)}
}

func (m *MockStore) GetOrCreateWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.plans[week]; ok {
		cp := *p
		return &cp, nil
	}
	p, err := model.NewWeeklyPlan(week)
	if err != nil {
		return nil, err
	}
	m.plans[week] = p
	cp := *p
	return &cp, nil
}

func (m *MockStore) GetWeeklyPlan(ctx context.Context, week model.ISOWeek) (*model.WeeklyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[week]
	if !ok {
		return nil, model.ErrWeeklyPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockStore) ListWeeklyPlans(ctx context.Context, year int) ([]*model.WeeklyPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var plans []*model.WeeklyPlan
	for w, p := range m.plans {
		if w.Year == year {
			cp := *p
			plans = append(plans, &cp)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Week.Week < plans[j].Week.Week })
	return plans, nil
}

func (m *MockStore) findPlan(id uuid.UUID) *model.WeeklyPlan {
	for _, p := range m.plans {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *MockStore) SaveObjective(ctx context.Context, planID uuid.UUID, slot int, o model.WeeklyObjective) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := model.ValidateSlot(slot); err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}
	p := m.findPlan(planID)
	if p == nil {
		return model.ErrWeeklyPlanNotFound
	}
	p.Objectives[slot] = o
	return nil
}

func (m *MockStore) SaveRetrospective(ctx context.Context, planID uuid.UUID, retro model.Retrospective) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findPlan(planID)
	if p == nil {
		return model.ErrWeeklyPlanNotFound
	}
	p.Retrospective = retro
	return nil
}

func (m *MockStore) CreateGoal(ctx context.Context, goal *model.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := goal.Validate(); err != nil {
		return err
	}
	m.goals = append(m.goals, goal)
	return nil
}

func (m *MockStore) GetGoal(ctx context.Context, id uuid.UUID) (*model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, model.ErrGoalNotFound
}

func (m *MockStore) ListGoals(ctx context.Context, pagination *model.Pagination) ([]*model.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := min(pagination.Offset(), len(m.goals))
	end := min(start+pagination.Limit(), len(m.goals))
	return m.goals[start:end], nil
}

func (m *MockStore) Close() error { return nil }

// fakeGenerator はテスト用のTextGenerator実装です。
type fakeGenerator struct {
	response string
	err      error

	prompt  string
	system  string
	history []ai.Message
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.response, g.err
}

func (g *fakeGenerator) Chat(ctx context.Context, system string, history []ai.Message) (string, error) {
	g.system = system
	g.history = history
	return g.response, g.err
}

// テスト用サーバーを生成します。現在時刻は 2025-W10 の水曜日に固定します。
func newTestServer(t *testing.T, st *MockStore, gen ai.TextGenerator) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := NewServer(Deps{Store: st, Generator: gen, Registry: reg}, newTestConfig())
	s.now = func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.Local) }
	return s, reg
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"正しいAPIキー", testAPIKey, http.StatusOK},
		{"誤ったAPIキー", "wrong", http.StatusUnauthorized},
		{"APIキーなし", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v0/weeks/2025/10", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthMiddleware_NotConfigured(t *testing.T) {
	cfg := newTestConfig()
	cfg.APIKey = ""
	s := NewServer(Deps{Store: NewMockStore()}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/weeks/2025/10", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestGetWeeklyPlan(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v0/weeks/2025/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID         uuid.UUID               `json:"id"`
		Week       model.ISOWeek           `json:"week"`
		Objectives []model.WeeklyObjective `json:"objectives"`
		ReadOnly   bool                    `json:"read_only"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ISOWeek{Year: 2025, Week: 10}, resp.Week)
	assert.Len(t, resp.Objectives, model.ObjectiveSlots)
	assert.False(t, resp.ReadOnly)

	// 2回目のアクセスで同じプランが返ること
	w = doRequest(t, s, http.MethodGet, "/api/v0/weeks/2025/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var second struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, resp.ID, second.ID)

	// 過去の週は read_only
	w = doRequest(t, s, http.MethodGet, "/api/v0/weeks/2025/9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"read_only":true`)
}

func TestGetWeeklyPlan_InvalidWeek(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	for _, path := range []string{
		"/api/v0/weeks/2025/0",
		"/api/v0/weeks/2025/53",
		"/api/v0/weeks/abc/1",
	} {
		t.Run(path, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetWeeklyPlan_StoreError(t *testing.T) {
	st := NewMockStore()
	st.err = errors.New("disk full")
	s, _ := newTestServer(t, st, nil)

	w := doRequest(t, s, http.MethodGet, "/api/v0/weeks/2025/10", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUpdateObjective(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	w := doRequest(t, s, http.MethodPut, "/api/v0/weeks/2025/10/objectives/0",
		map[string]any{"content": "Write the report"})
	require.Equal(t, http.StatusOK, w.Code)

	plan, err := st.GetWeeklyPlan(context.Background(), model.ISOWeek{Year: 2025, Week: 10})
	require.NoError(t, err)
	assert.Equal(t, "Write the report", plan.Objectives[0].Content)
	assert.Equal(t, model.StatusPending, plan.Objectives[0].Status)

	w = doRequest(t, s, http.MethodPut, "/api/v0/weeks/2025/10/objectives/0",
		map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	plan, err = st.GetWeeklyPlan(context.Background(), model.ISOWeek{Year: 2025, Week: 10})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, plan.Objectives[0].Status)
	assert.Equal(t, "Write the report", plan.Objectives[0].Content)
}

func TestUpdateObjective_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"スロット範囲外", "/api/v0/weeks/2025/10/objectives/3", map[string]any{"content": "x"}},
		{"空のボディ", "/api/v0/weeks/2025/10/objectives/0", map[string]any{}},
		{"不正なステータス", "/api/v0/weeks/2025/10/objectives/0", map[string]any{"status": "done"}},
		{"不正なJSON", "/api/v0/weeks/2025/10/objectives/0", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateMetric_Celebrate(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)
	path := "/api/v0/weeks/2025/10/objectives/1/metric"

	w := doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "target", "value": 5})
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "unit", "value": "km"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "current", "value": 3})
	require.Equal(t, http.StatusOK, w.Code)
	var resp MetricResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Celebrate)
	assert.Equal(t, model.StatusPending, resp.Objective.Status)

	// 目標到達で completed になり、一度だけ celebrate
	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "current", "value": 5})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Celebrate)
	assert.Equal(t, model.StatusCompleted, resp.Objective.Status)
	require.NotNil(t, resp.Objective.Unit)
	assert.Equal(t, "km", *resp.Objective.Unit)

	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "current", "value": 6})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Celebrate)
	assert.Equal(t, model.StatusCompleted, resp.Objective.Status)

	// null でクリアできること
	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "unit", "value": nil})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Objective.Unit)
}

func TestUpdateMetric_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)
	path := "/api/v0/weeks/2025/10/objectives/0/metric"

	tests := []struct {
		name string
		body any
	}{
		{"未知のフィールド", map[string]any{"field": "content", "value": "x"}},
		{"数値フィールドに文字列", map[string]any{"field": "target", "value": "five"}},
		{"unitに数値", map[string]any{"field": "unit", "value": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPatch, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateMetric_NegativeCurrentClamped(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)
	path := "/api/v0/weeks/2025/10/objectives/0/metric"

	w := doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "target", "value": 0})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodPatch, path, map[string]any{"field": "current", "value": -5})
	require.Equal(t, http.StatusOK, w.Code)
	var resp MetricResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Objective.Current)
	assert.Equal(t, 0.0, *resp.Objective.Current)

	plan, err := st.GetWeeklyPlan(context.Background(), model.ISOWeek{Year: 2025, Week: 10})
	require.NoError(t, err)
	require.NotNil(t, plan.Objectives[0].Current)
	assert.Equal(t, 0.0, *plan.Objectives[0].Current)
}

func TestStepMetric(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)
	path := "/api/v0/weeks/2025/10/objectives/2/step"

	w := doRequest(t, s, http.MethodPatch, "/api/v0/weeks/2025/10/objectives/2/metric",
		map[string]any{"field": "target", "value": 2})
	require.Equal(t, http.StatusOK, w.Code)

	var resp MetricResponse
	w = doRequest(t, s, http.MethodPost, path, map[string]any{"delta": -1})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Objective.Current)
	assert.Equal(t, 0.0, *resp.Objective.Current)

	w = doRequest(t, s, http.MethodPost, path, map[string]any{"delta": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, s, http.MethodPost, path, map[string]any{"delta": 1})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, *resp.Objective.Current)
	assert.True(t, resp.Celebrate)
	assert.Equal(t, model.StatusCompleted, resp.Objective.Status)

	w = doRequest(t, s, http.MethodPost, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationOnPastWeek(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPut, "/api/v0/weeks/2025/9/objectives/0", map[string]any{"content": "x"}},
		{http.MethodPatch, "/api/v0/weeks/2025/9/objectives/0/metric", map[string]any{"field": "target", "value": 1}},
		{http.MethodPost, "/api/v0/weeks/2025/9/objectives/0/step", map[string]any{"delta": 1}},
		{http.MethodPut, "/api/v0/weeks/2024/52/retrospective", map[string]any{"wins": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doRequest(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Contains(t, w.Body.String(), model.ErrWeekReadOnly.Error())
		})
	}

	// 拒否された過去の週にはプランが作成されないこと
	for _, week := range []model.ISOWeek{{Year: 2025, Week: 9}, {Year: 2024, Week: 52}} {
		_, err := st.GetWeeklyPlan(context.Background(), week)
		assert.ErrorIs(t, err, model.ErrWeeklyPlanNotFound, week.String())
	}
}

func TestUpdateRetrospective(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	retro := model.Retrospective{Wins: "shipped", Challenges: "meetings", Lessons: "focus"}
	w := doRequest(t, s, http.MethodPut, "/api/v0/weeks/2025/11/retrospective", retro)
	require.Equal(t, http.StatusOK, w.Code)

	plan, err := st.GetWeeklyPlan(context.Background(), model.ISOWeek{Year: 2025, Week: 11})
	require.NoError(t, err)
	assert.Equal(t, retro, plan.Retrospective)
}

func TestListWeeklyPlans(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	for _, path := range []string{"/api/v0/weeks/2025/12", "/api/v0/weeks/2025/3", "/api/v0/weeks/2024/30"} {
		require.Equal(t, http.StatusOK, doRequest(t, s, http.MethodGet, path, nil).Code)
	}

	w := doRequest(t, s, http.MethodGet, "/api/v0/weeks?year=2025", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plans []struct {
		Week     model.ISOWeek `json:"week"`
		ReadOnly bool          `json:"read_only"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plans))
	require.Len(t, plans, 2)
	assert.Equal(t, 3, plans[0].Week.Week)
	assert.True(t, plans[0].ReadOnly)
	assert.Equal(t, 12, plans[1].Week.Week)
	assert.False(t, plans[1].ReadOnly)

	w = doRequest(t, s, http.MethodGet, "/api/v0/weeks?year=1999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doRequest(t, s, http.MethodGet, "/api/v0/weeks?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoals(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	body := map[string]any{
		"title":         "Run a half marathon",
		"deadline":      "2025-10-01",
		"hours_per_day": 1,
		"language":      "EN",
		"phases": []model.Phase{
			{Title: "Base", Duration: "4 weeks", Tasks: []string{"easy runs"}},
		},
	}
	w := doRequest(t, s, http.MethodPost, "/api/v0/goals", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "en", created.Language)
	assert.Len(t, created.Phases, 1)

	w = doRequest(t, s, http.MethodGet, "/api/v0/goals/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v0/goals/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v0/goals/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, s, http.MethodGet, "/api/v0/goals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var goals []model.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &goals))
	assert.Len(t, goals, 1)

	// フェーズなしは 400
	delete(body, "phases")
	w = doRequest(t, s, http.MethodPost, "/api/v0/goals", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateGoal(t *testing.T) {
	gen := &fakeGenerator{
		response: "```json\n{\"phases\":[{\"title\":\"Basics\",\"duration\":\"2 weeks\",\"tasks\":[\"a\",\"b\"]}]}\n```",
	}
	s, reg := newTestServer(t, NewMockStore(), gen)

	w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{
		"goal":             "Learn Spanish",
		"deadline":         "2025-12-31",
		"hoursPerDay":      1.5,
		"interviewContext": "I know some words",
		"deepDiveData":     map[string]string{"domain": "language"},
		"language":         "ja",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateGoalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Phases, 1)
	assert.Equal(t, "Basics", resp.Phases[0].Title)

	assert.Contains(t, gen.prompt, "Learn Spanish")
	assert.Contains(t, gen.prompt, "日本語で書いてください")
	assert.Contains(t, gen.prompt, "I know some words")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.aiCalls.WithLabelValues("generate-goal", outcomeOK)))
	_, err := reg.Gather()
	assert.NoError(t, err)
}

func TestGenerateGoal_Errors(t *testing.T) {
	t.Run("解析失敗", func(t *testing.T) {
		gen := &fakeGenerator{response: "not json at all"}
		s, _ := newTestServer(t, NewMockStore(), gen)

		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{"goal": "x", "hoursPerDay": 1})
		require.Equal(t, http.StatusInternalServerError, w.Code)
		var resp AIErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not json at all", resp.Raw)
		assert.NotEmpty(t, resp.Details)
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.aiCalls.WithLabelValues("generate-goal", outcomeParseError)))
	})

	t.Run("型の違うフィールドは解析失敗にしない", func(t *testing.T) {
		gen := &fakeGenerator{response: `{"phases":[{"title":"A","duration":2,"tasks":"x"}]}`}
		s, _ := newTestServer(t, NewMockStore(), gen)

		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{"goal": "x"})
		require.Equal(t, http.StatusOK, w.Code)
		var resp GenerateGoalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []model.Phase{{Title: "A", Duration: "2", Tasks: []string{"x"}}}, resp.Phases)
		assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.aiCalls.WithLabelValues("generate-goal", outcomeOK)))
		assert.Equal(t, 0.0, testutil.ToFloat64(s.metrics.aiCalls.WithLabelValues("generate-goal", outcomeParseError)))
	})

	t.Run("上流エラー", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("quota exceeded")}
		s, _ := newTestServer(t, NewMockStore(), gen)

		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{"goal": "x"})
		require.Equal(t, http.StatusInternalServerError, w.Code)
		var resp AIErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "quota exceeded", resp.Details)
		assert.Empty(t, resp.Raw)
	})

	t.Run("プロンプト構築エラー", func(t *testing.T) {
		gen := &fakeGenerator{}
		s, _ := newTestServer(t, NewMockStore(), gen)

		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{"goal": "x", "deadline": "tomorrow"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, gen.prompt)
	})

	t.Run("目標なし", func(t *testing.T) {
		s, _ := newTestServer(t, NewMockStore(), &fakeGenerator{})
		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("未設定", func(t *testing.T) {
		s, _ := newTestServer(t, NewMockStore(), nil)
		w := doRequest(t, s, http.MethodPost, "/api/ai/generate-goal", map[string]any{"goal": "x"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "not configured")
	})
}

func TestPlannerChat(t *testing.T) {
	gen := &fakeGenerator{response: "What is your current level?"}
	s, _ := newTestServer(t, NewMockStore(), gen)

	w := doRequest(t, s, http.MethodPost, "/api/ai/planner-chat", map[string]any{
		"goal":          "Learn Go",
		"history":       []ai.Message{},
		"questionCount": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PlannerChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "What is your current level?", resp.Message)
	assert.False(t, resp.Complete)
	assert.Contains(t, gen.system, "Learn Go")
	require.Len(t, gen.history, 1)
	assert.Equal(t, ai.RoleUser, gen.history[0].Role)

	gen.response = "Thanks!\n" + ai.InterviewCompleteMarker
	w = doRequest(t, s, http.MethodPost, "/api/ai/planner-chat", map[string]any{
		"goal": "Learn Go",
		"history": []ai.Message{
			{Role: ai.RoleAssistant, Content: "Q10"},
			{Role: ai.RoleUser, Content: "A10"},
		},
		"questionCount": ai.MaxInterviewQuestions,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Complete)
}

func TestPlannerChat_Errors(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), &fakeGenerator{err: errors.New("boom")})

	w := doRequest(t, s, http.MethodPost, "/api/ai/planner-chat", map[string]any{"goal": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = doRequest(t, s, http.MethodPost, "/api/ai/planner-chat", map[string]any{
		"goal":    "x",
		"history": []ai.Message{{Role: "system", Content: "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateMindmap(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	w := doRequest(t, s, http.MethodPost, "/api/ai/generate-mindmap", map[string]any{"topic": "Fitness"})
	require.Equal(t, http.StatusOK, w.Code)
	var node ai.MindmapNode
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, "Fitness", node.Label)
	assert.Len(t, node.Children, 3)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-mindmap", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, ai.DefaultMindmapTopic, node.Label)

	// Content-Length のない空のボディ（chunked）も受け付ける
	req = httptest.NewRequest(http.MethodPost, "/api/ai/generate-mindmap", nil)
	req.ContentLength = -1
	req.Body = io.NopCloser(strings.NewReader(""))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, ai.DefaultMindmapTopic, node.Label)

	w = doRequest(t, s, http.MethodPost, "/api/ai/generate-mindmap", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetGraph(t *testing.T) {
	st := NewMockStore()
	s, _ := newTestServer(t, st, nil)

	require.Equal(t, http.StatusOK, doRequest(t, s, http.MethodPut, "/api/v0/weeks/2025/10/objectives/0",
		map[string]any{"content": "Ship <v2>", "status": "completed"}).Code)

	for _, path := range []string{"/w/2025/graph.svg", "/w/2025/graph?title=2025"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
			body := w.Body.String()
			assert.True(t, strings.HasPrefix(body, "<svg"))
			assert.Contains(t, body, `data-week="10" data-slot="0" data-level="4"`)
			assert.Contains(t, body, "Ship &lt;v2&gt;")
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/w/abc/graph.svg", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, NewMockStore(), nil)

	doRequest(t, s, http.MethodGet, "/healthz", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shuukan_http_requests_total{code="200",method="GET",route="GET /healthz"} 1`)
}
