// Package api はshuukanのAPIサーバー実装を提供します。
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stsysd/shuukan/ai"
	"github.com/stsysd/shuukan/config"
	"github.com/stsysd/shuukan/store"
)

// Server はAPIサーバーの構造体です。
type Server struct {
	router    *http.ServeMux
	handler   http.Handler
	store     store.Store
	generator ai.TextGenerator
	config    *config.Config
	logger    *zap.Logger
	metrics   *Metrics
	gatherer  prometheus.Gatherer
	now       func() time.Time
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Deps はサーバーが利用する外部コンポーネントです。
// Generator が nil の場合、AIエンドポイントは 500 を返します。
type Deps struct {
	Store     store.Store
	Generator ai.TextGenerator
	Logger    *zap.Logger
	Registry  *prometheus.Registry
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(deps Deps, config *config.Config) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		router:    http.NewServeMux(),
		store:     deps.Store,
		generator: deps.Generator,
		config:    config,
		logger:    logger,
		metrics:   MustNewMetrics(registry),
		gatherer:  registry,
		now:       time.Now,
	}
	s.routes()
	s.handler = s.accessLogMiddleware(s.router)
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	// ヘルスチェックとメトリクスは認証不要
	s.router.HandleFunc("GET /healthz", s.handleHealthCheck)
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// AI endpoints
	s.router.HandleFunc("POST /api/ai/generate-goal", s.handleGenerateGoal)
	s.router.HandleFunc("POST /api/ai/planner-chat", s.handlePlannerChat)
	s.router.HandleFunc("POST /api/ai/generate-mindmap", s.handleGenerateMindmap)

	// 保護されたエンドポイントをまずセキュアなルータに登録
	securedHandler := http.NewServeMux()

	// Weekly plan endpoints
	securedHandler.HandleFunc("GET /api/v0/weeks", s.handleListWeeklyPlans)
	securedHandler.HandleFunc("GET /api/v0/weeks/{year}/{week}", s.handleGetWeeklyPlan)
	securedHandler.HandleFunc("PUT /api/v0/weeks/{year}/{week}/objectives/{slot}", s.handleUpdateObjective)
	securedHandler.HandleFunc("PATCH /api/v0/weeks/{year}/{week}/objectives/{slot}/metric", s.handleUpdateMetric)
	securedHandler.HandleFunc("POST /api/v0/weeks/{year}/{week}/objectives/{slot}/step", s.handleStepMetric)
	securedHandler.HandleFunc("PUT /api/v0/weeks/{year}/{week}/retrospective", s.handleUpdateRetrospective)

	// Goal endpoints
	securedHandler.HandleFunc("POST /api/v0/goals", s.handleCreateGoal)
	securedHandler.HandleFunc("GET /api/v0/goals", s.handleListGoals)
	securedHandler.HandleFunc("GET /api/v0/goals/{goal_id}", s.handleGetGoal)

	// 認証ミドルウェアを適用し、メインルータにマウント
	s.router.Handle("/api/v0/", s.authMiddleware(securedHandler))

	// Graph endpoints - support both with and without .svg extension
	s.router.HandleFunc("GET /w/{year}/graph.svg", s.handleGetGraph)
	s.router.HandleFunc("GET /w/{year}/graph", s.handleGetGraph)
}

// shutdownTimeout はシャットダウン時に処理中のリクエストを待つ最大時間です。
const shutdownTimeout = 10 * time.Second

// Run はサーバーを指定されたアドレスで起動します。
// ctx が終了すると処理中のリクエストを待ってからシャットダウンします。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON はJSON形式でレスポンスを返却します。
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Error encoding response", zap.Error(err))
	}
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

// decodeJSON はリクエストボディをJSONとしてデコードします。
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
