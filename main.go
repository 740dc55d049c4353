// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stsysd/shuukan/ai"
	"github.com/stsysd/shuukan/api"
	"github.com/stsysd/shuukan/config"
	"github.com/stsysd/shuukan/db"
	"github.com/stsysd/shuukan/store"
)

var (
	v      = config.New()
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "shuukan",
	Short:         "Weekly objectives and AI-assisted goal planning server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", v.GetString(config.KeyDataDir), "directory of the SQLite database")
	flags.String("log-level", v.GetString(config.KeyLogLevel), "log level (debug, info, warn, error)")
	cobra.CheckErr(v.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir")))
	cobra.CheckErr(v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level")))

	serveCmd.Flags().String("port", v.GetString(config.KeyServerPort), "HTTP listen port")
	cobra.CheckErr(v.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port")))

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SQLiteストアの初期化（マイグレーション関数を渡す）
	sqliteStore, err := store.NewSQLiteStore(cfg.DataDir, db.Migrate)
	if err != nil {
		return fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	defer sqliteStore.Close()

	generator, err := newGenerator(ctx)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server := api.NewServer(api.Deps{
		Store:     sqliteStore,
		Generator: generator,
		Logger:    logger,
		Registry:  registry,
	}, cfg)

	return server.Run(ctx, ":"+cfg.Port)
}

// newGenerator はAPIキーが設定されていればGeminiのクライアントを生成します。
// 未設定の場合は nil を返し、AIエンドポイントは 500 を返します。
func newGenerator(ctx context.Context) (ai.TextGenerator, error) {
	if cfg.GenAIAPIKey == "" {
		logger.Warn("GenAI API key is not set; AI endpoints are disabled")
		return nil, nil
	}
	gen, err := ai.NewGenAIGenerator(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.AITimeout)
	if err != nil {
		return nil, err
	}
	logger.Info("GenAI generator ready", zap.String("model", gen.Model()))
	return gen, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
