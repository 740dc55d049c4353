// Package config はアプリケーション設定を管理します。
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix は環境変数のプレフィックスです（例: SHUUKAN_API_KEY）。
const EnvPrefix = "SHUUKAN"

// 設定キー
const (
	KeyDataDir      = "data_dir"
	KeyServerPort   = "server_port"
	KeyAPIKey       = "api_key"
	KeyGenAIAPIKey  = "genai_api_key"
	KeyGenAIModel   = "genai_model"
	KeyAITimeout    = "ai_timeout"
	KeyMindmapDelay = "mindmap_delay"
	KeyLogLevel     = "log_level"
)

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	// データディレクトリのパス
	DataDir string

	// HTTPサーバーのポート
	Port string

	// API認証キー（X-API-Keyヘッダー）
	APIKey string

	// Gemini APIキーとモデル名
	GenAIAPIKey string
	GenAIModel  string

	// AI呼び出しのタイムアウト（0なら無制限）
	AITimeout time.Duration

	// マインドマップのスタブが応答するまでの待ち時間
	MindmapDelay time.Duration

	// ログレベル（debug, info, warn, error）
	LogLevel string
}

// New は既定値と環境変数の対応付けを済ませたviperインスタンスを返します。
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDataDir, filepath.Join(".", "data"))
	v.SetDefault(KeyServerPort, "8080")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyGenAIAPIKey, "")
	v.SetDefault(KeyGenAIModel, "gemini-2.0-flash")
	v.SetDefault(KeyAITimeout, "0s")
	v.SetDefault(KeyMindmapDelay, "1500ms")
	v.SetDefault(KeyLogLevel, "info")
	return v
}

// Load はviperから設定を読み込み、Configインスタンスを生成します。
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DataDir:      v.GetString(KeyDataDir),
		Port:         v.GetString(KeyServerPort),
		APIKey:       v.GetString(KeyAPIKey),
		GenAIAPIKey:  v.GetString(KeyGenAIAPIKey),
		GenAIModel:   v.GetString(KeyGenAIModel),
		AITimeout:    v.GetDuration(KeyAITimeout),
		MindmapDelay: v.GetDuration(KeyMindmapDelay),
		LogLevel:     strings.ToLower(v.GetString(KeyLogLevel)),
	}

	if cfg.DataDir == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyDataDir)
	}
	if cfg.Port == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyServerPort)
	}
	if cfg.AITimeout < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyAITimeout)
	}
	if cfg.MindmapDelay < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyMindmapDelay)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid %s: %q", KeyLogLevel, cfg.LogLevel)
	}

	return cfg, nil
}
