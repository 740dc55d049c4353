package runn

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/k1LoW/runn"
	"github.com/stsysd/shuukan/api"
	"github.com/stsysd/shuukan/config"
	"github.com/stsysd/shuukan/db"
	"github.com/stsysd/shuukan/store"
)

func TestRouter(t *testing.T) {
	t.Setenv("SHUUKAN_API_KEY", "test-token")
	t.Setenv("SHUUKAN_DATA_DIR", t.TempDir())
	t.Setenv("SHUUKAN_MINDMAP_DELAY", "0s")

	// 設定の読み込み
	cfg, err := config.Load(config.New())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// SQLiteストアの初期化（マイグレーション関数を渡す）
	sqliteStore, err := store.NewSQLiteStore(cfg.DataDir, db.Migrate)
	if err != nil {
		t.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	// サーバーインスタンスの作成（AI生成は未設定）
	server := api.NewServer(api.Deps{Store: sqliteStore}, cfg)

	ctx := context.Background()
	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
	})
	opts := []runn.Option{
		runn.T(t),
		runn.Runner("req", ts.URL),
		runn.Var("api_key", "test-token"),
	}
	o, err := runn.Load("./**/*.yml", opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.RunN(ctx); err != nil {
		t.Fatal(err)
	}
}
