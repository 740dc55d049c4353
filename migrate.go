package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stsysd/shuukan/db"
	"github.com/stsysd/shuukan/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	RunE:  runMigrate,
}

// runMigrate はサーバーを起動せずにマイグレーションだけを実行します。
func runMigrate(cmd *cobra.Command, args []string) error {
	conn, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		return err
	}

	version, err := db.Version(conn)
	if err != nil {
		return err
	}
	logger.Info("Migrations applied", zap.String("data_dir", cfg.DataDir), zap.Int64("version", version))
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}
