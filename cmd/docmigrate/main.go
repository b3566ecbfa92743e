// Package main はCLIツールのエントリポイント。
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docmigrate/config"
	"docmigrate/internal/infra"
	"docmigrate/internal/registry"
	"docmigrate/internal/repository"
	"docmigrate/internal/usecase"
	"docmigrate/migrations"
)

const version = "1.0.0"

// serviceOpener はコマンド実行ごとにMigrationServiceと後始末関数を用意する。
type serviceOpener func(ctx context.Context) (*usecase.MigrationService, func(context.Context), error)

func main() {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	if err := newRootCmd(openService).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open serviceOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "docmigrate",
		Short:        "Document database migration runner",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(upCmd(open))
	rootCmd.AddCommand(downCmd(open))
	rootCmd.AddCommand(toggleCmd(open))
	rootCmd.AddCommand(listCmd(open))
	rootCmd.AddCommand(upAllCmd(open))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docmigrate version %s\n", version)
		},
	}
}

// openService は設定を読み込み、ドキュメントストアとレジストリを組み立てる。
func openService(ctx context.Context) (*usecase.MigrationService, func(context.Context), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	// 標準出力は実行結果の表示に使う
	infra.SetupLogger(cfg, os.Stderr)

	tp, err := infra.InitTracer(ctx, cfg, version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init tracer: %w", err)
	}

	db, closeDB, err := infra.OpenDatabase(ctx, cfg)
	if err != nil {
		if tp != nil {
			_ = tp.Shutdown(ctx)
		}
		return nil, nil, err
	}

	reg := registry.New(cfg.MigrationsDir)
	migrations.Register(reg)
	states := repository.NewStateRepository(db, cfg.StateCollection)

	cleanup := func(ctx context.Context) {
		_ = closeDB(ctx)
		if tp != nil {
			_ = tp.Shutdown(ctx)
		}
	}
	return usecase.NewMigrationService(reg, states, db), cleanup, nil
}
