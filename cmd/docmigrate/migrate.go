package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docmigrate/internal/domain"
)

// upCmd はマイグレーションの適用コマンド。
func upCmd(open serviceOpener) *cobra.Command {
	return runCmd(open, domain.DirectionUp, "Apply a migration")
}

// downCmd はマイグレーションの取り消しコマンド。
func downCmd(open serviceOpener) *cobra.Command {
	return runCmd(open, domain.DirectionDown, "Revert a migration")
}

func runCmd(open serviceOpener, direction domain.Direction, short string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   string(direction) + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			service, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup(ctx)

			return service.Run(ctx, domain.RunRequest{
				Name:      args[0],
				Direction: direction,
				Force:     force,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the applied/not-applied check")
	return cmd
}

// toggleCmd は適用状態を反転させるコマンド。
func toggleCmd(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name>",
		Short: "Migrate down if applied, otherwise up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			service, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup(ctx)

			_, err = service.Toggle(ctx, args[0], cmd.OutOrStdout())
			return err
		},
	}
}

// upAllCmd は未適用のマイグレーションを全て適用するコマンド。
func upAllCmd(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "up-all",
		Short: "Apply all pending migrations in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			service, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup(ctx)

			appliedCount, err := service.UpAll(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			if appliedCount == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", appliedCount)
			}
			return nil
		},
	}
}

// listCmd はマイグレーションの適用状態を表示するコマンド。
func listCmd(open serviceOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show migration status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			service, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup(ctx)

			states, err := service.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			// テーブル形式で出力
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS")
			fmt.Fprintln(w, "----\t------")
			for _, s := range states {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Status())
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			return nil
		},
	}
}
