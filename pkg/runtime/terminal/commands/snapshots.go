package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/spf13/cobra"
)

func NewSnapshotsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect recorded assessment snapshots",
	}
	cmd.AddCommand(newListSnapshotsCmd(env), newShowSnapshotCmd(env))
	return cmd
}

func newListSnapshotsCmd(env *Env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("limit must be non-negative")
			}
			archive, err := env.archive()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			headers, err := archive.List(ctx, limit)
			if err != nil {
				return err
			}
			return env.Reporter.Snapshots(headers)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots (0 for all)")
	return cmd
}

func newShowSnapshotCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a snapshot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := env.archive()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			snapshot, err := archive.Load(ctx, args[0])
			if err != nil {
				return err
			}
			return env.Reporter.JSON(adapters.MapSnapshotDomainToApi(snapshot))
		},
	}
}
