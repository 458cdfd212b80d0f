package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type AssessCmd struct {
	env     *Env
	file    string
	dryRun  bool
	jsonOut bool
}

func NewAssessCmd(env *Env) *cobra.Command {
	ac := &AssessCmd{env: env}
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run the framework checks and test cases against collected tenant state",
		RunE:  ac.run,
	}

	cmd.Flags().StringVarP(&ac.file, "file", "f", "", "Collected tenant state (YAML or JSON, - for stdin)")
	cmd.Flags().BoolVar(&ac.dryRun, "dry-run", false, "Do not record the snapshot")
	cmd.Flags().BoolVar(&ac.jsonOut, "json", false, "Print JSON instead of a report")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (ac *AssessCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	var req api.AssessmentRequest
	if err := readInput(cmd, ac.file, &req); err != nil {
		return err
	}

	result, err := ac.env.Service.Run(ctx, assessment.InputFromRequest(req))
	if err != nil {
		return fmt.Errorf("failed to run assessment: %w", err)
	}

	if !ac.dryRun {
		archive, err := ac.env.archive()
		if err != nil {
			return err
		}
		result.Snapshot, err = archive.Record(ctx, result.Snapshot)
		if err != nil {
			return err
		}
		logger.Info().Str("snapshot", result.Snapshot.ID).Msg("assessment recorded")
	}

	if ac.jsonOut {
		return ac.env.Reporter.JSON(api.AssessmentResponse{
			Snapshot:   adapters.MapSnapshotDomainToApi(result.Snapshot),
			Compliance: adapters.MapComplianceDomainToApi(result.Compliance),
			Counts:     adapters.MapTestCountsDomainToApi(result.Tests.Counts()),
		})
	}
	return ac.env.Reporter.Assessment(result)
}
