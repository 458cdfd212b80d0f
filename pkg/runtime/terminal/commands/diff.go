package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/spf13/cobra"
)

type DiffCmd struct {
	env          *Env
	previousID   string
	previousFile string
	currentFile  string
	jsonOut      bool
}

func NewDiffCmd(env *Env) *cobra.Command {
	dc := &DiffCmd{env: env}
	cmd := &cobra.Command{
		Use:   "diff [snapshot-id]",
		Short: "Compare two assessment snapshots",
		Long: "Compare a recorded snapshot with its predecessor (or --previous), " +
			"or two snapshot files given with --previous-file and --current-file.",
		Args: cobra.MaximumNArgs(1),
		RunE: dc.run,
	}

	cmd.Flags().StringVar(&dc.previousID, "previous", "", "Recorded snapshot to compare against")
	cmd.Flags().StringVar(&dc.previousFile, "previous-file", "", "Earlier snapshot JSON file")
	cmd.Flags().StringVar(&dc.currentFile, "current-file", "", "Later snapshot JSON file")
	cmd.Flags().BoolVar(&dc.jsonOut, "json", false, "Print JSON instead of a report")
	cmd.MarkFlagsRequiredTogether("previous-file", "current-file")

	return cmd
}

func (dc *DiffCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	var (
		report domain.DeltaReport
		err    error
	)
	switch {
	case dc.currentFile != "":
		if len(args) > 0 || dc.previousID != "" {
			return errors.New("snapshot files cannot be combined with recorded snapshot ids")
		}
		report, err = dc.compareFiles(ctx)
	case len(args) == 1:
		report, err = dc.compareRecorded(ctx, args[0])
	default:
		return errors.New("either a snapshot id or --previous-file and --current-file are required")
	}
	if err != nil {
		return err
	}

	if dc.jsonOut {
		return dc.env.Reporter.JSON(adapters.MapDeltaReportDomainToApi(report))
	}
	return dc.env.Reporter.Delta(report)
}

func (dc *DiffCmd) compareFiles(ctx context.Context) (domain.DeltaReport, error) {
	previous, err := readSnapshot(ctx, dc.previousFile)
	if err != nil {
		return domain.DeltaReport{}, err
	}
	current, err := readSnapshot(ctx, dc.currentFile)
	if err != nil {
		return domain.DeltaReport{}, err
	}
	return dc.env.Service.Compare(ctx, previous, current), nil
}

func (dc *DiffCmd) compareRecorded(ctx context.Context, id string) (domain.DeltaReport, error) {
	archive, err := dc.env.archive()
	if err != nil {
		return domain.DeltaReport{}, err
	}
	report, err := archive.Delta(ctx, id, dc.previousID)
	if err != nil {
		return domain.DeltaReport{}, fmt.Errorf("failed to compare snapshot %s: %w", id, err)
	}
	return report, nil
}
