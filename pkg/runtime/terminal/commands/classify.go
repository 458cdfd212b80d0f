package commands

import (
	"context"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/spf13/cobra"
)

type ClassifyCmd struct {
	env     *Env
	file    string
	jsonOut bool
}

func NewClassifyCmd(env *Env) *cobra.Command {
	cc := &ClassifyCmd{env: env}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Score policy assignments by security, cost, compliance and operational impact",
		RunE:  cc.run,
	}

	cmd.Flags().StringVarP(&cc.file, "file", "f", "", "Assignments file (YAML or JSON, - for stdin)")
	cmd.Flags().BoolVar(&cc.jsonOut, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (cc *ClassifyCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	var req api.ClassifyRequest
	if err := readInput(cmd, cc.file, &req); err != nil {
		return err
	}

	scored := cc.env.Service.Classify(ctx, adapters.MapAssignmentsApiToDomain(req.Assignments))
	if cc.jsonOut {
		return cc.env.Reporter.JSON(api.ClassifyResponse{
			Assignments: adapters.MapScoredAssignmentsDomainToApi(scored),
		})
	}
	return cc.env.Reporter.Classification(scored)
}
