package main

import (
	"context"
	"io"

	"github.com/reglet-dev/autoslice/internal/application/dto"
	"github.com/reglet-dev/autoslice/internal/infrastructure/container"
	"github.com/reglet-dev/autoslice/internal/infrastructure/output"
	"github.com/spf13/cobra"
)

var planFormat string

// planCmd prints what a project would produce without slicing.
var planCmd = &cobra.Command{
	Use:   "plan <project-file>",
	Short: "List the artifacts a project produces and the targets they go to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		return runPlan(cmd.Context(), c, args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planFormat, "format", "table", "Output format: table, json, yaml")
}

func runPlan(ctx context.Context, c *container.Container, projectPath string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter, err := output.NewFormatterFactory().Create(planFormat, w)
	if err != nil {
		return err
	}

	plan, err := c.PlanProjectUseCase().Execute(ctx, dto.PlanRequest{ProjectPath: projectPath})
	if err != nil {
		return err
	}
	return formatter.FormatPlan(plan)
}
