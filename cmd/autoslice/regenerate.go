package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/reglet-dev/autoslice/internal/application/dto"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
	"github.com/reglet-dev/autoslice/internal/infrastructure/container"
	"github.com/reglet-dev/autoslice/internal/infrastructure/engine"
	"github.com/reglet-dev/autoslice/internal/infrastructure/output"
	"github.com/spf13/cobra"
)

var (
	skipDelete       bool
	regenerateFormat string
)

// regenerateCmd runs one full regeneration and exits.
var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Slice every project against every profile combination, distribute, and exit",
	Long: `Delete the artifact directory, slice every project against every profile
combination, mirror the result to every target and exit. With --skip-delete
the existing artifacts are kept and overwritten in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		return runRegenerate(cmd.Context(), c, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(regenerateCmd)

	regenerateCmd.Flags().BoolVar(&skipDelete, "skip-delete", false, "keep existing artifacts instead of wiping the tree first")
	regenerateCmd.Flags().StringVar(&regenerateFormat, "format", "table", "Output format: table, json, yaml")
}

func runRegenerate(ctx context.Context, c *container.Container, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter, err := output.NewFormatterFactory().Create(regenerateFormat, w)
	if err != nil {
		return err
	}

	if _, err := prepare(ctx, c); err != nil {
		return err
	}

	eng := c.Engine()
	eng.Enqueue(entities.Request{Kind: values.RequestRegenerateAll, SkipWipe: skipDelete})
	eng.Close()
	if err := eng.Run(ctx); err != nil && !errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("regeneration interrupted: %w", err)
	}
	c.Distributor().Wait()

	passes, err := eng.Repository().FindByKind(ctx, values.RequestRegenerateAll, 1)
	if err != nil {
		return err
	}
	report := &dto.RegenerateResponse{Passes: passes, TransferFailures: c.Distributor().Failures()}
	if err := formatter.FormatRegenerate(report); err != nil {
		return err
	}

	for _, p := range passes {
		if len(p.Failed) > 0 {
			return fmt.Errorf("regeneration finished with %d failed artifacts", len(p.Failed))
		}
	}
	return nil
}
