// Package slicer invokes the external slicing program.
package slicer

import (
	"context"
	"log/slog"

	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/infrastructure/process"
)

// DefaultCommand is the PrusaSlicer console binary.
const DefaultCommand = "prusa-slicer"

// Ensure interface compliance
var _ ports.Slicer = (*PrusaSlicer)(nil)

// PrusaSlicer slices a project with `-o <output> -g <project> [--load <profile>]...`.
type PrusaSlicer struct {
	runner  process.Runner
	command string
}

// NewPrusaSlicer creates a slicer using command (DefaultCommand when empty).
func NewPrusaSlicer(runner process.Runner, command string) *PrusaSlicer {
	if command == "" {
		command = DefaultCommand
	}
	return &PrusaSlicer{runner: runner, command: command}
}

// Args builds the slicer arguments for a job.
func Args(job entities.SliceJob) []string {
	args := []string{"-o", job.Artifact.Path, "-g", job.Artifact.Project.Path}
	for _, file := range job.ProfileFiles {
		args = append(args, "--load", file)
	}
	return args
}

// Slice runs the slicer for one artifact. Output is logged, never parsed.
func (s *PrusaSlicer) Slice(ctx context.Context, job entities.SliceJob) error {
	result, err := s.runner.Run(ctx, s.command, Args(job)...)
	if out := result.Output(); out != "" && err == nil {
		slog.InfoContext(ctx, "slicer output", "artifact", job.Artifact.RelPath, "output", out)
	}
	if err != nil {
		return apperrors.NewSliceError(job.Artifact.RelPath, result.Output(), err)
	}
	return nil
}
