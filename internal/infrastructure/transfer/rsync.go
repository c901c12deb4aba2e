// Package transfer distributes artifacts to remote targets with rsync.
package transfer

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/application/ports"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/infrastructure/process"
)

// DefaultCommand is the rsync binary.
const DefaultCommand = "rsync"

// Ensure interface compliance
var _ ports.Transferer = (*Rsync)(nil)

// Rsync implements ports.Transferer by shelling out to rsync.
type Rsync struct {
	runner  process.Runner
	command string
}

// NewRsync creates a transferer using command (DefaultCommand when empty).
func NewRsync(runner process.Runner, command string) *Rsync {
	if command == "" {
		command = DefaultCommand
	}
	return &Rsync{runner: runner, command: command}
}

// MirrorArgs builds `-r -t [--delete] [--filter rule]... <source>/ <destination>`.
func MirrorArgs(job entities.MirrorJob) []string {
	args := []string{"-r", "-t"}
	if job.Delete {
		args = append(args, "--delete")
	}
	for _, rule := range job.Filters {
		args = append(args, "--filter", rule.String())
	}
	source := strings.TrimSuffix(job.Source, string(filepath.Separator)) + "/"
	return append(args, source, job.Destination)
}

// SendArgs builds `-t --mkpath <source> <destination>`. The destination is
// the full remote file path; --mkpath creates missing parent directories on
// the receiver (rsync 3.2.3 or later).
func SendArgs(job entities.SendJob) []string {
	return []string{"-t", "--mkpath", job.Source, job.Destination}
}

// Mirror recursively mirrors a directory onto the destination.
func (r *Rsync) Mirror(ctx context.Context, job entities.MirrorJob) error {
	return r.run(ctx, job.Destination, MirrorArgs(job))
}

// Send copies one file to the destination path.
func (r *Rsync) Send(ctx context.Context, job entities.SendJob) error {
	return r.run(ctx, job.Destination, SendArgs(job))
}

func (r *Rsync) run(ctx context.Context, destination string, args []string) error {
	result, err := r.runner.Run(ctx, r.command, args...)
	if err != nil {
		return apperrors.NewTransferError(destination, result.Output(), err)
	}
	if out := result.Output(); out != "" {
		slog.InfoContext(ctx, "transfer output", "destination", destination, "output", out)
	}
	return nil
}
