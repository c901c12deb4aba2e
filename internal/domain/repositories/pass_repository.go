// Package repositories defines interfaces for domain persistence.
package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// PassRepository defines the interface for recording regeneration passes.
type PassRepository interface {
	// Save persists a pass result.
	Save(ctx context.Context, result *execution.PassResult) error

	// FindByID retrieves a pass result by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*execution.PassResult, error)

	// FindByKind retrieves recent pass results of one request kind, newest first.
	FindByKind(ctx context.Context, kind values.RequestKind, limit int) ([]*execution.PassResult, error)

	// Recent retrieves the most recent pass results, newest first.
	Recent(ctx context.Context, limit int) ([]*execution.PassResult, error)
}
