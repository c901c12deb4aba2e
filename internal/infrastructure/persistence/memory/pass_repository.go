// Package memory provides in-memory implementations of domain repositories.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/repositories"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Ensure interface compliance
var _ repositories.PassRepository = (*PassRepository)(nil)

// PassRepository is an in-memory implementation of repositories.PassRepository.
// Results are kept in save order; a pass is saved once, when it finishes.
type PassRepository struct {
	results map[uuid.UUID]*execution.PassResult
	order   []uuid.UUID
	limit   int
	mu      sync.RWMutex
}

// NewPassRepository creates a new in-memory repository keeping at most limit
// results (0 keeps everything).
func NewPassRepository(limit int) *PassRepository {
	return &PassRepository{
		results: make(map[uuid.UUID]*execution.PassResult),
		limit:   limit,
	}
}

// Save persists a pass result.
func (r *PassRepository) Save(_ context.Context, result *execution.PassResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := result.GetID().UUID()
	if _, exists := r.results[id]; !exists {
		r.order = append(r.order, id)
	}
	r.results[id] = result

	if r.limit > 0 && len(r.order) > r.limit {
		evicted := r.order[:len(r.order)-r.limit]
		for _, old := range evicted {
			delete(r.results, old)
		}
		r.order = append([]uuid.UUID(nil), r.order[len(evicted):]...)
	}
	return nil
}

// FindByID retrieves a pass result by its unique ID.
func (r *PassRepository) FindByID(_ context.Context, id uuid.UUID) (*execution.PassResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id]
	if !ok {
		return nil, fmt.Errorf("pass result not found: %s", id)
	}
	return result, nil
}

// FindByKind retrieves recent pass results of one kind, newest first.
func (r *PassRepository) FindByKind(_ context.Context, kind values.RequestKind, limit int) ([]*execution.PassResult, error) {
	return r.collect(limit, func(res *execution.PassResult) bool { return res.Kind == kind }), nil
}

// Recent retrieves the most recent pass results, newest first.
func (r *PassRepository) Recent(_ context.Context, limit int) ([]*execution.PassResult, error) {
	return r.collect(limit, func(*execution.PassResult) bool { return true }), nil
}

func (r *PassRepository) collect(limit int, match func(*execution.PassResult) bool) []*execution.PassResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*execution.PassResult
	for i := len(r.order) - 1; i >= 0; i-- {
		res := r.results[r.order[i]]
		if !match(res) {
			continue
		}
		matches = append(matches, res)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches
}
