// Package execution provides domain models for regeneration pass results.
package execution

import (
	"slices"
	"sync"
	"time"

	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// PassResult records what one regeneration pass did to the artifact tree.
type PassResult struct {
	StartTime time.Time          `json:"start_time" yaml:"start_time"`
	EndTime   time.Time          `json:"end_time" yaml:"end_time"`
	Kind      values.RequestKind `json:"kind" yaml:"kind"`
	Subject   string             `json:"subject" yaml:"subject"`
	Produced  []string           `json:"produced" yaml:"produced"`
	Failed    []string           `json:"failed,omitempty" yaml:"failed,omitempty"`
	Removed   []string           `json:"removed,omitempty" yaml:"removed,omitempty"`
	Duration  time.Duration      `json:"duration" yaml:"duration"`
	mu        sync.Mutex
	PassID    values.PassID `json:"pass_id" yaml:"pass_id"`
}

// Summary provides aggregate counts for a pass.
type Summary struct {
	Produced int `json:"produced" yaml:"produced"`
	Failed   int `json:"failed" yaml:"failed"`
	Removed  int `json:"removed" yaml:"removed"`
}

// NewPassResult creates a new pass result.
func NewPassResult(kind values.RequestKind, subject string) *PassResult {
	return &PassResult{
		PassID:    values.NewPassID(),
		Kind:      kind,
		Subject:   subject,
		StartTime: time.Now(),
		Produced:  make([]string, 0),
	}
}

// GetID returns the pass ID.
func (r *PassResult) GetID() values.PassID {
	return r.PassID
}

// AddProduced records a freshly sliced artifact.
// Thread-safe for concurrent calls from slicing workers.
func (r *PassResult) AddProduced(relPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Produced = append(r.Produced, relPath)
}

// AddFailed records an artifact whose slicing failed.
func (r *PassResult) AddFailed(relPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, relPath)
}

// AddRemoved records deleted artifacts.
func (r *PassResult) AddRemoved(relPaths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Removed = append(r.Removed, relPaths...)
}

// Finalize stamps the end time and sorts the artifact lists.
// Workers complete in arbitrary order, so sorting keeps results deterministic.
func (r *PassResult) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	slices.Sort(r.Produced)
	slices.Sort(r.Failed)
	slices.Sort(r.Removed)
}

// Summary returns aggregate counts.
func (r *PassResult) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Produced: len(r.Produced),
		Failed:   len(r.Failed),
		Removed:  len(r.Removed),
	}
}
