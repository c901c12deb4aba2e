// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"

	"github.com/reglet-dev/autoslice/internal/domain/entities"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// CatalogSource reads the current set of slicer profiles.
type CatalogSource interface {
	// Load returns a fresh catalog snapshot.
	Load(ctx context.Context) (*entities.Catalog, error)

	// ProfileFile returns the file backing a profile.
	ProfileFile(ref values.ProfileRef) string
}

// ProjectSource discovers project files.
type ProjectSource interface {
	// List returns every project below the project root, sorted by relative path.
	List(ctx context.Context) ([]entities.Project, error)

	// Resolve converts a project file path into a Project.
	Resolve(path string) (entities.Project, error)
}

// Slicer invokes the external slicing program for one artifact.
// Implementations must not inspect output beyond success or failure.
type Slicer interface {
	Slice(ctx context.Context, job entities.SliceJob) error
}

// Transferer invokes the external transfer program.
type Transferer interface {
	// Mirror recursively mirrors a directory onto a target.
	Mirror(ctx context.Context, job entities.MirrorJob) error

	// Send copies a single file.
	Send(ctx context.Context, job entities.SendJob) error
}

// Regenerator accepts regeneration requests. Every method only enqueues work
// and reports whether the request was admitted.
type Regenerator interface {
	RegenerateAll() bool
	RegenerateProject(project entities.Project) bool
	RegenerateForDirtyProfile(ref values.ProfileRef) bool
	SweepProject(project entities.Project) bool
}

// ChangeKind classifies a filesystem change after debouncing.
type ChangeKind string

const (
	// ChangeUpdate covers file creation and modification
	ChangeUpdate ChangeKind = "update"
	// ChangeRemove covers deletion and renaming away
	ChangeRemove ChangeKind = "remove"
)

// ChangeEvent is one debounced change to a watched file.
type ChangeEvent struct {
	Kind ChangeKind
	Path string
}
