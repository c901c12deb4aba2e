package entities

import "github.com/reglet-dev/autoslice/internal/domain/values"

// Artifact is the sliced output for one (project, permutation) pair.
// Artifacts are derived data and can be deleted and regenerated at will.
type Artifact struct {
	Project     Project            `json:"project" yaml:"project"`
	Permutation values.Permutation `json:"permutation" yaml:"permutation"`
	// Path is the absolute output path.
	Path string `json:"path" yaml:"path"`
	// RelPath is the output path relative to the artifact root.
	RelPath string `json:"rel_path" yaml:"rel_path"`
}

// ID returns the artifact identity used by the artifact index.
func (a Artifact) ID() string {
	return a.RelPath
}

// Printer returns the printer slot tag.
func (a Artifact) Printer() string {
	return a.Permutation.Printer
}
