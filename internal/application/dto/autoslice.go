// Package dto contains data transfer objects for application layer use cases.
package dto

import (
	"github.com/reglet-dev/autoslice/internal/domain/execution"
)

// PlanRequest asks which artifacts a project would produce.
type PlanRequest struct {
	// ProjectPath is the project file; it does not have to exist yet.
	ProjectPath string
}

// PlanResponse lists every artifact planned for one project.
type PlanResponse struct {
	Project   string            `json:"project" yaml:"project"`
	Artifacts []PlannedArtifact `json:"artifacts" yaml:"artifacts"`
}

// PlannedArtifact is one planned output and the targets it would be sent to.
type PlannedArtifact struct {
	Path         string   `json:"path" yaml:"path"`
	Printer      string   `json:"printer" yaml:"printer"`
	Filament     string   `json:"filament" yaml:"filament"`
	PrintSetting string   `json:"print_setting" yaml:"print_setting"`
	Targets      []string `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// RegenerateResponse reports a one-shot regeneration.
type RegenerateResponse struct {
	Passes           []*execution.PassResult `json:"passes" yaml:"passes"`
	TransferFailures int64                   `json:"transfer_failures" yaml:"transfer_failures"`
}
