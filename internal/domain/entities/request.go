package entities

import (
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Request is one unit of work for the regeneration engine.
// Requests are transient and carry only their discriminant and subject.
type Request struct {
	Kind    values.RequestKind
	Project Project
	Profile values.ProfileRef
	// SkipWipe keeps the existing tree during a full regeneration.
	SkipWipe bool
}

// Subject returns a human readable description of what the request targets.
func (r Request) Subject() string {
	switch r.Kind {
	case values.RequestRegenerateProject, values.RequestSweepProject:
		return r.Project.RelPath
	case values.RequestRegenerateProfile:
		return r.Profile.String()
	default:
		return "*"
	}
}
