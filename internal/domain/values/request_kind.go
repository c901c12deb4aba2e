package values

// RequestKind discriminates regeneration requests.
type RequestKind string

const (
	// RequestRegenerateAll wipes the artifact tree and rebuilds every project
	RequestRegenerateAll RequestKind = "regenerate_all"
	// RequestRegenerateProject rebuilds every permutation of one project
	RequestRegenerateProject RequestKind = "regenerate_project"
	// RequestRegenerateProfile rebuilds only permutations that apply one profile
	RequestRegenerateProfile RequestKind = "regenerate_profile"
	// RequestSweepProject removes every artifact derived from one project
	RequestSweepProject RequestKind = "sweep_project"
)

// IsFullTree reports whether the request rebuilds the whole artifact tree.
func (k RequestKind) IsFullTree() bool {
	return k == RequestRegenerateAll
}

// String returns the string representation
func (k RequestKind) String() string {
	return string(k)
}
