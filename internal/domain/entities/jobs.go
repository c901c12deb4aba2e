package entities

// SliceJob describes one invocation of the external slicer.
type SliceJob struct {
	Artifact Artifact
	// ProfileFiles are the profile files to load, one per non-None slot, in slot order.
	ProfileFiles []string
}

// FilterRule is one include ("+") or exclude ("-") pattern for a mirror transfer.
type FilterRule struct {
	Action  string `json:"action" yaml:"action"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

const (
	// FilterInclude keeps matching paths
	FilterInclude = "+"
	// FilterExclude skips matching paths and protects them from deletion on the receiver
	FilterExclude = "-"
)

// String returns the rule in rsync filter syntax.
func (r FilterRule) String() string {
	return r.Action + " " + r.Pattern
}

// MirrorJob mirrors a whole directory tree to a target.
type MirrorJob struct {
	Source      string
	Destination string
	// Delete removes receiver files that are absent from Source.
	Delete  bool
	Filters []FilterRule
}

// SendJob copies one file to a destination path.
type SendJob struct {
	Source      string
	Destination string
}
