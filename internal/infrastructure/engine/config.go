// Package engine serializes regeneration passes and distributes their output.
package engine

import (
	"runtime"

	"github.com/reglet-dev/autoslice/internal/domain/services"
)

// Concurrency constants for slicing and distribution.
const (
	// MinConcurrentSlices keeps some parallelism on single-core hosts.
	MinConcurrentSlices = 2

	// DefaultMirrorBatchSize is how many bulk mirrors are dispatched before
	// waiting for the batch to finish.
	DefaultMirrorBatchSize = 10

	// DefaultMaxConcurrentSends caps in-flight single-file transfers.
	DefaultMaxConcurrentSends = 10

	// DefaultHistoryLimit is how many pass results the default repository keeps.
	DefaultHistoryLimit = 100
)

// Config controls engine behavior.
type Config struct {
	Policy services.DistributionPolicy
	// MaxConcurrentSlices caps slicer processes within a pass. Zero or less
	// means max(NumCPU, MinConcurrentSlices).
	MaxConcurrentSlices int
	MirrorBatchSize     int
	MaxConcurrentSends  int
	// ArtifactExt is used for mirror filter rules.
	ArtifactExt string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	maxSlices := runtime.NumCPU()
	if maxSlices < MinConcurrentSlices {
		maxSlices = MinConcurrentSlices
	}

	return Config{
		Policy:              services.DefaultDistributionPolicy(),
		MaxConcurrentSlices: maxSlices,
		MirrorBatchSize:     DefaultMirrorBatchSize,
		MaxConcurrentSends:  DefaultMaxConcurrentSends,
		ArtifactExt:         "gcode",
	}
}

// normalized fills zero values with defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxConcurrentSlices <= 0 {
		c.MaxConcurrentSlices = def.MaxConcurrentSlices
	}
	if c.MirrorBatchSize <= 0 {
		c.MirrorBatchSize = def.MirrorBatchSize
	}
	if c.MaxConcurrentSends <= 0 {
		c.MaxConcurrentSends = def.MaxConcurrentSends
	}
	if c.ArtifactExt == "" {
		c.ArtifactExt = def.ArtifactExt
	}
	return c
}
