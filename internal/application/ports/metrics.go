package ports

import (
	"time"

	"github.com/reglet-dev/autoslice/internal/domain/execution"
	"github.com/reglet-dev/autoslice/internal/domain/values"
)

// Transfer modes reported to MetricsRecorder.
const (
	TransferMirror = "mirror"
	TransferSend   = "send"
)

// MetricsRecorder receives measurements from the engine and the distributor.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	PassCompleted(kind values.RequestKind, summary execution.Summary, duration time.Duration)
	RequestThrottled(kind values.RequestKind)
	QueueDepth(depth int)
	TransferCompleted(mode string, err error)
}

// NopMetrics discards every measurement.
type NopMetrics struct{}

func (NopMetrics) PassCompleted(values.RequestKind, execution.Summary, time.Duration) {}
func (NopMetrics) RequestThrottled(values.RequestKind)                                {}
func (NopMetrics) QueueDepth(int)                                                     {}
func (NopMetrics) TransferCompleted(string, error)                                    {}
