package input

import (
	"sync/atomic"
	"time"
)

// Metrics tracks input processing counters.
type Metrics struct {
	strokesTotal     atomic.Uint64
	actionsTotal     atomic.Uint64
	unmatchedTotal   atomic.Uint64
	droppedActions   atomic.Uint64
	sequenceTimeouts atomic.Uint64
	hookConsumptions atomic.Uint64

	// Peak stroke resolution latency in nanoseconds.
	peakLatency atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordStroke records a processed stroke with its resolution time.
func (m *Metrics) RecordStroke(latency time.Duration) {
	m.strokesTotal.Add(1)

	ns := latency.Nanoseconds()
	for {
		current := m.peakLatency.Load()
		if ns <= current || m.peakLatency.CompareAndSwap(current, ns) {
			break
		}
	}
}

// RecordAction records a sent action.
func (m *Metrics) RecordAction() { m.actionsTotal.Add(1) }

// RecordUnmatched records an abandoned sequence.
func (m *Metrics) RecordUnmatched() { m.unmatchedTotal.Add(1) }

// RecordDroppedAction records an action dropped because the channel was full.
func (m *Metrics) RecordDroppedAction() { m.droppedActions.Add(1) }

// RecordSequenceTimeout records a sequence timeout.
func (m *Metrics) RecordSequenceTimeout() { m.sequenceTimeouts.Add(1) }

// RecordHookConsumption records a hook consuming a stroke or action.
func (m *Metrics) RecordHookConsumption() { m.hookConsumptions.Add(1) }

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	StrokesTotal     uint64
	ActionsTotal     uint64
	UnmatchedTotal   uint64
	DroppedActions   uint64
	SequenceTimeouts uint64
	HookConsumptions uint64
	PeakLatency      time.Duration
	Uptime           time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		StrokesTotal:     m.strokesTotal.Load(),
		ActionsTotal:     m.actionsTotal.Load(),
		UnmatchedTotal:   m.unmatchedTotal.Load(),
		DroppedActions:   m.droppedActions.Load(),
		SequenceTimeouts: m.sequenceTimeouts.Load(),
		HookConsumptions: m.hookConsumptions.Load(),
		PeakLatency:      time.Duration(m.peakLatency.Load()),
		Uptime:           time.Since(m.startTime),
	}
}
