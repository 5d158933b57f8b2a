package notification

import (
	"sync"
	"time"
)

// DispatchMetrics tracks fan-out throughput
type DispatchMetrics struct {
	EventsReceived  int64     `json:"events_received"`
	EventsDelivered int64     `json:"events_delivered"`
	EventsDropped   int64     `json:"events_dropped"`
	EventsFailed    int64     `json:"events_failed"`
	InboxRows       int64     `json:"inbox_rows"`
	Published       int64     `json:"published"`
	PublishFailed   int64     `json:"publish_failed"`
	LastDeliveredAt time.Time `json:"last_delivered_at"`
	QueueDepth      int       `json:"queue_depth"`
}

// MetricsTracker provides a goroutine-safe wrapper around DispatchMetrics.
type MetricsTracker struct {
	mu      sync.RWMutex
	metrics DispatchMetrics
}

func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *MetricsTracker) Update(fn func(*DispatchMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.metrics)
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() DispatchMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}
