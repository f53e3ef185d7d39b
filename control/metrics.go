// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Session counters collected by the reactor.

package control

import (
	"sync"
	"time"
)

// Well-known metric keys.
const (
	MetricAccepted      = "peers.accepted"
	MetricRejected      = "peers.rejected"
	MetricBytesIn       = "bytes.in"
	MetricBytesOut      = "bytes.out"
	MetricShutdownCause = "shutdown.cause"
)

// MetricsRegistry holds counters and free-form values.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters map[string]uint64
	values   map[string]any
	updated  time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		counters: make(map[string]uint64),
		values:   make(map[string]any),
	}
}

// Add increments a counter.
func (mr *MetricsRegistry) Add(key string, delta uint64) {
	mr.mu.Lock()
	mr.counters[key] += delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Counter returns the current value of a counter, zero if never added.
func (mr *MetricsRegistry) Counter(key string) uint64 {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.counters[key]
}

// Set sets or updates a value.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Value returns a value stored with Set.
func (mr *MetricsRegistry) Value(key string) (any, bool) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, ok := mr.values[key]
	return v, ok
}

// GetSnapshot returns a copy of all counters and values.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.counters)+len(mr.values))
	for k, v := range mr.counters {
		out[k] = v
	}
	for k, v := range mr.values {
		out[k] = v
	}
	return out
}

// Updated returns the time of the last write.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
