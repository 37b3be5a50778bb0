// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Per-tick metrics published by the pipeline. Writers replace gauges or bump
// counters; readers take copies.

package control

import (
	"maps"
	"sync"
	"time"
)

// MetricsRegistry holds gauges (any value) and int64 counters in one
// namespace, stamped with the time of the last write.
type MetricsRegistry struct {
	mu      sync.RWMutex
	values  map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{values: make(map[string]any)}
}

// Set replaces one gauge.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.values[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Publish replaces several gauges at once so readers never see half a tick.
func (mr *MetricsRegistry) Publish(values map[string]any) {
	mr.mu.Lock()
	maps.Copy(mr.values, values)
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Add bumps an int64 counter, creating it at delta. A non-counter value
// under key is overwritten.
func (mr *MetricsRegistry) Add(key string, delta int64) {
	mr.mu.Lock()
	n, _ := mr.values[key].(int64)
	mr.values[key] = n + delta
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot copies every value.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return maps.Clone(mr.values)
}

// Updated returns the time of the last write; zero if none.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}
