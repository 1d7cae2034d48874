package utils

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker keeps a bounded window of recent end-to-end resolution
// latencies so the service can watch its p95 against the 3-second target.
// Once the window is full, new samples overwrite the oldest.
type LatencyTracker struct {
	mu     sync.RWMutex
	window []time.Duration
	next   int
	count  int
}

// NewLatencyTracker creates a tracker keeping the last windowSize samples.
func NewLatencyTracker(windowSize int) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = 512
	}
	return &LatencyTracker{window: make([]time.Duration, windowSize)}
}

// Observe records one resolution latency.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.window[l.next] = d
	l.next = (l.next + 1) % len(l.window)
	if l.count < len(l.window) {
		l.count++
	}
}

// Percentile returns the p-th percentile (0-100) over the current window.
// Returns zero when no samples have been recorded yet.
func (l *LatencyTracker) Percentile(p float64) time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.count == 0 {
		return 0
	}

	sorted := append([]time.Duration(nil), l.window[:l.count]...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[l.count-1]
	}
	return sorted[int((p/100.0)*float64(l.count-1))]
}

// Count returns the number of samples currently in the window.
func (l *LatencyTracker) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}
