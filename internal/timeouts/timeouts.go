// internal/timeouts/timeouts.go

// Package timeouts provides centralized deadlines for repository port
// operations. Using shared values keeps port-bound contexts consistent
// across stores and makes them adjustable in one place at bootstrap.
//
// Guidelines for choosing a timeout:
//   - Short: single-document reads and small writes
//   - Medium: scoped list loads, moderate writes
//   - Long: multi-step operations touching several aggregates
//   - Batch: bulk seeding and migrations
package timeouts

import (
	"sync"
	"time"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultBatch  = 60 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	batch  = DefaultBatch
)

// Short returns the timeout for single-document reads and small writes.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for scoped list loads and moderate writes.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for multi-step operations.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Batch returns the timeout for bulk operations.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Configure overrides the timeout values. Zero durations keep the current
// value. Intended to be called once at bootstrap.
func Configure(shortD, mediumD, longD, batchD time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if shortD > 0 {
		short = shortD
	}
	if mediumD > 0 {
		medium = mediumD
	}
	if longD > 0 {
		long = longD
	}
	if batchD > 0 {
		batch = batchD
	}
}
