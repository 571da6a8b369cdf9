// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Foundation Contributors

package health

import (
	"sync"
	"time"
)

// Metrics exposes the current health state of an upstream dependency for
// monitoring and operator visibility. All fields are point-in-time
// snapshots safe to serialize to JSON.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	Available     bool       `json:"available"`
}

// Tracker records success/failure outcomes for one upstream dependency
// (the embedder, the database) and reports them as Metrics. Goroutine-safe.
type Tracker struct {
	mu          sync.Mutex
	failures    int64
	lastFailure time.Time
	lastSuccess time.Time
	available   bool
}

// NewTracker returns a Tracker that reports available until the first failure.
func NewTracker() *Tracker {
	return &Tracker{available: true}
}

// RecordSuccess marks the dependency reachable.
func (t *Tracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSuccess = time.Now()
	t.available = true
}

// RecordFailure marks the dependency unreachable and bumps the failure count.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures++
	t.lastFailure = time.Now()
	t.available = false
}

// Snapshot returns the current metrics.
func (t *Tracker) Snapshot() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := Metrics{
		FailureCount: t.failures,
		Available:    t.available,
	}
	if !t.lastFailure.IsZero() {
		lf := t.lastFailure
		m.LastFailureAt = &lf
	}
	if !t.lastSuccess.IsZero() {
		ls := t.lastSuccess
		m.LastSuccessAt = &ls
	}
	return m
}
