// Package circuitbreaker implements the gateway's single-upstream,
// pre-first-byte retry gate: an idempotent request to the OpenAI-compatible
// upstream may be retried transparently as long as no response byte has
// reached the client yet, and the gate trips to stop retrying a persistently
// failing upstream rather than spinning forever.
//
// There is exactly one configured upstream, so the gate tracks one target's
// health directly rather than selecting among a pool: failure/success
// counters, exponential backoff, and an open circuit with a scheduled retry
// time.
package circuitbreaker

import (
	"sync"
	"time"
)

// Config controls the gate's trip/reset behavior.
type Config struct {
	// FailureThreshold is the number of consecutive failures that trips the
	// gate open.
	FailureThreshold int
	// BackoffDuration is the initial wait once the gate trips.
	BackoffDuration time.Duration
	// MaxBackoffDuration caps the exponential backoff growth.
	MaxBackoffDuration time.Duration
	// MaxAttempts bounds how many times one request may be retried
	// pre-first-byte, regardless of gate state.
	MaxAttempts int
}

// DefaultConfig returns conservative defaults: a request makes at most 3
// attempts, but the gate trips after 2 consecutive failures, so starting
// from a closed gate a failing request stops after one retry and the gate
// then backs off.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   2,
		BackoffDuration:    30 * time.Second,
		MaxBackoffDuration: 5 * time.Minute,
		MaxAttempts:        3,
	}
}

// Gate tracks the upstream's recent health and decides whether a new
// request attempt should be allowed to dial it right now.
type Gate struct {
	cfg Config

	mu            sync.Mutex
	failureCount  int
	circuitOpen   bool
	nextRetryTime time.Time
}

// New builds a Gate with cfg.
func New(cfg Config) *Gate {
	return &Gate{cfg: cfg}
}

// Allow reports whether a new attempt may dial the upstream now: true when
// the circuit is closed, or when it's open but the backoff window has
// elapsed (a half-open probe).
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.circuitOpen {
		return true
	}
	return !time.Now().Before(g.nextRetryTime)
}

// MaxAttempts returns the configured retry ceiling for one request.
func (g *Gate) MaxAttempts() int {
	if g.cfg.MaxAttempts <= 0 {
		return 1
	}
	return g.cfg.MaxAttempts
}

// RecordFailure marks one failed dial/connect attempt, tripping the gate
// open once FailureThreshold consecutive failures accumulate.
func (g *Gate) RecordFailure() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failureCount++
	if g.failureCount < g.cfg.FailureThreshold {
		return
	}

	g.circuitOpen = true
	over := g.failureCount - g.cfg.FailureThreshold + 1
	backoff := g.cfg.BackoffDuration * time.Duration(over)
	if backoff > g.cfg.MaxBackoffDuration {
		backoff = g.cfg.MaxBackoffDuration
	}
	g.nextRetryTime = time.Now().Add(backoff)
}

// RecordSuccess closes the circuit and resets the failure count.
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failureCount = 0
	g.circuitOpen = false
	g.nextRetryTime = time.Time{}
}

// Snapshot reports the gate's current state, for a health endpoint.
type Snapshot struct {
	CircuitOpen   bool      `json:"circuit_open"`
	FailureCount  int       `json:"failure_count"`
	NextRetryTime time.Time `json:"next_retry_time,omitempty"`
}

func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{CircuitOpen: g.circuitOpen, FailureCount: g.failureCount, NextRetryTime: g.nextRetryTime}
}
