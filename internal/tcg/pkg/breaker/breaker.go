// Package breaker suspends upstream calls after repeated anomalous responses.
package breaker

import (
	"errors"
	"sync"
	"time"
)

var ErrOpen = errors.New("circuit breaker is open")

const (
	DefaultThreshold = 3
	DefaultCooldown  = 5 * time.Minute
)

type State struct {
	AnomalyCount  int        `json:"anomalyCount"`
	OpenedAt      *time.Time `json:"openedAt"`
	TrialInFlight bool       `json:"trialInFlight"`
}

// CircuitBreaker owns the process-wide breaker state. Every read and write goes
// through mu; cooldown expiry is checked lazily in Allow.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	onChange  func(open bool)
}

type Option func(*CircuitBreaker)

func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithStateHook is called with the new open flag whenever the breaker opens or closes.
func WithStateHook(hook func(open bool)) Option {
	return func(cb *CircuitBreaker) { cb.onChange = hook }
}

func New(threshold int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	cb := &CircuitBreaker{threshold: threshold, cooldown: cooldown, now: time.Now}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Allow returns ErrOpen while the breaker is open and the cooldown has not elapsed.
// Once it has, exactly one caller is let through as the trial call; the others keep getting
// ErrOpen until the trial call is recorded or released.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state.OpenedAt == nil {
		return nil
	}
	if cb.state.TrialInFlight || cb.now().Sub(*cb.state.OpenedAt) < cb.cooldown {
		return ErrOpen
	}
	cb.state.TrialInFlight = true
	return nil
}

// ReleaseTrial ends a trial call that produced neither a success nor an anomaly, so the
// next caller may try again. The breaker stays open.
func (cb *CircuitBreaker) ReleaseTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state.TrialInFlight = false
}

// RecordAnomaly counts a malformed/HTML response and opens the breaker at the threshold.
// A failed trial call re-opens it with a fresh cooldown.
func (cb *CircuitBreaker) RecordAnomaly() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state.AnomalyCount++
	cb.state.TrialInFlight = false
	if cb.state.AnomalyCount < cb.threshold {
		return
	}
	wasOpen := cb.state.OpenedAt != nil
	openedAt := cb.now()
	cb.state.OpenedAt = &openedAt
	if !wasOpen && cb.onChange != nil {
		cb.onChange(true)
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state.AnomalyCount == 0 && cb.state.OpenedAt == nil {
		return
	}
	wasOpen := cb.state.OpenedAt != nil
	cb.state = State{}
	if wasOpen && cb.onChange != nil {
		cb.onChange(false)
	}
}

func (cb *CircuitBreaker) Snapshot() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := State{AnomalyCount: cb.state.AnomalyCount, TrialInFlight: cb.state.TrialInFlight}
	if cb.state.OpenedAt != nil {
		t := *cb.state.OpenedAt
		s.OpenedAt = &t
	}
	return s
}

// IsOpen reports whether the next call would be short-circuited. It never claims the trial call.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state.OpenedAt == nil {
		return false
	}
	return cb.state.TrialInFlight || cb.now().Sub(*cb.state.OpenedAt) < cb.cooldown
}
