/*
Copyright 2025 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package dependency wraps the engine's external collaborators (operator
// registry, task mailbox) with resilience patterns so a degraded
// collaborator cannot stall phase dispatch: a circuit breaker that fails
// fast once a collaborator is unhealthy, and an in-memory fallback that
// keeps the engine usable in a degraded mode.
package dependency

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState is the health state of a protected call.
type CircuitState int

const (
	CircuitStateClosed CircuitState = iota
	CircuitStateOpen
	CircuitStateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitStateOpen:
		return "open"
	case CircuitStateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// minRequestsForEvaluation is the smallest sample size the breaker will
// trip on; below it the failure rate is too noisy to act on.
const minRequestsForEvaluation = 5

// CircuitBreaker is a cumulative failure-rate breaker: calls are counted
// from construction (or from the last successful half-open call, which
// resets the counts), and once at least minRequestsForEvaluation calls have
// been observed and the failure rate reaches threshold, the circuit opens
// and rejects calls until resetTimeout elapses. The next call then moves it
// to half-open and is let through; calls are not limited while half-open,
// and the first recorded outcome closes the circuit or reopens it.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	failureThreshold float64
	resetTimeout     time.Duration

	state       CircuitState
	total       int64
	failures    int64
	openedAt    time.Time
}

func NewCircuitBreaker(name string, failureThreshold float64, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            CircuitStateClosed,
	}
}

func (cb *CircuitBreaker) GetName() string                  { return cb.name }
func (cb *CircuitBreaker) GetFailureThreshold() float64      { return cb.failureThreshold }
func (cb *CircuitBreaker) GetResetTimeout() time.Duration    { return cb.resetTimeout }

func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetFailures() int64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

func (cb *CircuitBreaker) GetFailureRate() float64 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureRateLocked()
}

func (cb *CircuitBreaker) failureRateLocked() float64 {
	if cb.total == 0 {
		return 0.0
	}
	return float64(cb.failures) / float64(cb.total)
}

// Call executes fn if the circuit permits it, recording the outcome.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return fmt.Errorf("circuit breaker %q: circuit breaker is open", cb.name)
	}

	err := fn()
	cb.record(err)
	return err
}

// allow decides whether a call may proceed, transitioning Open->HalfOpen
// once resetTimeout has elapsed.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitStateOpen:
		if time.Since(cb.openedAt) >= cb.resetTimeout {
			cb.state = CircuitStateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitStateHalfOpen:
		if err != nil {
			cb.state = CircuitStateOpen
			cb.openedAt = time.Now()
			return
		}
		cb.state = CircuitStateClosed
		cb.total = 0
		cb.failures = 0
		return
	default:
		cb.total++
		if err != nil {
			cb.failures++
		}
		if cb.total >= minRequestsForEvaluation && cb.failureRateLocked() >= cb.failureThreshold {
			cb.state = CircuitStateOpen
			cb.openedAt = time.Now()
		}
	}
}
