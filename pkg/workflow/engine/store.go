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

package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// executionEntry pairs one WorkflowExecution with the lock that serializes
// every transition on it (§5: "hold an execution-scoped lock"). The
// entry's identity is stable for the execution's lifetime even though the
// Store's own map may be read concurrently by other executions' callers.
type executionEntry struct {
	mu   sync.Mutex
	exec *WorkflowExecution
}

// Store holds per-execution state (C3): phase statuses, results,
// start/deadline timestamps, coordination tallies, monitoring logs,
// conditional-trigger records. The map itself is guarded by a RWMutex
// that is only ever held briefly, to look up or insert an entry;
// everything about a single execution's lifecycle is guarded by that
// entry's own mutex instead, so unrelated executions never contend.
type Store struct {
	mu         sync.RWMutex
	executions map[ExecutionID]*executionEntry
	nonce      uint64
	now        func() time.Time
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		executions: make(map[ExecutionID]*executionEntry),
		now:        now,
	}
}

// create seeds a new WorkflowExecution (I1: every phase PENDING) and
// inserts it into the store.
func (s *Store) create(workflowID WorkflowID, initiator Principal, payload []byte, phaseCount int) *executionEntry {
	nonce := atomic.AddUint64(&s.nonce, 1)
	now := s.now()
	id := deriveExecutionID(workflowID, initiator, now, nonce)

	entry := &executionEntry{exec: newExecution(id, workflowID, initiator, payload, phaseCount)}

	s.mu.Lock()
	s.executions[id] = entry
	s.mu.Unlock()

	return entry
}

func (s *Store) entry(id ExecutionID) (*executionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, errNotFound("get_execution", string(id))
	}
	return e, nil
}

// WithExecution locks the execution's entry for the duration of fn, the
// way package-internal code reads or mutates a WorkflowExecution's fields
// (§5 "apply transitions atomically"); ExecuteWorkflow, which creates the
// entry, locks entry.mu directly.
func (s *Store) WithExecution(id ExecutionID, fn func(*WorkflowExecution) error) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.exec)
}

// GetExecution is a view query (§6); it returns a shallow copy with its
// own status slice and maps (I7). The per-phase state records and byte
// slices those maps hold are shared with the live execution.
func (s *Store) GetExecution(id ExecutionID) (WorkflowExecution, error) {
	var snapshot WorkflowExecution
	err := s.WithExecution(id, func(exec *WorkflowExecution) error {
		snapshot = copyExecution(exec)
		return nil
	})
	return snapshot, err
}

// GetPhaseStatus is a view query (§6).
func (s *Store) GetPhaseStatus(id ExecutionID, phaseIndex int) (PhaseStatus, error) {
	var status PhaseStatus
	err := s.WithExecution(id, func(exec *WorkflowExecution) error {
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("get_phase_status", "phase_index", nil)
		}
		status = exec.PhaseStatuses[phaseIndex]
		return nil
	})
	return status, err
}

// GetPhaseResult is a view query (§6); returns errNotFound if the phase
// hasn't completed (I3: results exist iff COMPLETED).
func (s *Store) GetPhaseResult(id ExecutionID, phaseIndex int) ([]byte, error) {
	var result []byte
	err := s.WithExecution(id, func(exec *WorkflowExecution) error {
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("get_phase_result", "phase_index", nil)
		}
		r, ok := exec.PhaseResults[phaseIndex]
		if !ok {
			return errNotFound("get_phase_result", "phase_result")
		}
		result = r
		return nil
	})
	return result, err
}

func copyExecution(exec *WorkflowExecution) WorkflowExecution {
	cp := *exec

	cp.PhaseStatuses = append([]PhaseStatus(nil), exec.PhaseStatuses...)

	cp.PhaseResults = make(map[int][]byte, len(exec.PhaseResults))
	for k, v := range exec.PhaseResults {
		cp.PhaseResults[k] = v
	}
	cp.PhaseStartTimes = make(map[int]time.Time, len(exec.PhaseStartTimes))
	for k, v := range exec.PhaseStartTimes {
		cp.PhaseStartTimes[k] = v
	}
	cp.PhaseDeadlines = make(map[int]time.Time, len(exec.PhaseDeadlines))
	for k, v := range exec.PhaseDeadlines {
		cp.PhaseDeadlines[k] = v
	}
	cp.Coordination = make(map[int]*CoordinationState, len(exec.Coordination))
	for k, v := range exec.Coordination {
		cp.Coordination[k] = v
	}
	cp.Continuous = make(map[int]*ContinuousState, len(exec.Continuous))
	for k, v := range exec.Continuous {
		cp.Continuous[k] = v
	}
	cp.Conditional = make(map[int]*ConditionalTrigger, len(exec.Conditional))
	for k, v := range exec.Conditional {
		cp.Conditional[k] = v
	}
	return cp
}
