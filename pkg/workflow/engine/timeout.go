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

import "context"

// CheckPhaseTimeout implements §4.6: an externally driven poke, since the
// core has no internal clock task (callers or a reaper service advance
// time by calling this).
func (e *Engine) CheckPhaseTimeout(ctx context.Context, id ExecutionID, phaseIndex int) error {
	return e.store.WithExecution(id, func(exec *WorkflowExecution) error {
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("check_phase_timeout", "phase_index", nil)
		}

		status := exec.PhaseStatuses[phaseIndex]
		if status != StatusActive && status != StatusConditionalWaiting {
			return errFailedPrecondition("check_phase_timeout", "phase_not_awaiting_timeout", nil)
		}

		deadline, ok := exec.PhaseDeadlines[phaseIndex]
		if !ok {
			return newError(CodeFailedPrecondition, "check_phase_timeout", "no_timeout_set", nil)
		}

		now := e.now()
		if !now.After(deadline) {
			return newError(CodeFailedPrecondition, "check_phase_timeout", "not_yet_timed_out", nil)
		}

		exec.PhaseStatuses[phaseIndex] = StatusTimedOut
		e.events.Emit(executionEvent(EventPhaseTimedOut, now, exec.ID, phaseIndex, nil))

		def, err := e.registry.GetWorkflow(exec.WorkflowID)
		if err != nil {
			return err
		}
		e.checkWorkflowCompletionLocked(def, exec)
		return nil
	})
}
