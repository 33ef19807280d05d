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

// ExecuteWorkflow implements §4.2: construct an execution with every
// phase PENDING, forward the fee, emit WorkflowExecutionStarted, and run
// the scheduler once.
func (e *Engine) ExecuteWorkflow(ctx context.Context, initiator Principal, workflowID WorkflowID, payload []byte, feePaid uint64) (ExecutionID, error) {
	def, err := e.registry.GetWorkflow(workflowID)
	if err != nil {
		return "", err
	}
	if !def.IsActive {
		return "", errWorkflowInactive("execute_workflow", string(workflowID))
	}
	if e.registry.Fees().ExecutionFee > feePaid {
		return "", newError(CodeInvalidArgument, "execute_workflow", "fee", nil)
	}

	entry := e.store.create(workflowID, initiator, payload, len(def.Phases))

	if e.feeSink != nil && feePaid > 0 {
		if err := e.feeSink.Transfer(ctx, initiator, feePaid); err != nil {
			return "", newError(CodeFailedPrecondition, "execute_workflow", "fee_sink", err)
		}
	}

	var execID ExecutionID
	entry.mu.Lock()
	execID = entry.exec.ID
	e.events.Emit(executionEvent(EventWorkflowExecutionStarted, e.now(), execID, -1, map[string]interface{}{
		"workflow_id": string(workflowID),
		"initiator":   initiator.String(),
	}))
	err = e.tryAdvanceLocked(ctx, def, entry.exec)
	entry.mu.Unlock()
	if err != nil {
		return "", err
	}

	return execID, nil
}

// TryAdvance implements §4.3, the scheduler's public re-entry point. The
// submission handlers and the timeout engine do not call it: they already
// hold the execution's lock and re-run the scheduler through the locked
// helpers below.
func (e *Engine) TryAdvance(ctx context.Context, id ExecutionID) error {
	return e.store.WithExecution(id, func(exec *WorkflowExecution) error {
		def, err := e.registry.GetWorkflow(exec.WorkflowID)
		if err != nil {
			return err
		}
		return e.tryAdvanceLocked(ctx, def, exec)
	})
}

// tryAdvanceLocked must be called with the execution's lock held.
func (e *Engine) tryAdvanceLocked(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution) error {
	if exec.IsComplete {
		return nil
	}

	// Index order determines both dispatch order and event emission order
	// (§4.3 determinism, P9).
	for i, phase := range def.Phases {
		if exec.PhaseStatuses[i] != StatusPending {
			continue
		}
		if !dependenciesComplete(phase, exec) {
			continue
		}
		e.dispatchPhase(ctx, def, exec, i)
	}

	e.checkWorkflowCompletionLocked(def, exec)
	return nil
}

func dependenciesComplete(phase PhaseDefinition, exec *WorkflowExecution) bool {
	for _, d := range phase.Dependencies {
		if exec.PhaseStatuses[d] != StatusCompleted {
			return false
		}
	}
	return true
}

// checkWorkflowCompletionLocked implements §4.3's completion rule and I4/
// I5/I7. Must be called with the execution's lock held.
func (e *Engine) checkWorkflowCompletionLocked(def *WorkflowDefinition, exec *WorkflowExecution) {
	if exec.IsComplete {
		return
	}

	allTerminal := true
	anyFailed := false
	for _, s := range exec.PhaseStatuses {
		if !s.IsTerminal() {
			allTerminal = false
		}
		if s == StatusFailed || s == StatusTimedOut {
			anyFailed = true
		}
	}

	if anyFailed {
		// I4: a complete execution has no non-terminal phase, so phases
		// that never reached a terminal status are marked FAILED.
		for i, s := range exec.PhaseStatuses {
			if !s.IsTerminal() {
				exec.PhaseStatuses[i] = StatusFailed
			}
		}
		e.completeExecutionLocked(exec, false)
		return
	}
	if allTerminal {
		e.completeExecutionLocked(exec, true)
	}
}

func (e *Engine) completeExecutionLocked(exec *WorkflowExecution, successful bool) {
	exec.IsComplete = true
	exec.Successful = successful
	exec.CompletionTime = e.now()

	e.events.Emit(executionEvent(EventWorkflowCompleted, exec.CompletionTime, exec.ID, -1, map[string]interface{}{
		"successful": successful,
	}))
}

// completePhaseLocked transitions phase i to COMPLETED with result (I3),
// emits PhaseCompleted, and re-runs the scheduler so newly-unblocked
// dependents dispatch within the same call (§4.3, §4.4 AGGREGATION/
// IMMEDIATE synchronous completion).
func (e *Engine) completePhaseLocked(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int, result []byte) {
	exec.PhaseStatuses[phaseIndex] = StatusCompleted
	exec.PhaseResults[phaseIndex] = result

	e.events.Emit(executionEvent(EventPhaseCompleted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"result_size": len(result),
	}))

	e.tryAdvanceLocked(ctx, def, exec)
}

// failPhaseLocked transitions phase i to FAILED. Used when an external
// collaborator call the phase depends on errors; the workflow is
// workflow-terminal on any phase failure (I5), matching the Non-goal that
// excludes partial-failure recovery.
func (e *Engine) failPhaseLocked(def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int, cause error) {
	exec.PhaseStatuses[phaseIndex] = StatusFailed

	e.events.Emit(executionEvent(EventPhaseFailed, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"cause": errString(cause),
	}))

	e.checkWorkflowCompletionLocked(def, exec)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
