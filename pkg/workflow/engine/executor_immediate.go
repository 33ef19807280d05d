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

// executeImmediate implements §4.4 IMMEDIATE. Completion is synchronous
// with a placeholder task-handle result, independent of the mailbox's
// actual task outcome — the reference design's demo semantics, retained
// rather than gated on an external callback (open question, §9).
func (e *Engine) executeImmediate(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	exec.PhaseStatuses[phaseIndex] = StatusActive

	e.events.Emit(executionEvent(EventPhaseStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"phase_type": phase.Type.String(),
	}))

	payload := contextEnrichedPayload(exec, phase)
	handle, err := e.mailbox.CreateTask(ctx, TaskRequest{
		RefundCollector: exec.Initiator,
		AVSFee:          0,
		SelfIdentity:    e.selfIdentity,
		OperatorSetID:   phase.OperatorSetID,
		Payload:         payload,
	})
	if err != nil {
		e.failPhaseLocked(def, exec, phaseIndex, err)
		return
	}

	e.completePhaseLocked(ctx, def, exec, phaseIndex, []byte(handle))
}
