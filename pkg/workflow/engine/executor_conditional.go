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

// executeConditional implements §4.4 CONDITIONAL: transition directly to
// CONDITIONAL_WAITING and persist the condition record under
// (execution_id, phase_index). Completion happens in submissions.go via
// TriggerConditionalPhase.
func (e *Engine) executeConditional(def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	exec.PhaseStatuses[phaseIndex] = StatusConditionalWaiting

	exec.Conditional[phaseIndex] = &ConditionalTrigger{
		Condition: phase.TriggerCondition,
		Triggered: false,
	}

	e.events.Emit(executionEvent(EventConditionalTriggerSet, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"phase_type": phase.Type.String(),
	}))
}
