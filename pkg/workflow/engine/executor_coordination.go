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

// executeCoordination implements §4.4 COORDINATION: query the operator
// registry for the operator set's size, compute the required response
// count from the phase's consensus threshold, arm coordination state, and
// remain ACTIVE. Completion happens in submissions.go once the quorum is
// reached.
func (e *Engine) executeCoordination(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	exec.PhaseStatuses[phaseIndex] = StatusActive

	e.events.Emit(executionEvent(EventPhaseStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"phase_type": phase.Type.String(),
	}))

	n, err := e.operatorRegistry.OperatorCount(ctx, phase.OperatorSetID)
	if err != nil {
		n = fallbackOperatorCount
	}
	required := int((uint64(n) * uint64(phase.ConsensusThreshold)) / BasisPoints)

	exec.Coordination[phaseIndex] = &CoordinationState{
		RequiredResponses: required,
		Received:          0,
		Responded:         NewPrincipalSet(),
		Responses:         make(map[Principal][]byte),
	}

	e.events.Emit(executionEvent(EventCoordinationStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"operator_count":     n,
		"required_responses": required,
	}))
}
