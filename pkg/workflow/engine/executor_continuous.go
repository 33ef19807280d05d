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

import "time"

// executeContinuous implements §4.4 CONTINUOUS: decode (update_interval,
// required_updates) from metadata, arm continuous state, and remain
// ACTIVE. Completion happens in submissions.go once required_updates is
// reached. Metadata was already validated as decodable at registration
// (registry.go validatePhase), so the decode here cannot fail.
func (e *Engine) executeContinuous(def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	exec.PhaseStatuses[phaseIndex] = StatusActive

	e.events.Emit(executionEvent(EventPhaseStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"phase_type": phase.Type.String(),
	}))

	meta, _ := DecodeContinuousMetadata(phase.Metadata)

	exec.Continuous[phaseIndex] = &ContinuousState{
		UpdateInterval:  meta.UpdateInterval,
		RequiredUpdates: meta.RequiredUpdates,
		ReceivedUpdates: 0,
		LastUpdateByOp:  make(map[Principal]time.Time),
	}

	e.events.Emit(executionEvent(EventContinuousStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"update_interval_secs": int64(meta.UpdateInterval.Seconds()),
		"required_updates":     meta.RequiredUpdates,
	}))
}
