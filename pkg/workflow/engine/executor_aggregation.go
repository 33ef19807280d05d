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

// executeAggregation implements §4.4 AGGREGATION: collect
// phase_results[d] for each declared dependency, in dependency order
// (present by I2), and complete immediately with the concatenation,
// length-prefixed so a reader can split it back into per-dependency
// results.
func (e *Engine) executeAggregation(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	exec.PhaseStatuses[phaseIndex] = StatusActive

	e.events.Emit(executionEvent(EventPhaseStarted, e.now(), exec.ID, phaseIndex, map[string]interface{}{
		"phase_type": phase.Type.String(),
	}))

	var aggregated []byte
	for _, d := range phase.Dependencies {
		aggregated = append(aggregated, encodeLenPrefixed(exec.PhaseResults[d])...)
	}

	e.completePhaseLocked(ctx, def, exec, phaseIndex, aggregated)
}
