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

// dispatchPhase is the tagged-variant dispatch the source design calls
// for (§9 "Polymorphic phase dispatch"): one function per PhaseType,
// exhaustively matched, instead of open inheritance. Must be called with
// the execution's lock held.
func (e *Engine) dispatchPhase(ctx context.Context, def *WorkflowDefinition, exec *WorkflowExecution, phaseIndex int) {
	phase := def.Phases[phaseIndex]
	now := e.now()

	exec.PhaseStartTimes[phaseIndex] = now
	exec.PhaseDeadlines[phaseIndex] = now.Add(phase.Timeout)

	switch phase.Type {
	case PhaseImmediate:
		e.executeImmediate(ctx, def, exec, phaseIndex)
	case PhaseCoordination:
		e.executeCoordination(ctx, def, exec, phaseIndex)
	case PhaseContinuous:
		e.executeContinuous(def, exec, phaseIndex)
	case PhaseConditional:
		e.executeConditional(def, exec, phaseIndex)
	case PhaseAggregation:
		e.executeAggregation(ctx, def, exec, phaseIndex)
	}
}

// contextEnrichedPayload builds the IMMEDIATE input: the
// execution's initial payload, each declared dependency's result in
// dependency order, and the phase's own metadata (§4.4 IMMEDIATE).
func contextEnrichedPayload(exec *WorkflowExecution, phase PhaseDefinition) []byte {
	var out []byte
	out = append(out, encodeLenPrefixed(exec.InitialPayload)...)
	for _, d := range phase.Dependencies {
		out = append(out, encodeLenPrefixed(exec.PhaseResults[d])...)
	}
	out = append(out, encodeLenPrefixed(phase.Metadata)...)
	return out
}

func encodeLenPrefixed(b []byte) []byte {
	out := make([]byte, 0, 4+len(b))
	n := uint32(len(b))
	out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	out = append(out, b...)
	return out
}
