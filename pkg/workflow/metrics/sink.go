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

package metrics

import (
	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// Sink adapts the package-level recorders into an engine.EventSink so a
// caller can attach Prometheus instrumentation without the engine core
// importing this package (keeps engine free of a metrics dependency,
// matching the abstract-sink shape events.go already uses for
// persistence).
type Sink struct {
	engine *engine.Engine
}

func NewSink(eng *engine.Engine) *Sink {
	return &Sink{engine: eng}
}

func (s *Sink) Emit(e engine.Event) {
	switch e.Type {
	case engine.EventWorkflowRegistered:
		RecordWorkflowRegistered()

	case engine.EventWorkflowExecutionStarted:
		RecordExecutionStarted()
		IncrementActiveExecutions()

	case engine.EventWorkflowCompleted:
		DecrementActiveExecutions()
		successful, _ := e.Data["successful"].(bool)
		RecordWorkflowCompleted(successful)

	case engine.EventPhaseCompleted:
		s.recordPhaseTerminal(e, "completed")

	case engine.EventPhaseFailed:
		s.recordPhaseTerminal(e, "failed")

	case engine.EventPhaseTimedOut:
		s.recordPhaseTerminal(e, "timed_out")

	case engine.EventCoordinationResponse:
		RecordCoordinationResponse()

	case engine.EventMonitoringUpdate:
		RecordMonitoringUpdate()

	case engine.EventConditionalActivated:
		RecordConditionalTrigger("activated")
	}
}

// recordPhaseTerminal looks up the phase's declared type and start time
// from the engine's current view of the execution/workflow so the
// duration histogram and outcome counters can be labeled without the
// engine core threading phase_type through every terminal event.
func (s *Sink) recordPhaseTerminal(e engine.Event, outcome string) {
	exec, err := s.engine.GetExecution(e.ExecutionID)
	if err != nil {
		return
	}
	def, err := s.engine.GetWorkflow(exec.WorkflowID)
	if err != nil || e.PhaseIndex < 0 || e.PhaseIndex >= len(def.Phases) {
		return
	}
	phaseType := def.Phases[e.PhaseIndex].Type.String()

	switch outcome {
	case "completed":
		RecordPhaseCompleted(phaseType)
	case "failed":
		RecordPhaseFailed(phaseType)
	case "timed_out":
		RecordPhaseTimedOut(phaseType)
	}

	if start, ok := exec.PhaseStartTimes[e.PhaseIndex]; ok {
		RecordPhaseDuration(phaseType, e.Time.Sub(start))
	}
}
