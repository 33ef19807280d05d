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

// Package metrics exposes Prometheus instrumentation for the workflow
// engine: registration/execution counters, per-phase-type outcome
// counters, coordination and monitoring submission counters, and a
// phase-duration histogram.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "workflows_registered_total",
		Help: "Total number of workflows registered.",
	})

	ExecutionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "executions_started_total",
		Help: "Total number of workflow executions started.",
	})

	WorkflowsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workflows_completed_total",
		Help: "Total number of workflow executions that reached a terminal state, labeled by outcome.",
	}, []string{"outcome"})

	PhasesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phases_completed_total",
		Help: "Total number of phases that completed successfully, labeled by phase type.",
	}, []string{"phase_type"})

	PhasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phases_failed_total",
		Help: "Total number of phases that failed, labeled by phase type.",
	}, []string{"phase_type"})

	PhasesTimedOutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phases_timed_out_total",
		Help: "Total number of phases that timed out, labeled by phase type.",
	}, []string{"phase_type"})

	CoordinationResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coordination_responses_total",
		Help: "Total number of coordination responses accepted.",
	})

	CoordinationRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coordination_rejections_total",
		Help: "Total number of rejected coordination responses, labeled by reason.",
	}, []string{"reason"})

	MonitoringUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitoring_updates_total",
		Help: "Total number of continuous monitoring updates accepted.",
	})

	ConditionalTriggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conditional_triggers_total",
		Help: "Total number of conditional phase trigger attempts, labeled by result.",
	}, []string{"result"})

	PhaseDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phase_duration_seconds",
		Help:    "Time from phase dispatch to terminal status, labeled by phase type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase_type"})

	ActiveExecutionsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_executions_running",
		Help: "Number of workflow executions currently in progress.",
	})

	OperatorSetSizeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "operator_set_size_errors_total",
		Help: "Total number of operator registry lookups that fell back to the default set size.",
	})
)

func RecordWorkflowRegistered() {
	WorkflowsRegisteredTotal.Inc()
}

func RecordExecutionStarted() {
	ExecutionsStartedTotal.Inc()
}

func RecordWorkflowCompleted(successful bool) {
	outcome := "success"
	if !successful {
		outcome = "failure"
	}
	WorkflowsCompletedTotal.WithLabelValues(outcome).Inc()
}

func RecordPhaseCompleted(phaseType string) {
	PhasesCompletedTotal.WithLabelValues(phaseType).Inc()
}

func RecordPhaseFailed(phaseType string) {
	PhasesFailedTotal.WithLabelValues(phaseType).Inc()
}

func RecordPhaseTimedOut(phaseType string) {
	PhasesTimedOutTotal.WithLabelValues(phaseType).Inc()
}

func RecordPhaseDuration(phaseType string, d time.Duration) {
	PhaseDurationSeconds.WithLabelValues(phaseType).Observe(d.Seconds())
}

func RecordCoordinationResponse() {
	CoordinationResponsesTotal.Inc()
}

func RecordCoordinationRejection(reason string) {
	CoordinationRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordMonitoringUpdate() {
	MonitoringUpdatesTotal.Inc()
}

func RecordConditionalTrigger(result string) {
	ConditionalTriggersTotal.WithLabelValues(result).Inc()
}

func IncrementActiveExecutions() {
	ActiveExecutionsRunning.Inc()
}

func DecrementActiveExecutions() {
	ActiveExecutionsRunning.Dec()
}

func RecordOperatorSetSizeError() {
	OperatorSetSizeErrorsTotal.Inc()
}

// Timer measures elapsed wall-clock time for a single phase dispatch and
// records it against PhaseDurationSeconds when the phase reaches a
// terminal status.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RecordPhase records the elapsed time against phaseType and, per
// outcome, increments the matching completed/failed/timed-out counter.
func (t *Timer) RecordPhase(phaseType, outcome string) {
	RecordPhaseDuration(phaseType, t.Elapsed())
	switch outcome {
	case "completed":
		RecordPhaseCompleted(phaseType)
	case "failed":
		RecordPhaseFailed(phaseType)
	case "timed_out":
		RecordPhaseTimedOut(phaseType)
	}
}
