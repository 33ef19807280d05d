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
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func TestRecordWorkflowRegistered(t *testing.T) {
	initial := testutil.ToFloat64(WorkflowsRegisteredTotal)

	RecordWorkflowRegistered()

	after := testutil.ToFloat64(WorkflowsRegisteredTotal)
	assert.Equal(t, initial+1.0, after)
}

func TestRecordExecutionStarted(t *testing.T) {
	initial := testutil.ToFloat64(ExecutionsStartedTotal)

	RecordExecutionStarted()
	RecordExecutionStarted()

	final := testutil.ToFloat64(ExecutionsStartedTotal)
	assert.Equal(t, initial+2.0, final)
}

func TestRecordWorkflowCompleted(t *testing.T) {
	initialSuccess := testutil.ToFloat64(WorkflowsCompletedTotal.WithLabelValues("success"))
	initialFailure := testutil.ToFloat64(WorkflowsCompletedTotal.WithLabelValues("failure"))

	RecordWorkflowCompleted(true)
	RecordWorkflowCompleted(false)

	assert.Equal(t, initialSuccess+1.0, testutil.ToFloat64(WorkflowsCompletedTotal.WithLabelValues("success")))
	assert.Equal(t, initialFailure+1.0, testutil.ToFloat64(WorkflowsCompletedTotal.WithLabelValues("failure")))
}

func TestRecordPhaseOutcomes(t *testing.T) {
	phaseType := "test_immediate"

	initialCompleted := testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType))
	initialFailed := testutil.ToFloat64(PhasesFailedTotal.WithLabelValues(phaseType))
	initialTimedOut := testutil.ToFloat64(PhasesTimedOutTotal.WithLabelValues(phaseType))

	RecordPhaseCompleted(phaseType)
	RecordPhaseFailed(phaseType)
	RecordPhaseTimedOut(phaseType)

	assert.Equal(t, initialCompleted+1.0, testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType)))
	assert.Equal(t, initialFailed+1.0, testutil.ToFloat64(PhasesFailedTotal.WithLabelValues(phaseType)))
	assert.Equal(t, initialTimedOut+1.0, testutil.ToFloat64(PhasesTimedOutTotal.WithLabelValues(phaseType)))
}

func TestRecordPhaseDuration(t *testing.T) {
	phaseType := "test_aggregation"

	RecordPhaseDuration(phaseType, 250*time.Millisecond)

	metric := &dto.Metric{}
	observer, err := PhaseDurationSeconds.GetMetricWithLabelValues(phaseType)
	assert.NoError(t, err)
	assert.NoError(t, observer.(prometheus.Histogram).Write(metric))
	assert.True(t, metric.GetHistogram().GetSampleCount() > 0, "histogram should have recorded samples")
}

func TestRecordCoordinationResponseAndRejection(t *testing.T) {
	initialAccepted := testutil.ToFloat64(CoordinationResponsesTotal)
	initialRejected := testutil.ToFloat64(CoordinationRejectionsTotal.WithLabelValues("already_responded"))

	RecordCoordinationResponse()
	RecordCoordinationRejection("already_responded")

	assert.Equal(t, initialAccepted+1.0, testutil.ToFloat64(CoordinationResponsesTotal))
	assert.Equal(t, initialRejected+1.0, testutil.ToFloat64(CoordinationRejectionsTotal.WithLabelValues("already_responded")))
}

func TestRecordMonitoringUpdate(t *testing.T) {
	initial := testutil.ToFloat64(MonitoringUpdatesTotal)

	RecordMonitoringUpdate()

	assert.Equal(t, initial+1.0, testutil.ToFloat64(MonitoringUpdatesTotal))
}

func TestRecordConditionalTrigger(t *testing.T) {
	initialActivated := testutil.ToFloat64(ConditionalTriggersTotal.WithLabelValues("activated"))
	initialRejected := testutil.ToFloat64(ConditionalTriggersTotal.WithLabelValues("condition_not_met"))

	RecordConditionalTrigger("activated")
	RecordConditionalTrigger("condition_not_met")

	assert.Equal(t, initialActivated+1.0, testutil.ToFloat64(ConditionalTriggersTotal.WithLabelValues("activated")))
	assert.Equal(t, initialRejected+1.0, testutil.ToFloat64(ConditionalTriggersTotal.WithLabelValues("condition_not_met")))
}

func TestActiveExecutionsGauge(t *testing.T) {
	initial := testutil.ToFloat64(ActiveExecutionsRunning)

	IncrementActiveExecutions()
	assert.Equal(t, initial+1.0, testutil.ToFloat64(ActiveExecutionsRunning))

	IncrementActiveExecutions()
	assert.Equal(t, initial+2.0, testutil.ToFloat64(ActiveExecutionsRunning))

	DecrementActiveExecutions()
	assert.Equal(t, initial+1.0, testutil.ToFloat64(ActiveExecutionsRunning))

	DecrementActiveExecutions()
	assert.Equal(t, initial, testutil.ToFloat64(ActiveExecutionsRunning))
}

func TestRecordOperatorSetSizeError(t *testing.T) {
	initial := testutil.ToFloat64(OperatorSetSizeErrorsTotal)

	RecordOperatorSetSizeError()

	assert.Equal(t, initial+1.0, testutil.ToFloat64(OperatorSetSizeErrorsTotal))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()

	assert.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())

	time.Sleep(10 * time.Millisecond)

	elapsed := timer.Elapsed()
	assert.True(t, elapsed >= 10*time.Millisecond, "elapsed time should be at least 10ms")
	assert.True(t, elapsed < 500*time.Millisecond, "elapsed time should be well under 500ms")
}

func TestTimerRecordPhase(t *testing.T) {
	timer := NewTimer()
	phaseType := "test_coordination"

	initialCompleted := testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType))

	time.Sleep(10 * time.Millisecond)
	timer.RecordPhase(phaseType, "completed")

	finalCompleted := testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType))
	assert.Equal(t, initialCompleted+1.0, finalCompleted)

	metric := &dto.Metric{}
	observer, err := PhaseDurationSeconds.GetMetricWithLabelValues(phaseType)
	assert.NoError(t, err)
	assert.NoError(t, observer.(prometheus.Histogram).Write(metric))
	assert.True(t, metric.GetHistogram().GetSampleCount() > 0, "histogram should have recorded samples")
}

func TestMetricsIntegration(t *testing.T) {
	phaseType := "test_integration_immediate"

	initialStarted := testutil.ToFloat64(ExecutionsStartedTotal)
	initialCompleted := testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType))
	initialActive := testutil.ToFloat64(ActiveExecutionsRunning)

	RecordExecutionStarted()
	IncrementActiveExecutions()

	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	timer.RecordPhase(phaseType, "completed")

	DecrementActiveExecutions()
	RecordWorkflowCompleted(true)

	assert.Equal(t, initialStarted+1.0, testutil.ToFloat64(ExecutionsStartedTotal))
	assert.Equal(t, initialCompleted+1.0, testutil.ToFloat64(PhasesCompletedTotal.WithLabelValues(phaseType)))
	assert.Equal(t, initialActive, testutil.ToFloat64(ActiveExecutionsRunning))
}

func TestMetricsNaming(t *testing.T) {
	metricNames := []string{
		"workflows_registered_total",
		"executions_started_total",
		"workflows_completed_total",
		"phases_completed_total",
		"phases_failed_total",
		"phases_timed_out_total",
		"coordination_responses_total",
		"coordination_rejections_total",
		"monitoring_updates_total",
		"conditional_triggers_total",
		"phase_duration_seconds",
		"active_executions_running",
		"operator_set_size_errors_total",
	}

	for _, name := range metricNames {
		assert.False(t, strings.Contains(name, "-"), "metric name %s should not contain hyphens", name)
		assert.False(t, strings.Contains(name, " "), "metric name %s should not contain spaces", name)

		if strings.Contains(name, "duration") {
			assert.True(t, strings.HasSuffix(name, "_seconds"), "duration metric %s should end with _seconds", name)
		}

		if strings.Contains(name, "registered") || strings.Contains(name, "started") ||
			strings.Contains(name, "completed") || strings.Contains(name, "failed") ||
			strings.Contains(name, "timed_out") || strings.Contains(name, "responses") ||
			strings.Contains(name, "rejections") || strings.Contains(name, "updates") ||
			strings.Contains(name, "triggers") || strings.Contains(name, "errors") {
			assert.True(t, strings.HasSuffix(name, "_total"), "counter metric %s should end with _total", name)
		}
	}
}
