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

package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
	"github.com/jordigilh/workflowengine/pkg/workflow/metrics"
)

func testPrincipal(b byte) engine.Principal {
	var p engine.Principal
	p[0] = b
	return p
}

func TestSinkRecordsImmediateWorkflow(t *testing.T) {
	admin := testPrincipal(0xFF)
	creator := testPrincipal(0x01)

	recording := &engine.RecordingSink{}
	var sinkRef *metrics.Sink
	fanout := engine.NewFanOutSink(recording, engine.EventSinkFunc(func(e engine.Event) {
		sinkRef.Emit(e)
	}))

	eng := engine.New(engine.Config{
		Admin:  admin,
		Events: fanout,
		Now:    time.Now,
	})
	sinkRef = metrics.NewSink(eng)

	require.NoError(t, eng.AuthorizeWorkflowCreator(admin, creator))

	initialRegistered := testutil.ToFloat64(metrics.WorkflowsRegisteredTotal)
	initialStarted := testutil.ToFloat64(metrics.ExecutionsStartedTotal)
	initialCompleted := testutil.ToFloat64(metrics.PhasesCompletedTotal.WithLabelValues("IMMEDIATE"))
	initialSuccess := testutil.ToFloat64(metrics.WorkflowsCompletedTotal.WithLabelValues("success"))

	ctx := context.Background()
	workflowID, err := eng.RegisterWorkflow(ctx, creator, "metrics-test-workflow", []engine.PhaseDefinition{
		{Name: "p0", Type: engine.PhaseImmediate, Timeout: time.Minute},
	}, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, initialRegistered+1.0, testutil.ToFloat64(metrics.WorkflowsRegisteredTotal))

	_, err = eng.ExecuteWorkflow(ctx, creator, workflowID, []byte("payload"), 0)
	require.NoError(t, err)

	assert.Equal(t, initialStarted+1.0, testutil.ToFloat64(metrics.ExecutionsStartedTotal))
	assert.Equal(t, initialCompleted+1.0, testutil.ToFloat64(metrics.PhasesCompletedTotal.WithLabelValues("IMMEDIATE")))
	assert.Equal(t, initialSuccess+1.0, testutil.ToFloat64(metrics.WorkflowsCompletedTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ActiveExecutionsRunning), "execution should have completed synchronously")
}
