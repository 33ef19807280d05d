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

package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

func newMockStore(t *testing.T) (*SnapshotStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSnapshotStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSaveWorkflowUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	def := &engine.WorkflowDefinition{
		ID:           "wf-1",
		Name:         "test-workflow",
		IsActive:     true,
		CreationTime: time.Unix(0, 0),
	}

	mock.ExpectExec("INSERT INTO workflow_definitions").
		WithArgs(string(def.ID), def.Name, def.Creator[:], sqlmock.AnyArg(), def.IsActive, def.CreationTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SaveWorkflow(context.Background(), def); err != nil {
		t.Fatalf("SaveWorkflow: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSaveExecutionUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	exec := &engine.WorkflowExecution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		IsComplete: true,
		Successful: true,
	}

	mock.ExpectExec("INSERT INTO workflow_executions").
		WithArgs(string(exec.ID), string(exec.WorkflowID), exec.Initiator[:], sqlmock.AnyArg(), exec.IsComplete, exec.Successful).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SaveExecution(context.Background(), exec); err != nil {
		t.Fatalf("SaveExecution: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoadExecutionSnapshotRoundTrips(t *testing.T) {
	store, mock := newMockStore(t)
	exec := engine.WorkflowExecution{ID: "exec-1", WorkflowID: "wf-1", IsComplete: true}
	body, err := json.Marshal(exec)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	rows := sqlmock.NewRows([]string{"snapshot"}).AddRow(body)
	mock.ExpectQuery("SELECT snapshot FROM workflow_executions").
		WithArgs(string(exec.ID)).
		WillReturnRows(rows)

	got, err := store.LoadExecutionSnapshot(context.Background(), exec.ID)
	if err != nil {
		t.Fatalf("LoadExecutionSnapshot: %v", err)
	}
	if got.ID != exec.ID || !got.IsComplete {
		t.Fatalf("expected %+v, got %+v", exec, got)
	}
}

func TestSinkMirrorsWorkflowRegisteredAndCompleted(t *testing.T) {
	store, mock := newMockStore(t)

	admin := testPrincipal(0xFF)
	creator := testPrincipal(0x01)
	eng := engine.New(engine.Config{Admin: admin, Events: engine.NullSink, Now: time.Now})
	if err := eng.AuthorizeWorkflowCreator(admin, creator); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	sink := NewSink(store, eng)

	wfID, err := eng.RegisterWorkflow(context.Background(), creator, "mirrored", []engine.PhaseDefinition{
		{Name: "p0", Type: engine.PhaseImmediate, Timeout: time.Minute},
	}, nil, 0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	mock.ExpectExec("INSERT INTO workflow_definitions").WillReturnResult(sqlmock.NewResult(0, 1))
	sink.Emit(engine.Event{Type: engine.EventWorkflowRegistered, WorkflowID: wfID})

	execID, err := eng.ExecuteWorkflow(context.Background(), creator, wfID, nil, 0)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	mock.ExpectExec("INSERT INTO workflow_executions").WillReturnResult(sqlmock.NewResult(0, 1))
	sink.Emit(engine.Event{Type: engine.EventWorkflowCompleted, ExecutionID: execID})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func testPrincipal(b byte) engine.Principal {
	var p engine.Principal
	p[0] = b
	return p
}
