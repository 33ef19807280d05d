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

	"github.com/jmoiron/sqlx"

	wferrors "github.com/jordigilh/workflowengine/pkg/shared/errors"
	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// SnapshotStore persists workflow definitions and execution snapshots to
// Postgres for durability across restarts. The in-memory engine.Registry
// and engine.Store remain the engine's authoritative runtime state (§5
// requires a single execution-scoped lock guarding transitions); this
// store mirrors that state so a reaper or admin tool can read it back
// after a crash without replaying every submission.
type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// SaveWorkflow upserts a workflow definition's snapshot.
func (s *SnapshotStore) SaveWorkflow(ctx context.Context, def *engine.WorkflowDefinition) error {
	body, err := json.Marshal(def)
	if err != nil {
		return wferrors.FailedToWithDetails("save_workflow", "persistence", "marshal", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_definitions (workflow_id, name, creator, definition, is_active, creation_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workflow_id) DO UPDATE SET is_active = EXCLUDED.is_active`,
		string(def.ID), def.Name, def.Creator[:], body, def.IsActive, def.CreationTime)
	if err != nil {
		return wferrors.DatabaseError("save_workflow", err)
	}
	return nil
}

// SaveExecution upserts an execution's current snapshot.
func (s *SnapshotStore) SaveExecution(ctx context.Context, exec *engine.WorkflowExecution) error {
	body, err := json.Marshal(exec)
	if err != nil {
		return wferrors.FailedToWithDetails("save_execution", "persistence", "marshal", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (execution_id, workflow_id, initiator, snapshot, is_complete, successful, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (execution_id) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			is_complete = EXCLUDED.is_complete,
			successful = EXCLUDED.successful,
			updated_at = now()`,
		string(exec.ID), string(exec.WorkflowID), exec.Initiator[:], body, exec.IsComplete, exec.Successful)
	if err != nil {
		return wferrors.DatabaseError("save_execution", err)
	}
	return nil
}

// LoadExecutionSnapshot fetches the last-saved snapshot for an execution,
// for post-mortem reads or crash recovery.
func (s *SnapshotStore) LoadExecutionSnapshot(ctx context.Context, id engine.ExecutionID) (engine.WorkflowExecution, error) {
	var body []byte
	if err := s.db.GetContext(ctx, &body, `SELECT snapshot FROM workflow_executions WHERE execution_id = $1`, string(id)); err != nil {
		return engine.WorkflowExecution{}, wferrors.DatabaseError("load_execution_snapshot", err)
	}
	var exec engine.WorkflowExecution
	if err := json.Unmarshal(body, &exec); err != nil {
		return engine.WorkflowExecution{}, wferrors.FailedToWithDetails("load_execution_snapshot", "persistence", "unmarshal", err)
	}
	return exec, nil
}

// Sink adapts SnapshotStore into an engine.EventSink: every
// WorkflowRegistered, WorkflowCompleted, PhaseCompleted, PhaseFailed and
// PhaseTimedOut event triggers a mirror write. A
// snapshot-on-every-event policy trades write volume for simplicity;
// production deployments with high event rates would batch instead.
type Sink struct {
	store  *SnapshotStore
	engine *engine.Engine
}

func NewSink(store *SnapshotStore, eng *engine.Engine) *Sink {
	return &Sink{store: store, engine: eng}
}

func (s *Sink) Emit(e engine.Event) {
	ctx := context.Background()
	switch e.Type {
	case engine.EventWorkflowRegistered:
		if def, err := s.engine.GetWorkflow(e.WorkflowID); err == nil {
			_ = s.store.SaveWorkflow(ctx, def)
		}
	case engine.EventWorkflowCompleted, engine.EventPhaseCompleted, engine.EventPhaseFailed, engine.EventPhaseTimedOut:
		if exec, err := s.engine.GetExecution(e.ExecutionID); err == nil {
			_ = s.store.SaveExecution(ctx, &exec)
		}
	}
}
