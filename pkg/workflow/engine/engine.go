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

import (
	"context"
	"time"
)

// Config wires an Engine's external collaborators and admin configuration
// at construction time, rather than relying on a runtime singleton (§9
// "Admin gating by a single privileged principal").
type Config struct {
	Admin            Principal
	SelfIdentity     Principal
	Mailbox          TaskMailbox
	OperatorRegistry OperatorRegistry
	FeeSink          FeeSink
	Events           EventSink
	Now              func() time.Time
}

// Engine is the assembled workflow orchestration core: registry, store,
// authorizer, and the external collaborators the phase executors and fee
// handling depend on. It has no exported fields; all access goes through
// the public operations below and in registry.go/store.go/scheduler.go/
// submissions.go/timeout.go.
type Engine struct {
	registry   *Registry
	store      *Store
	authorizer *Authorizer

	mailbox          TaskMailbox
	operatorRegistry OperatorRegistry
	feeSink          FeeSink
	events           EventSink
	now              func() time.Time
	selfIdentity     Principal
}

// New constructs an Engine from cfg, defaulting unset collaborators to
// in-memory implementations and Now to time.Now.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	events := cfg.Events
	if events == nil {
		events = NullSink
	}
	mailbox := cfg.Mailbox
	if mailbox == nil {
		mailbox = NewInMemoryTaskMailbox()
	}
	opRegistry := cfg.OperatorRegistry
	if opRegistry == nil {
		opRegistry = NewInMemoryOperatorRegistry()
	}
	feeSink := cfg.FeeSink
	if feeSink == nil {
		feeSink = NewInMemoryFeeSink()
	}

	authorizer := NewAuthorizer(cfg.Admin, events, now)
	return &Engine{
		registry:         NewRegistry(authorizer, feeSink, events, now),
		store:            NewStore(now),
		authorizer:       authorizer,
		mailbox:          mailbox,
		operatorRegistry: opRegistry,
		feeSink:          feeSink,
		events:           events,
		now:              now,
		selfIdentity:     cfg.SelfIdentity,
	}
}

// RegisterWorkflow implements §4.1.
func (e *Engine) RegisterWorkflow(ctx context.Context, creator Principal, name string, phases []PhaseDefinition, authorizedTriggers PrincipalSet, feePaid uint64) (WorkflowID, error) {
	return e.registry.RegisterWorkflow(ctx, creator, name, phases, authorizedTriggers, feePaid)
}

// DeactivateWorkflow implements the admin lifecycle operation noted as
// missing in §9.
func (e *Engine) DeactivateWorkflow(caller Principal, id WorkflowID) error {
	return e.registry.DeactivateWorkflow(caller, id)
}

// AuthorizeWorkflowCreator implements the §6 admin operation.
func (e *Engine) AuthorizeWorkflowCreator(caller, p Principal) error {
	return e.authorizer.AuthorizeWorkflowCreator(caller, p)
}

// AuthorizeTriggerSource implements the §6 admin operation.
func (e *Engine) AuthorizeTriggerSource(caller, p Principal) error {
	return e.authorizer.AuthorizeTriggerSource(caller, p)
}

// SetFees implements the §6 admin operation.
func (e *Engine) SetFees(caller Principal, schedule FeeSchedule) error {
	return e.registry.SetFees(caller, schedule)
}

// GetWorkflow is a view query (§6).
func (e *Engine) GetWorkflow(id WorkflowID) (*WorkflowDefinition, error) {
	return e.registry.GetWorkflow(id)
}

// GetExecution is a view query (§6).
func (e *Engine) GetExecution(id ExecutionID) (WorkflowExecution, error) {
	return e.store.GetExecution(id)
}

// GetPhaseStatus is a view query (§6).
func (e *Engine) GetPhaseStatus(id ExecutionID, phaseIndex int) (PhaseStatus, error) {
	return e.store.GetPhaseStatus(id, phaseIndex)
}

// GetPhaseResult is a view query (§6).
func (e *Engine) GetPhaseResult(id ExecutionID, phaseIndex int) ([]byte, error) {
	return e.store.GetPhaseResult(id, phaseIndex)
}
