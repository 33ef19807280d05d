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
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// FeeSchedule is the admin-settable creation/execution fee pair (§6
// set_fees).
type FeeSchedule struct {
	CreationFee  uint64
	ExecutionFee uint64
}

// Registry validates and stores WorkflowDefinitions (C2). It is the
// source of truth for workflow_id -> definition and is safe for
// concurrent use: definitions are immutable after RegisterWorkflow
// returns, so reads never contend with writes to the same entry.
type Registry struct {
	mu          sync.RWMutex
	definitions map[WorkflowID]*WorkflowDefinition
	nonce       uint64

	authorizer *Authorizer
	feeSink    FeeSink
	events     EventSink
	now        func() time.Time

	feesMu sync.RWMutex
	fees   FeeSchedule
}

// NewRegistry constructs a Registry. now defaults to time.Now if nil.
func NewRegistry(authorizer *Authorizer, feeSink FeeSink, events EventSink, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	if events == nil {
		events = NullSink
	}
	return &Registry{
		definitions: make(map[WorkflowID]*WorkflowDefinition),
		authorizer:  authorizer,
		feeSink:     feeSink,
		events:      events,
		now:         now,
		fees:        FeeSchedule{CreationFee: 0, ExecutionFee: 0},
	}
}

// SetFees is an admin operation (§6 set_fees).
func (r *Registry) SetFees(caller Principal, schedule FeeSchedule) error {
	if !r.authorizer.IsAdmin(caller) {
		return errUnauthorized("set_fees", "")
	}
	r.feesMu.Lock()
	defer r.feesMu.Unlock()
	r.fees = schedule
	return nil
}

func (r *Registry) Fees() FeeSchedule {
	r.feesMu.RLock()
	defer r.feesMu.RUnlock()
	return r.fees
}

// validatePhase enforces the per-phase validation rules of §4.1.
func validatePhase(i int, p PhaseDefinition) error {
	if p.Name == "" {
		return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].name", i), fmt.Errorf("empty name"))
	}
	if p.Timeout <= 0 {
		return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].timeout", i), fmt.Errorf("must be positive"))
	}
	if len(p.Dependencies) > MaxDependencies {
		return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].dependencies", i), fmt.Errorf("exceeds max of %d", MaxDependencies))
	}
	for _, d := range p.Dependencies {
		if d >= i {
			return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].dependencies", i), fmt.Errorf("dependency %d is not strictly less than phase index %d", d, i))
		}
		if d < 0 {
			return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].dependencies", i), fmt.Errorf("negative dependency index %d", d))
		}
	}
	if p.Type == PhaseCoordination {
		if p.ConsensusThreshold < 1 || p.ConsensusThreshold > BasisPoints {
			return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].consensus_threshold", i), fmt.Errorf("must be in 1..=%d", BasisPoints))
		}
	}
	if p.Type == PhaseConditional && len(p.TriggerCondition) == 0 {
		return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].trigger_condition", i), fmt.Errorf("required for CONDITIONAL phases"))
	}
	if p.Type == PhaseContinuous {
		if _, err := DecodeContinuousMetadata(p.Metadata); err != nil {
			return errInvalidArgument("register_workflow", fmt.Sprintf("phases[%d].metadata", i), err)
		}
	}
	return nil
}

// RegisterWorkflow implements §4.1: validate, persist, forward the fee,
// emit WorkflowRegistered.
func (r *Registry) RegisterWorkflow(ctx context.Context, creator Principal, name string, phases []PhaseDefinition, authorizedTriggers PrincipalSet, feePaid uint64) (WorkflowID, error) {
	if !r.authorizer.IsAuthorizedCreator(creator) && !r.authorizer.IsAdmin(creator) {
		return "", errUnauthorized("register_workflow", creator.String())
	}
	if r.Fees().CreationFee > feePaid {
		return "", newError(CodeInvalidArgument, "register_workflow", "fee", fmt.Errorf("insufficient fee: need %d, got %d", r.Fees().CreationFee, feePaid))
	}
	if name == "" {
		return "", errInvalidArgument("register_workflow", "name", fmt.Errorf("empty name"))
	}
	if len(phases) < 1 || len(phases) > MaxPhases {
		return "", errInvalidArgument("register_workflow", "phases", fmt.Errorf("phase count %d out of range 1..=%d", len(phases), MaxPhases))
	}
	for i, p := range phases {
		if err := validatePhase(i, p); err != nil {
			return "", err
		}
	}

	var totalStake uint64
	for _, p := range phases {
		totalStake += p.RequiredStake
	}
	if authorizedTriggers == nil {
		authorizedTriggers = NewPrincipalSet()
	}

	nonce := atomic.AddUint64(&r.nonce, 1)
	now := r.now()
	id := deriveWorkflowID(name, creator, now, nonce)

	def := &WorkflowDefinition{
		ID:                 id,
		Name:               name,
		Creator:            creator,
		Phases:             phases,
		AuthorizedTriggers: authorizedTriggers,
		TotalStake:         totalStake,
		IsActive:           true,
		CreationTime:       now,
	}

	r.mu.Lock()
	if _, exists := r.definitions[id]; exists {
		r.mu.Unlock()
		return "", errAlreadyExists("register_workflow", string(id))
	}
	r.definitions[id] = def
	r.mu.Unlock()

	if r.feeSink != nil && feePaid > 0 {
		if err := r.feeSink.Transfer(ctx, creator, feePaid); err != nil {
			return "", newError(CodeFailedPrecondition, "register_workflow", "fee_sink", err)
		}
	}

	r.events.Emit(workflowEvent(EventWorkflowRegistered, now, id, map[string]interface{}{
		"name":    name,
		"creator": creator.String(),
	}))

	return id, nil
}

// GetWorkflow is a view query (§6).
func (r *Registry) GetWorkflow(id WorkflowID) (*WorkflowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[id]
	if !ok {
		return nil, errNotFound("get_workflow", string(id))
	}
	return def, nil
}

// DeactivateWorkflow sets is_active = false. The data model carries the
// field (§3) but the reference design exposes no operation for it (§9);
// Non-goals don't exclude admin lifecycle management, so it's implemented
// here as creator-or-admin gated.
func (r *Registry) DeactivateWorkflow(caller Principal, id WorkflowID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.definitions[id]
	if !ok {
		return errNotFound("deactivate_workflow", string(id))
	}
	if caller != def.Creator && !r.authorizer.IsAdmin(caller) {
		return errUnauthorized("deactivate_workflow", string(id))
	}
	// Replace the stored definition with a deactivated copy so pointers
	// already handed out by GetWorkflow are never written to.
	deactivated := *def
	deactivated.IsActive = false
	r.definitions[id] = &deactivated
	return nil
}
