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
	"sync"
	"time"
)

// Authorizer owns the engine instance's scoped authorization tables
// (global authorized creators, global authorized trigger sources, and the
// single admin principal), rather than leaning on a runtime-global
// singleton (§9 "Global authorization tables").
type Authorizer struct {
	mu sync.RWMutex

	admin              Principal
	authorizedCreators PrincipalSet
	authorizedTriggers PrincipalSet

	events EventSink
	now    func() time.Time
}

// NewAuthorizer constructs an Authorizer with admin as the single
// privileged principal (fee-sink principal, per §6). events/now mirror
// the Registry's construction so authorization grants emit the same
// WorkflowCreatorAuthorized/TriggerSourceAuthorized events §6 lists
// alongside every other mutating operation.
func NewAuthorizer(admin Principal, events EventSink, now func() time.Time) *Authorizer {
	if events == nil {
		events = NullSink
	}
	if now == nil {
		now = time.Now
	}
	return &Authorizer{
		admin:              admin,
		authorizedCreators: NewPrincipalSet(),
		authorizedTriggers: NewPrincipalSet(),
		events:             events,
		now:                now,
	}
}

func (a *Authorizer) IsAdmin(p Principal) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return p == a.admin
}

// AuthorizeWorkflowCreator grants p permission to register workflows.
// Admin-gated (§6 "authorize_workflow_creator ... admin").
func (a *Authorizer) AuthorizeWorkflowCreator(caller, p Principal) error {
	if !a.IsAdmin(caller) {
		return errUnauthorized("authorize_workflow_creator", p.String())
	}
	a.mu.Lock()
	a.authorizedCreators.Add(p)
	a.mu.Unlock()

	a.events.Emit(Event{
		Type: EventCreatorAuthorized,
		Time: a.now(),
		Data: map[string]interface{}{
			"caller":    caller.String(),
			"principal": p.String(),
		},
	})
	return nil
}

// AuthorizeTriggerSource grants p permission to fire CONDITIONAL phases
// across any workflow, independent of a given workflow's own
// authorized_triggers set.
func (a *Authorizer) AuthorizeTriggerSource(caller, p Principal) error {
	if !a.IsAdmin(caller) {
		return errUnauthorized("authorize_trigger_source", p.String())
	}
	a.mu.Lock()
	a.authorizedTriggers.Add(p)
	a.mu.Unlock()

	a.events.Emit(Event{
		Type: EventTriggerSourceAuthorized,
		Time: a.now(),
		Data: map[string]interface{}{
			"caller":    caller.String(),
			"principal": p.String(),
		},
	})
	return nil
}

func (a *Authorizer) IsAuthorizedCreator(p Principal) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authorizedCreators.Contains(p)
}

func (a *Authorizer) IsGlobalTriggerSource(p Principal) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authorizedTriggers.Contains(p)
}

// CanTrigger implements the trigger authorization rule from §4.5: caller
// must be a global trigger source, a member of the workflow's own
// authorized_triggers, or the workflow's creator.
func CanTrigger(a *Authorizer, def *WorkflowDefinition, caller Principal) bool {
	if a.IsGlobalTriggerSource(caller) {
		return true
	}
	if def.AuthorizedTriggers.Contains(caller) {
		return true
	}
	return caller == def.Creator
}
