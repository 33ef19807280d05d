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

// Package engine implements the workflow orchestration state machine: a
// declarative DAG of phases, each driven by one of five execution
// disciplines, advanced deterministically by the dependency scheduler and
// closed out by per-phase submission handlers and the timeout engine.
package engine

import "time"

// PhaseType selects which of the five execution disciplines governs a phase.
type PhaseType int

const (
	PhaseImmediate PhaseType = iota
	PhaseCoordination
	PhaseContinuous
	PhaseConditional
	PhaseAggregation
)

func (t PhaseType) String() string {
	switch t {
	case PhaseImmediate:
		return "IMMEDIATE"
	case PhaseCoordination:
		return "COORDINATION"
	case PhaseContinuous:
		return "CONTINUOUS"
	case PhaseConditional:
		return "CONDITIONAL"
	case PhaseAggregation:
		return "AGGREGATION"
	default:
		return "UNKNOWN"
	}
}

// PhaseStatus is a node in the per-phase state machine:
//
//	PENDING -> ACTIVE -> (COMPLETED | FAILED | TIMED_OUT)
//	PENDING -> CONDITIONAL_WAITING -> (COMPLETED | FAILED | TIMED_OUT)
type PhaseStatus int

const (
	StatusPending PhaseStatus = iota
	StatusActive
	StatusConditionalWaiting
	StatusCompleted
	StatusFailed
	StatusTimedOut
)

func (s PhaseStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusActive:
		return "ACTIVE"
	case StatusConditionalWaiting:
		return "CONDITIONAL_WAITING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether s is one of the execution-final states (I4, P3).
func (s PhaseStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut:
		return true
	default:
		return false
	}
}

// Limits enforced at registration time (spec §6 "Limits").
const (
	MaxPhases       = 50
	MaxDependencies = 10
	BasisPoints     = 10000
)

// PhaseDefinition is a value-type DAG node, validated once at registration
// and never mutated afterward.
type PhaseDefinition struct {
	Name               string
	Type               PhaseType
	Timeout            time.Duration
	Dependencies       []int
	TriggerCondition   []byte
	OperatorSetID      string
	Metadata           []byte
	RequiredStake      uint64
	ConsensusThreshold uint32 // basis points, 1..=10000, required for COORDINATION
}

// WorkflowID is a content-addressed identifier: hash(name, creator,
// creation_time, nonce).
type WorkflowID string

// ExecutionID is a content-addressed identifier: hash(workflow_id,
// initiator, timestamp, nonce).
type ExecutionID string

// WorkflowDefinition is immutable after RegisterWorkflow succeeds (I6
// holds structurally: every PhaseDefinition.Dependencies entry is checked
// to be < its own index at registration, so the phase list is a DAG in
// topological order by construction).
type WorkflowDefinition struct {
	ID                 WorkflowID
	Name               string
	Creator            Principal
	Phases             []PhaseDefinition
	AuthorizedTriggers PrincipalSet
	TotalStake         uint64
	IsActive           bool
	CreationTime       time.Time
}

// CoordinationState is the live tally for a COORDINATION phase.
type CoordinationState struct {
	RequiredResponses int
	Received          int
	Responded         PrincipalSet
	ResponseOrder     []Principal // insertion order, for deterministic aggregation
	Responses         map[Principal][]byte
}

// ContinuousState is the live tally for a CONTINUOUS phase.
type ContinuousState struct {
	UpdateInterval   time.Duration
	RequiredUpdates  int
	ReceivedUpdates  int
	LastUpdateByOp   map[Principal]time.Time
	Log              []MonitoringUpdate
}

// MonitoringUpdate is one accepted CONTINUOUS phase update.
type MonitoringUpdate struct {
	Operator  Principal
	Data      []byte
	Timestamp time.Time
}

// ConditionalTrigger is the live record for a CONDITIONAL phase's awaited
// condition.
type ConditionalTrigger struct {
	Condition   []byte
	Triggered   bool
	TriggerTime time.Time
	Source      Principal
	Data        []byte
}

// WorkflowExecution is a live instance of a WorkflowDefinition. All fields
// except ID/WorkflowID/Initiator/InitialPayload mutate during execution,
// guarded by the store's per-execution lock (see store.go).
type WorkflowExecution struct {
	ID              ExecutionID
	WorkflowID      WorkflowID
	InitialPayload  []byte
	Initiator       Principal
	PhaseStatuses   []PhaseStatus
	PhaseResults    map[int][]byte
	PhaseStartTimes map[int]time.Time
	PhaseDeadlines  map[int]time.Time

	Coordination map[int]*CoordinationState
	Continuous   map[int]*ContinuousState
	Conditional  map[int]*ConditionalTrigger

	IsComplete     bool
	Successful     bool
	CompletionTime time.Time
}

// newExecution seeds a WorkflowExecution with all phases PENDING (I1).
func newExecution(id ExecutionID, workflowID WorkflowID, initiator Principal, payload []byte, phaseCount int) *WorkflowExecution {
	statuses := make([]PhaseStatus, phaseCount)
	for i := range statuses {
		statuses[i] = StatusPending
	}
	return &WorkflowExecution{
		ID:              id,
		WorkflowID:      workflowID,
		InitialPayload:  payload,
		Initiator:       initiator,
		PhaseStatuses:   statuses,
		PhaseResults:    make(map[int][]byte),
		PhaseStartTimes: make(map[int]time.Time),
		PhaseDeadlines:  make(map[int]time.Time),
		Coordination:    make(map[int]*CoordinationState),
		Continuous:      make(map[int]*ContinuousState),
		Conditional:     make(map[int]*ConditionalTrigger),
	}
}
