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

package server

import (
	"encoding/base64"
	"time"

	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

func secondsToDuration(s int64) time.Duration {
	return time.Duration(s) * time.Second
}

// phaseDefinitionDTO is the wire shape of a phase within a
// registerWorkflowRequest. Binary fields travel as base64.
type phaseDefinitionDTO struct {
	Name               string `json:"name" validate:"required"`
	Type               string `json:"type" validate:"required,oneof=IMMEDIATE COORDINATION CONTINUOUS CONDITIONAL AGGREGATION"`
	TimeoutSeconds     int64  `json:"timeout_seconds" validate:"required,gt=0"`
	Dependencies       []int  `json:"dependencies"`
	TriggerCondition   string `json:"trigger_condition,omitempty"`
	OperatorSetID      string `json:"operator_set_id,omitempty"`
	Metadata           string `json:"metadata,omitempty"`
	RequiredStake      uint64 `json:"required_stake"`
	ConsensusThreshold uint32 `json:"consensus_threshold,omitempty"`
}

type registerWorkflowRequest struct {
	Creator            string               `json:"creator" validate:"required,len=40,hexadecimal"`
	Name               string               `json:"name" validate:"required"`
	Phases             []phaseDefinitionDTO `json:"phases" validate:"required,min=1"`
	AuthorizedTriggers []string             `json:"authorized_triggers"`
	FeePaid            uint64               `json:"fee_paid"`
}

type registerWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
}

type executeWorkflowRequest struct {
	Initiator string `json:"initiator" validate:"required,len=40,hexadecimal"`
	Payload   string `json:"payload"`
	FeePaid   uint64 `json:"fee_paid"`
}

type executeWorkflowResponse struct {
	ExecutionID string `json:"execution_id"`
}

type coordinationResponseRequest struct {
	Caller   string `json:"caller" validate:"required,len=40,hexadecimal"`
	Response string `json:"response"`
}

type monitoringUpdateRequest struct {
	Caller string `json:"caller" validate:"required,len=40,hexadecimal"`
	Data   string `json:"data"`
}

type triggerConditionalRequest struct {
	Caller      string `json:"caller" validate:"required,len=40,hexadecimal"`
	TriggerData string `json:"trigger_data"`
}

type authorizePrincipalRequest struct {
	Caller    string `json:"caller" validate:"required,len=40,hexadecimal"`
	Principal string `json:"principal" validate:"required,len=40,hexadecimal"`
}

type setFeesRequest struct {
	Caller       string `json:"caller" validate:"required,len=40,hexadecimal"`
	CreationFee  uint64 `json:"creation_fee"`
	ExecutionFee uint64 `json:"execution_fee"`
}

type deactivateWorkflowRequest struct {
	Caller string `json:"caller" validate:"required,len=40,hexadecimal"`
}

func decodePrincipal(s string) (engine.Principal, error) {
	return engine.ParsePrincipal(s)
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

func toPhaseDefinition(dto phaseDefinitionDTO) (engine.PhaseDefinition, error) {
	var phaseType engine.PhaseType
	switch dto.Type {
	case "IMMEDIATE":
		phaseType = engine.PhaseImmediate
	case "COORDINATION":
		phaseType = engine.PhaseCoordination
	case "CONTINUOUS":
		phaseType = engine.PhaseContinuous
	case "CONDITIONAL":
		phaseType = engine.PhaseConditional
	case "AGGREGATION":
		phaseType = engine.PhaseAggregation
	}

	triggerCondition, err := decodeBase64(dto.TriggerCondition)
	if err != nil {
		return engine.PhaseDefinition{}, err
	}
	metadata, err := decodeBase64(dto.Metadata)
	if err != nil {
		return engine.PhaseDefinition{}, err
	}

	deps := dto.Dependencies
	if deps == nil {
		deps = []int{}
	}

	return engine.PhaseDefinition{
		Name:               dto.Name,
		Type:               phaseType,
		Timeout:            secondsToDuration(dto.TimeoutSeconds),
		Dependencies:       deps,
		TriggerCondition:   triggerCondition,
		OperatorSetID:      dto.OperatorSetID,
		Metadata:           metadata,
		RequiredStake:      dto.RequiredStake,
		ConsensusThreshold: dto.ConsensusThreshold,
	}, nil
}
