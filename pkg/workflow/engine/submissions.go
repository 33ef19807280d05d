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
	"bytes"
	"context"
	"crypto/sha256"
)

// SubmitCoordinationResponse implements §4.5. A quorum reached during
// this call completes the phase and re-runs the scheduler before
// returning (§5 "each finishing before the next is admitted").
func (e *Engine) SubmitCoordinationResponse(ctx context.Context, caller Principal, id ExecutionID, phaseIndex int, response []byte) error {
	return e.store.WithExecution(id, func(exec *WorkflowExecution) error {
		if exec.IsComplete {
			return errFailedPrecondition("submit_coordination_response", string(id), nil)
		}
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("submit_coordination_response", "phase_index", nil)
		}
		if exec.PhaseStatuses[phaseIndex] != StatusActive {
			return errFailedPrecondition("submit_coordination_response", "phase_not_active", nil)
		}
		cs, ok := exec.Coordination[phaseIndex]
		if !ok {
			return errFailedPrecondition("submit_coordination_response", "not_a_coordination_phase", nil)
		}
		if cs.Responded.Contains(caller) {
			return errAlreadyResponded("submit_coordination_response", caller.String())
		}
		if cs.Received >= cs.RequiredResponses {
			return newError(CodeFailedPrecondition, "submit_coordination_response", "quorum_already_met", nil)
		}

		cs.Responded.Add(caller)
		cs.ResponseOrder = append(cs.ResponseOrder, caller)
		cs.Responses[caller] = response
		cs.Received++

		e.events.Emit(executionEvent(EventCoordinationResponse, e.now(), exec.ID, phaseIndex, map[string]interface{}{
			"responder": caller.String(),
			"received":  cs.Received,
			"required":  cs.RequiredResponses,
		}))

		if cs.Received >= cs.RequiredResponses {
			def, err := e.registry.GetWorkflow(exec.WorkflowID)
			if err != nil {
				return err
			}
			e.completePhaseLocked(ctx, def, exec, phaseIndex, aggregateCoordinationResponses(cs))
		}
		return nil
	})
}

// aggregateCoordinationResponses implements the reference design's
// documented-as-unspecified aggregation (§9): deterministic, order-
// preserving concatenation of each responder's bytes in submission
// order, length-prefixed per entry so the blob is splittable.
func aggregateCoordinationResponses(cs *CoordinationState) []byte {
	var out []byte
	for _, p := range cs.ResponseOrder {
		out = append(out, encodeLenPrefixed(cs.Responses[p])...)
	}
	return out
}

// SubmitMonitoringUpdate implements §4.5.
func (e *Engine) SubmitMonitoringUpdate(ctx context.Context, caller Principal, id ExecutionID, phaseIndex int, update []byte) error {
	return e.store.WithExecution(id, func(exec *WorkflowExecution) error {
		if exec.IsComplete {
			return errFailedPrecondition("submit_monitoring_update", string(id), nil)
		}
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("submit_monitoring_update", "phase_index", nil)
		}
		if exec.PhaseStatuses[phaseIndex] != StatusActive {
			return errFailedPrecondition("submit_monitoring_update", "phase_not_active", nil)
		}
		ms, ok := exec.Continuous[phaseIndex]
		if !ok {
			return errFailedPrecondition("submit_monitoring_update", "not_a_continuous_phase", nil)
		}

		now := e.now()
		if last, ok := ms.LastUpdateByOp[caller]; ok && now.Before(last.Add(ms.UpdateInterval)) {
			return newError(CodeFailedPrecondition, "submit_monitoring_update", "update_too_frequent", nil)
		}

		ms.LastUpdateByOp[caller] = now
		ms.ReceivedUpdates++
		ms.Log = append(ms.Log, MonitoringUpdate{Operator: caller, Data: update, Timestamp: now})

		e.events.Emit(executionEvent(EventMonitoringUpdate, now, exec.ID, phaseIndex, map[string]interface{}{
			"operator": caller.String(),
			"received": ms.ReceivedUpdates,
			"required": ms.RequiredUpdates,
		}))

		if ms.ReceivedUpdates >= ms.RequiredUpdates {
			def, err := e.registry.GetWorkflow(exec.WorkflowID)
			if err != nil {
				return err
			}
			e.completePhaseLocked(ctx, def, exec, phaseIndex, encodeMonitoringLog(ms.Log))
		}
		return nil
	})
}

func encodeMonitoringLog(log []MonitoringUpdate) []byte {
	var out []byte
	for _, u := range log {
		out = append(out, u.Operator[:]...)
		out = append(out, encodeLenPrefixed(u.Data)...)
	}
	return out
}

// TriggerConditionalPhase implements §4.5: decode and evaluate the stored
// condition against trigger_data, and on success complete the phase with
// trigger_data as the result.
func (e *Engine) TriggerConditionalPhase(ctx context.Context, caller Principal, id ExecutionID, phaseIndex int, triggerData []byte) error {
	return e.store.WithExecution(id, func(exec *WorkflowExecution) error {
		if exec.IsComplete {
			return errFailedPrecondition("trigger_conditional_phase", string(id), nil)
		}
		if phaseIndex < 0 || phaseIndex >= len(exec.PhaseStatuses) {
			return errInvalidArgument("trigger_conditional_phase", "phase_index", nil)
		}

		def, err := e.registry.GetWorkflow(exec.WorkflowID)
		if err != nil {
			return err
		}
		if !CanTrigger(e.authorizer, def, caller) {
			return errUnauthorized("trigger_conditional_phase", caller.String())
		}

		ct, ok := exec.Conditional[phaseIndex]
		if !ok {
			return errFailedPrecondition("trigger_conditional_phase", "no_trigger_record", nil)
		}
		if ct.Triggered {
			return newError(CodeFailedPrecondition, "trigger_conditional_phase", "already_triggered", nil)
		}
		if exec.PhaseStatuses[phaseIndex] != StatusConditionalWaiting {
			return errFailedPrecondition("trigger_conditional_phase", "phase_not_waiting", nil)
		}

		tc, err := DecodeTriggerCondition(ct.Condition)
		if err != nil {
			return err
		}

		ok, err = evaluateTriggerCondition(tc, triggerData, e.now())
		if err != nil {
			return err
		}
		if !ok {
			return errInvalidTriggerCondition("trigger_conditional_phase", string(id))
		}

		now := e.now()
		ct.Triggered = true
		ct.TriggerTime = now
		ct.Source = caller
		ct.Data = triggerData

		e.events.Emit(executionEvent(EventConditionalActivated, now, exec.ID, phaseIndex, map[string]interface{}{
			"source": caller.String(),
		}))

		e.completePhaseLocked(ctx, def, exec, phaseIndex, triggerData)
		return nil
	})
}

// evaluateTriggerCondition implements the per-type validation rules of
// §4.5. MULTI_SIG is left unimplemented per the open question in §9: it
// always evaluates to false with a nil error, so callers see the same
// InvalidTriggerCondition as for any unmet condition, never a success.
func evaluateTriggerCondition(tc TriggerCondition, triggerData []byte, now interface{ Unix() int64 }) (bool, error) {
	switch tc.Type {
	case ConditionNone:
		return true, nil
	case ConditionPriceThreshold:
		price, ok := decodeUint64(triggerData)
		if !ok {
			return false, nil
		}
		if tc.IsGreater {
			return price >= tc.PriceThreshold, nil
		}
		return price <= tc.PriceThreshold, nil
	case ConditionTimeThreshold:
		return now.Unix() >= tc.TargetTime.Unix(), nil
	case ConditionDataHash:
		sum := sha256.Sum256(triggerData)
		return bytes.Equal(sum[:], tc.ExpectedHash[:]), nil
	case ConditionOracleValue:
		actual, ok := decodeUint64(triggerData)
		if !ok {
			return false, nil
		}
		return saturatingAbsDiff(actual, tc.ExpectedValue) <= tc.Tolerance, nil
	case ConditionMultiSig:
		return false, nil
	default:
		return false, nil
	}
}

func decodeUint64(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, true
}

// saturatingAbsDiff avoids underflow on unsigned subtraction (§4.5
// ORACLE_VALUE: "saturating subtraction").
func saturatingAbsDiff(a, b uint64) uint64 {
	if a >= b {
		return a - b
	}
	return b - a
}
