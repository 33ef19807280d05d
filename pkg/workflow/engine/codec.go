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

// This file is the typed decoding layer for the opaque bytes callers hand
// the core for trigger conditions and CONTINUOUS metadata, turning them
// into tagged variants. The decoded values are not stored: CONTINUOUS
// metadata is decoded at registration (to validate it) and again at
// dispatch, and a trigger condition is decoded each time a trigger is
// evaluated.
package engine

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ConditionType tags how a CONDITIONAL phase's trigger is evaluated.
type ConditionType byte

const (
	ConditionNone ConditionType = iota
	ConditionPriceThreshold
	ConditionTimeThreshold
	ConditionDataHash
	ConditionOracleValue
	ConditionMultiSig
)

// TriggerCondition is the decoded form of PhaseDefinition.TriggerCondition.
type TriggerCondition struct {
	Type ConditionType

	// PRICE_THRESHOLD
	PriceThreshold uint64
	IsGreater      bool

	// TIME_THRESHOLD
	TargetTime time.Time

	// DATA_HASH
	ExpectedHash [32]byte

	// ORACLE_VALUE
	ExpectedValue uint64
	Tolerance     uint64
}

// Wire layout: [0]=type tag, rest depends on type.
//
//	NONE:             (no payload)
//	PRICE_THRESHOLD:  8 bytes threshold (BE) | 1 byte is_greater (0/1)
//	TIME_THRESHOLD:   8 bytes unix-nano target time (BE)
//	DATA_HASH:        32 bytes expected hash
//	ORACLE_VALUE:     8 bytes expected (BE) | 8 bytes tolerance (BE)
//	MULTI_SIG:        unspecified; decodes but rejected at evaluation time
func DecodeTriggerCondition(raw []byte) (TriggerCondition, error) {
	var tc TriggerCondition
	if len(raw) < 1 {
		return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("empty"))
	}
	tc.Type = ConditionType(raw[0])
	body := raw[1:]

	switch tc.Type {
	case ConditionNone:
		return tc, nil
	case ConditionPriceThreshold:
		if len(body) < 9 {
			return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("short PRICE_THRESHOLD payload"))
		}
		tc.PriceThreshold = binary.BigEndian.Uint64(body[0:8])
		tc.IsGreater = body[8] != 0
		return tc, nil
	case ConditionTimeThreshold:
		if len(body) < 8 {
			return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("short TIME_THRESHOLD payload"))
		}
		tc.TargetTime = time.Unix(0, int64(binary.BigEndian.Uint64(body[0:8])))
		return tc, nil
	case ConditionDataHash:
		if len(body) < 32 {
			return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("short DATA_HASH payload"))
		}
		copy(tc.ExpectedHash[:], body[0:32])
		return tc, nil
	case ConditionOracleValue:
		if len(body) < 16 {
			return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("short ORACLE_VALUE payload"))
		}
		tc.ExpectedValue = binary.BigEndian.Uint64(body[0:8])
		tc.Tolerance = binary.BigEndian.Uint64(body[8:16])
		return tc, nil
	case ConditionMultiSig:
		return tc, nil
	default:
		return tc, errInvalidArgument("decode_trigger_condition", "trigger_condition", fmt.Errorf("unknown condition type %d", raw[0]))
	}
}

// EncodePriceThresholdCondition builds the wire bytes for a PRICE_THRESHOLD
// trigger condition, exported for callers (admin tooling, tests) that
// construct phase definitions programmatically.
func EncodePriceThresholdCondition(threshold uint64, isGreater bool) []byte {
	buf := make([]byte, 10)
	buf[0] = byte(ConditionPriceThreshold)
	binary.BigEndian.PutUint64(buf[1:9], threshold)
	if isGreater {
		buf[9] = 1
	}
	return buf
}

// EncodeTimeThresholdCondition builds the wire bytes for a TIME_THRESHOLD
// trigger condition.
func EncodeTimeThresholdCondition(target time.Time) []byte {
	buf := make([]byte, 9)
	buf[0] = byte(ConditionTimeThreshold)
	binary.BigEndian.PutUint64(buf[1:9], uint64(target.UnixNano()))
	return buf
}

// EncodeDataHashCondition builds the wire bytes for a DATA_HASH trigger
// condition.
func EncodeDataHashCondition(expectedHash [32]byte) []byte {
	buf := make([]byte, 33)
	buf[0] = byte(ConditionDataHash)
	copy(buf[1:], expectedHash[:])
	return buf
}

// EncodeOracleValueCondition builds the wire bytes for an ORACLE_VALUE
// trigger condition.
func EncodeOracleValueCondition(expected, tolerance uint64) []byte {
	buf := make([]byte, 17)
	buf[0] = byte(ConditionOracleValue)
	binary.BigEndian.PutUint64(buf[1:9], expected)
	binary.BigEndian.PutUint64(buf[9:17], tolerance)
	return buf
}

// EncodeNoneCondition builds the wire bytes for an always-true condition.
func EncodeNoneCondition() []byte {
	return []byte{byte(ConditionNone)}
}

// ContinuousMetadata is the decoded form of a CONTINUOUS phase's
// PhaseDefinition.Metadata.
type ContinuousMetadata struct {
	UpdateInterval  time.Duration
	RequiredUpdates int
}

// Wire layout: 8 bytes update_interval_secs (BE) | 4 bytes required_updates (BE).
func DecodeContinuousMetadata(raw []byte) (ContinuousMetadata, error) {
	var m ContinuousMetadata
	if len(raw) < 12 {
		return m, errInvalidArgument("decode_continuous_metadata", "metadata", fmt.Errorf("short payload: want 12 bytes, got %d", len(raw)))
	}
	secs := binary.BigEndian.Uint64(raw[0:8])
	required := binary.BigEndian.Uint32(raw[8:12])
	m.UpdateInterval = time.Duration(secs) * time.Second
	m.RequiredUpdates = int(required)
	return m, nil
}

// EncodeContinuousMetadata builds the wire bytes for a CONTINUOUS phase's
// metadata field.
func EncodeContinuousMetadata(updateInterval time.Duration, requiredUpdates int) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], uint64(updateInterval/time.Second))
	binary.BigEndian.PutUint32(buf[8:12], uint32(requiredUpdates))
	return buf
}
