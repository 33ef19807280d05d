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
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// deriveWorkflowID hashes the registration inputs into a stable,
// content-addressed identifier: identical (name, creator, creationTime,
// nonce) always yields the same WorkflowID, and any change to one of them
// changes it.
func deriveWorkflowID(name string, creator Principal, creationTime time.Time, nonce uint64) WorkflowID {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write(creator[:])
	writeTime(h, creationTime)
	writeUint64(h, nonce)
	return WorkflowID(hex.EncodeToString(h.Sum(nil)))
}

// deriveExecutionID hashes the submission inputs into a stable,
// content-addressed identifier for a single workflow execution.
func deriveExecutionID(workflowID WorkflowID, initiator Principal, timestamp time.Time, nonce uint64) ExecutionID {
	h := sha256.New()
	h.Write([]byte(workflowID))
	h.Write(initiator[:])
	writeTime(h, timestamp)
	writeUint64(h, nonce)
	return ExecutionID(hex.EncodeToString(h.Sum(nil)))
}

func writeTime(h interface{ Write([]byte) (int, error) }, t time.Time) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(t.UnixNano()))
	h.Write(buf[:])
}

func writeUint64(h interface{ Write([]byte) (int, error) }, n uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	h.Write(buf[:])
}
