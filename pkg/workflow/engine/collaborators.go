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
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// TaskRequest is what the IMMEDIATE executor hands to the external task
// mailbox.
type TaskRequest struct {
	RefundCollector Principal
	AVSFee          uint64
	SelfIdentity    Principal
	OperatorSetID   string
	Payload         []byte
}

// TaskHandle is the opaque identifier the mailbox returns for a created
// task; the IMMEDIATE executor stores it verbatim as the phase result.
type TaskHandle []byte

// TaskMailbox is the downstream task dispatcher consumed by the IMMEDIATE
// executor. It is an external collaborator (spec §6) and is never
// implemented by the core itself; pkg/workflow/mailbox provides a NATS-
// backed adapter, and InMemoryTaskMailbox below is for tests.
type TaskMailbox interface {
	CreateTask(ctx context.Context, req TaskRequest) (TaskHandle, error)
}

// OperatorRegistry answers the COORDINATION executor's question of how
// many operators belong to an operator set. pkg/workflow/registry/
// redisregistry provides a Redis-backed adapter with a circuit breaker;
// InMemoryOperatorRegistry below is for tests.
type OperatorRegistry interface {
	OperatorCount(ctx context.Context, operatorSetID string) (int, error)
}

// FeeSink receives creation and execution fees. The core is write-only
// against it: it forwards an amount and never reads balance.
type FeeSink interface {
	Transfer(ctx context.Context, from Principal, amount uint64) error
}

// fallbackOperatorCount is used when the registry is unavailable, per the
// reference design's documented fallback (spec §4.4 COORDINATION).
const fallbackOperatorCount = 5

// InMemoryTaskMailbox is a deterministic, in-process TaskMailbox for tests:
// the handle is the hex SHA-256 of the request payload, self identity and
// operator set ID, followed by ":" and a sequence number, so repeated runs
// over identical submission sequences are byte-identical (P9).
type InMemoryTaskMailbox struct {
	mu  sync.Mutex
	seq uint64
}

func NewInMemoryTaskMailbox() *InMemoryTaskMailbox {
	return &InMemoryTaskMailbox{}
}

func (m *InMemoryTaskMailbox) CreateTask(_ context.Context, req TaskRequest) (TaskHandle, error) {
	m.mu.Lock()
	seq := m.seq
	m.seq++
	m.mu.Unlock()

	h := sha256.New()
	h.Write(req.Payload)
	h.Write(req.SelfIdentity[:])
	h.Write([]byte(req.OperatorSetID))
	sum := h.Sum(nil)
	return TaskHandle(hex.EncodeToString(sum) + ":" + itoa(seq)), nil
}

// InMemoryOperatorRegistry is a fixed-roster OperatorRegistry for tests.
type InMemoryOperatorRegistry struct {
	mu      sync.RWMutex
	counts  map[string]int
}

func NewInMemoryOperatorRegistry() *InMemoryOperatorRegistry {
	return &InMemoryOperatorRegistry{counts: make(map[string]int)}
}

func (r *InMemoryOperatorRegistry) SetOperatorCount(operatorSetID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[operatorSetID] = n
}

func (r *InMemoryOperatorRegistry) OperatorCount(_ context.Context, operatorSetID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.counts[operatorSetID]
	if !ok {
		return fallbackOperatorCount, nil
	}
	return n, nil
}

// InMemoryFeeSink records every transfer for tests; it never rejects a
// transfer (fee sufficiency is checked by the caller against the
// configured fee schedule, not by the sink).
type InMemoryFeeSink struct {
	mu        sync.Mutex
	Transfers []FeeTransfer
}

// FeeTransfer is one recorded call to InMemoryFeeSink.Transfer.
type FeeTransfer struct {
	From   Principal
	Amount uint64
}

func NewInMemoryFeeSink() *InMemoryFeeSink {
	return &InMemoryFeeSink{}
}

func (s *InMemoryFeeSink) Transfer(_ context.Context, from Principal, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transfers = append(s.Transfers, FeeTransfer{From: from, Amount: amount})
	return nil
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
