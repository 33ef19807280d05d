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

// Package redisregistry adapts the engine's external operator registry
// collaborator (pkg/workflow/engine.OperatorRegistry) onto Redis: each
// operator set's roster size is cached under key "opset:{id}:count",
// refreshed by whatever external process manages operator membership.
// Lookups are protected by a circuit breaker so a degraded Redis cannot
// stall COORDINATION phase dispatch; the engine's own fallback-of-5
// applies above this adapter when OperatorCount returns an error.
package redisregistry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordigilh/workflowengine/pkg/orchestration/dependency"
)

const keyPrefix = "opset:"

// Registry implements engine.OperatorRegistry over Redis.
type Registry struct {
	client  *redis.Client
	breaker *dependency.CircuitBreaker
}

// New builds a Registry. failureThreshold/resetTimeout tune the circuit
// breaker guarding every Redis call.
func New(client *redis.Client, failureThreshold float64, resetTimeout time.Duration) *Registry {
	return &Registry{
		client:  client,
		breaker: dependency.NewCircuitBreaker("operator-registry-redis", failureThreshold, resetTimeout),
	}
}

// OperatorCount implements engine.OperatorRegistry.
func (r *Registry) OperatorCount(ctx context.Context, operatorSetID string) (int, error) {
	var n int
	err := r.breaker.Call(func() error {
		v, err := r.client.Get(ctx, keyPrefix+operatorSetID+":count").Int()
		if err != nil {
			return err
		}
		n = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis operator registry lookup for %q: %w", operatorSetID, err)
	}
	return n, nil
}

// SetOperatorCount lets the external membership manager publish a
// roster size for an operator set.
func (r *Registry) SetOperatorCount(ctx context.Context, operatorSetID string, n int) error {
	return r.client.Set(ctx, keyPrefix+operatorSetID+":count", n, 0).Err()
}

// State exposes the circuit breaker's current state for health checks.
func (r *Registry) State() dependency.CircuitState {
	return r.breaker.GetState()
}
