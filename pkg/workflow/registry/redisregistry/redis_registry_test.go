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

package redisregistry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jordigilh/workflowengine/pkg/orchestration/dependency"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, 0.5, 100*time.Millisecond), mr
}

func TestSetAndGetOperatorCount(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.SetOperatorCount(ctx, "ops-1", 7); err != nil {
		t.Fatalf("set: %v", err)
	}

	n, err := reg.OperatorCount(ctx, "ops-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestOperatorCountMissingKeyIsError(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.OperatorCount(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error for a missing operator set key")
	}
}

func TestOperatorCountTripsCircuitBreakerWhenRedisDown(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.SetOperatorCount(ctx, "ops-1", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.Close()

	var lastErr error
	for i := 0; i < 10; i++ {
		_, lastErr = reg.OperatorCount(ctx, "ops-1")
	}
	if lastErr == nil {
		t.Fatal("expected lookups against a closed redis to fail")
	}
	if reg.State() != dependency.CircuitStateOpen {
		t.Fatalf("expected breaker to trip open after repeated failures, got %s", reg.State())
	}
}
