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

package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	wferrors "github.com/jordigilh/workflowengine/pkg/shared/errors"
	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
)

// FeeSink implements engine.FeeSink by recording every transfer as a row;
// the core is write-only against it (§5 "Shared-resource policy"), so
// there is no balance read path here by design.
type FeeSink struct {
	db *sqlx.DB
}

func NewFeeSink(db *sqlx.DB) *FeeSink {
	return &FeeSink{db: db}
}

// Transfer implements engine.FeeSink.
func (s *FeeSink) Transfer(ctx context.Context, from engine.Principal, amount uint64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fee_transfers (principal, amount) VALUES ($1, $2)`,
		from[:], amount)
	if err != nil {
		return wferrors.DatabaseError("transfer", err)
	}
	return nil
}
