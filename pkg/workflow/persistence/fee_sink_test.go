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
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestFeeSinkTransferRecordsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := NewFeeSink(sqlx.NewDb(db, "sqlmock"))
	from := testPrincipal(0x05)

	mock.ExpectExec("INSERT INTO fee_transfers").
		WithArgs(from[:], uint64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.Transfer(context.Background(), from, 100); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestFeeSinkTransferWrapsDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := NewFeeSink(sqlx.NewDb(db, "sqlmock"))
	from := testPrincipal(0x06)

	mock.ExpectExec("INSERT INTO fee_transfers").
		WillReturnError(errors.New("connection reset"))

	if err := sink.Transfer(context.Background(), from, 50); err == nil {
		t.Fatal("expected an error from a failing transfer")
	}
}
