// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/humaidq/baseline/biomarker"
)

func TestPostgresStoreContract(t *testing.T) {
	if pool == nil {
		t.Skip("DATABASE_URL not set")
	}

	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()
		resetDatabase(t)

		return NewPostgresStore(pool)
	})
}

func TestPostgresStoreWithoutPool(t *testing.T) {
	t.Parallel()

	store := NewPostgresStore(nil)

	if _, err := store.Latest(context.Background(), biomarker.LDL); !errors.Is(err, ErrDatabaseConnectionNotInitialized) {
		t.Fatalf("expected ErrDatabaseConnectionNotInitialized, got %v", err)
	}

	if _, err := store.Append(context.Background(), []biomarker.Observation{{Metric: biomarker.LDL, Value: 100}}); !errors.Is(err, ErrDatabaseConnectionNotInitialized) {
		t.Fatalf("expected ErrDatabaseConnectionNotInitialized, got %v", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	t.Parallel()

	if _, _, err := Open(context.Background(), Options{Kind: "sqlite"}); !errors.Is(err, ErrUnknownStoreKind) {
		t.Fatalf("expected ErrUnknownStoreKind, got %v", err)
	}
}
