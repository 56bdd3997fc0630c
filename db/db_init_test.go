// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"
)

func TestInitRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	if err := Init(context.Background(), ""); !errors.Is(err, ErrDatabaseURLNotSet) {
		t.Fatalf("expected ErrDatabaseURLNotSet, got %v", err)
	}
}

func TestSyncSchema(t *testing.T) {
	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	searchPathURL, err := withSearchPath(baseURL, testSchemaName)
	if err != nil {
		t.Fatalf("withSearchPath failed: %v", err)
	}

	if err := SyncSchema(context.Background(), searchPathURL); err != nil {
		t.Fatalf("SyncSchema failed: %v", err)
	}
}

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	store, closeStore, err := Open(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer closeStore()

	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestEmbeddedMigrationsCreateStoreTables(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(GetEmbeddedMigrations(), MigrationsDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	var ddl strings.Builder

	for _, e := range entries {
		data, err := fs.ReadFile(GetEmbeddedMigrations(), MigrationsDir+"/"+e.Name())
		if err != nil {
			t.Fatalf("ReadFile %s failed: %v", e.Name(), err)
		}

		ddl.Write(data)
	}

	for _, table := range []string{"profile", "imports", "observations", "extraction_log"} {
		if !strings.Contains(ddl.String(), "CREATE TABLE "+table+" (") {
			t.Fatalf("expected migrations to create %s", table)
		}
	}
}
