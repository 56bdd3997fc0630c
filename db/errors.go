/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"errors"
	"fmt"
)

var (
	ErrDatabaseURLNotSet                = errors.New("database url is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in connection string")
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrUnsupportedSchemaVersion         = errors.New("unsupported schema version")
	ErrInvalidBackup                    = errors.New("invalid backup")
	ErrUnknownStoreKind                 = errors.New("unknown store kind")
)

// SchemaVersionError reports a backup written by an incompatible version.
// It matches ErrUnsupportedSchemaVersion.
type SchemaVersionError struct {
	Got  string
	Want int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("unsupported schema version: %s (expected %d)", e.Got, e.Want)
}

func (e *SchemaVersionError) Is(target error) bool {
	return target == ErrUnsupportedSchemaVersion
}
