/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package intake

import "errors"

var (
	ErrStoreNotConfigured = errors.New("intake store is not configured")
	// ErrPartialImport means observations were stored but the import
	// record was not.
	ErrPartialImport = errors.New("observations stored without import record")
)
