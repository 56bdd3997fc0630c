/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reference

import "errors"

var (
	errNoPercentilePoints  = errors.New("percentile_points must not be empty")
	errCurveLengthMismatch = errors.New("curve length does not match percentile_points")
	errCurveNotAscending   = errors.New("curve values must be ascending")
)
