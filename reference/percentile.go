/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reference

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/logging"
)

var logger = logging.Logger(logging.SourceScore)

//go:embed data/percentiles.yaml
var embeddedCurves []byte

// Key names a reference or cutoff table. Keys differ from metric keys
// where a table is shared or named after a derived quantity (e.g. "rhr"
// for resting_hr).
type Key string

// UniversalGroup is the fallback group used when no age/sex group exists.
const UniversalGroup = "universal"

// Curve is a population distribution for one metric.
type Curve struct {
	LowerIsBetter bool
	Source        string
	// Groups maps "<bucket>|<sex>" or "universal" to values aligned with
	// the table's percentile points.
	Groups map[string][]float64
}

// Curves holds parsed percentile curves.
type Curves struct {
	points []float64
	curves map[Key]Curve
}

type curveFile struct {
	PercentilePoints []float64 `yaml:"percentile_points"`
	Metrics          map[string]struct {
		LowerIsBetter bool                 `yaml:"lower_is_better"`
		Source        string               `yaml:"source"`
		Groups        map[string][]float64 `yaml:"groups"`
	} `yaml:"metrics"`
}

// ParseCurves parses and validates a YAML percentile document.
func ParseCurves(data []byte) (*Curves, error) {
	var raw curveFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse percentile curves: %w", err)
	}

	if len(raw.PercentilePoints) == 0 {
		return nil, errNoPercentilePoints
	}

	if !sort.Float64sAreSorted(raw.PercentilePoints) {
		return nil, fmt.Errorf("percentile_points: %w", errCurveNotAscending)
	}

	c := &Curves{
		points: raw.PercentilePoints,
		curves: make(map[Key]Curve, len(raw.Metrics)),
	}

	for key, m := range raw.Metrics {
		for group, values := range m.Groups {
			if len(values) != len(raw.PercentilePoints) {
				return nil, fmt.Errorf("%s/%s: %w", key, group, errCurveLengthMismatch)
			}
			if !sort.Float64sAreSorted(values) {
				return nil, fmt.Errorf("%s/%s: %w", key, group, errCurveNotAscending)
			}
		}

		c.curves[Key(key)] = Curve{
			LowerIsBetter: m.LowerIsBetter,
			Source:        m.Source,
			Groups:        m.Groups,
		}
	}

	return c, nil
}

var (
	defaultOnce   sync.Once
	defaultCurves *Curves
)

// DefaultCurves returns the embedded population curves. If the embedded
// document is invalid the result is empty and every lookup misses, which
// pushes scoring onto the cutoff tables.
func DefaultCurves() *Curves {
	defaultOnce.Do(func() {
		c, err := ParseCurves(embeddedCurves)
		if err != nil {
			logger.Error("Failed to load embedded percentile curves", "error", err)
			c = &Curves{curves: map[Key]Curve{}}
		}
		defaultCurves = c
	})

	return defaultCurves
}

// Has reports whether a curve exists for the key.
func (c *Curves) Has(key Key) bool {
	if c == nil {
		return false
	}

	_, ok := c.curves[key]

	return ok
}

// Points returns the percentile points the curves are tabulated at.
func (c *Curves) Points() []float64 {
	out := make([]float64, len(c.points))
	copy(out, c.points)

	return out
}

// Curve returns the curve for a key.
func (c *Curves) Curve(key Key) (Curve, bool) {
	if c == nil {
		return Curve{}, false
	}

	curve, ok := c.curves[key]

	return curve, ok
}

// Percentile returns the population percentile of value, oriented so
// that higher always means better standing. The result lies in [1,99]
// and is rounded to one decimal. ok is false when the metric or a usable
// group is missing.
func (c *Curves) Percentile(key Key, value float64, bucket string, sex biomarker.Sex) (pct float64, ok bool) {
	curve, found := c.Curve(key)
	if !found {
		return 0, false
	}

	values, found := curve.Groups[bucket+"|"+string(sex)]
	if !found {
		values, found = curve.Groups[UniversalGroup]
	}
	if !found || len(values) == 0 {
		return 0, false
	}

	raw := linearInterp(value, values, c.points)
	raw = math.Max(1, math.Min(99, raw))

	if curve.LowerIsBetter {
		return round1(100 - raw), true
	}

	return round1(raw), true
}

// linearInterp interpolates y at x over ascending xp.
func linearInterp(x float64, xp, fp []float64) float64 {
	if x <= xp[0] {
		return fp[0]
	}

	last := len(xp) - 1
	if x >= xp[last] {
		return fp[last]
	}

	for i := 1; i < len(xp); i++ {
		if x <= xp[i] {
			t := (x - xp[i-1]) / (xp[i] - xp[i-1])
			return fp[i-1] + t*(fp[i]-fp[i-1])
		}
	}

	return fp[last]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
