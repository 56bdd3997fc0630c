/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package score

import (
	"math"

	"github.com/humaidq/baseline/biomarker"
	"github.com/humaidq/baseline/reference"
)

// Standing is the qualitative band a value falls in.
type Standing string

// Standings, best first.
const (
	Optimal      Standing = "Optimal"
	Good         Standing = "Good"
	Average      Standing = "Average"
	BelowAverage Standing = "Below Average"
	Concerning   Standing = "Concerning"
	Unknown      Standing = "No Data"
)

// Assessment is a standing with the percentile it was derived from. The
// percentile is nil when no reference data applied.
type Assessment struct {
	Standing   Standing `json:"standing"`
	Percentile *int     `json:"percentile"`
}

var unknown = Assessment{Standing: Unknown}

// StandingForPercentile maps a percentile (higher is better) to a band.
func StandingForPercentile(pct float64) Standing {
	switch {
	case pct >= 85:
		return Optimal
	case pct >= 65:
		return Good
	case pct >= 35:
		return Average
	case pct >= 15:
		return BelowAverage
	default:
		return Concerning
	}
}

type assessInput struct {
	key    reference.Key
	value  float64
	bucket string
	sex    biomarker.Sex
}

// A strategy answers with an assessment or declines.
type strategy func(in assessInput) (Assessment, bool)

func fixed(standing Standing, pct int) Assessment {
	return Assessment{Standing: standing, Percentile: &pct}
}

// thyroidOverride scores TSH from clinical bands before any population
// data: suppressed TSH is concerning, anything up to 2.5 is optimal.
func thyroidOverride(in assessInput) (Assessment, bool) {
	if in.key != reference.KeyTSH {
		return Assessment{}, false
	}

	switch {
	case in.value < 0.4:
		return fixed(Concerning, 10), true
	case in.value <= 2.5:
		return fixed(Optimal, 90), true
	default:
		return Assessment{}, false
	}
}

func percentileStrategy(curves *reference.Curves) strategy {
	return func(in assessInput) (Assessment, bool) {
		if curves == nil {
			return Assessment{}, false
		}

		pct, ok := curves.Percentile(in.key, in.value, in.bucket, in.sex)
		if !ok {
			return Assessment{}, false
		}

		rounded := int(math.Round(pct))

		return Assessment{Standing: StandingForPercentile(pct), Percentile: &rounded}, true
	}
}

func cutoffStrategy(in assessInput) (Assessment, bool) {
	table, ok := reference.Cutoffs(in.key)
	if !ok {
		return Assessment{}, false
	}

	th, ok := table.Thresholds(in.bucket, in.sex)
	if !ok {
		return Assessment{}, false
	}

	v := in.value
	if table.LowerIsBetter {
		switch {
		case v <= th[0]:
			return fixed(Optimal, 90), true
		case v <= th[1]:
			return fixed(Good, 70), true
		case v <= th[2]:
			return fixed(Average, 50), true
		case v <= th[3]:
			return fixed(BelowAverage, 25), true
		default:
			return fixed(Concerning, 10), true
		}
	}

	switch {
	case v <= th[0]:
		return fixed(Concerning, 10), true
	case v <= th[1]:
		return fixed(BelowAverage, 25), true
	case v <= th[2]:
		return fixed(Average, 50), true
	case v <= th[3]:
		return fixed(Good, 70), true
	default:
		return fixed(Optimal, 90), true
	}
}
