// Package kpimath holds the pure arithmetic shared by the rollup engines:
// safe percentage derivation, target-compliance classification and duration
// averaging/formatting.
package kpimath

import (
	"fmt"
	"math"

	"deskpulserest/internal/models/dto"
)

// SafeRate derives a percentage from a count pair. A non-positive
// denominator yields the not-applicable rate. Percentages over 100 are
// display artifacts of overlapping count definitions and are clamped, never
// reported.
func SafeRate(numerator, denominator int) dto.Rate {
	if denominator <= 0 {
		return dto.RateNA
	}
	pct := int(math.Round(float64(numerator) / float64(denominator) * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return dto.PercentRate(pct)
}

// Classify grades a metric value against its catalog target. Unknown keys
// and not-applicable values grade "na". The tolerance bands are a fixed
// business rule: 10% under target for higher-is-better metrics, 15% over
// target for lower-is-better metrics.
func Classify(key string, value float64, valid bool) dto.MetricStatus {
	target, ok := Targets[key]
	if !ok || !valid {
		return dto.StatusNA
	}

	switch target.Comparison {
	case CompareGTE, CompareGT:
		met := value >= target.Value
		if target.Comparison == CompareGT {
			met = value > target.Value
		}
		if met {
			return dto.StatusMet
		}
		if value >= 0.9*target.Value {
			return dto.StatusWarn
		}
		return dto.StatusMiss

	case CompareLTE, CompareLT:
		met := value <= target.Value
		if target.Comparison == CompareLT {
			met = value < target.Value
		}
		if met {
			return dto.StatusMet
		}
		if value <= 1.15*target.Value {
			return dto.StatusWarn
		}
		return dto.StatusMiss
	}

	return dto.StatusNA
}

// ClassifyRate grades a derived rate.
func ClassifyRate(key string, rate dto.Rate) dto.MetricStatus {
	return Classify(key, float64(rate.Value), rate.Valid)
}

// AverageDuration averages raw duration samples and formats the result.
// Samples are assumed to be minutes; a mean above 1000 indicates the source
// field is actually in seconds and is divided down. Returns "N/A" when no
// samples are present.
func AverageDuration(samples []float64) string {
	if len(samples) == 0 {
		return "N/A"
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(len(samples))
	if mean > 1000 {
		mean /= 60
	}

	return FormatMinutes(mean)
}

// AverageDeltaMinutes averages resolved-minus-created fallback deltas given
// in minutes, discarding data-quality outliers outside [0, one week).
// Results under an hour format as minutes, longer ones as hours with one
// decimal.
func AverageDeltaMinutes(deltas []float64) string {
	const weekMinutes = 168 * 60

	var sum float64
	var n int
	for _, d := range deltas {
		if d < 0 || d >= weekMinutes {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return "N/A"
	}

	mean := sum / float64(n)
	if mean < 60 {
		return fmt.Sprintf("%d min", int(math.Round(mean)))
	}
	return fmt.Sprintf("%.1fh", mean/60)
}

// FormatMinutes renders a mean duration in minutes as "{m} min" under an
// hour, "{h}h {m}m" otherwise.
func FormatMinutes(mean float64) string {
	total := int(math.Round(mean))
	if total < 60 {
		return fmt.Sprintf("%d min", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
