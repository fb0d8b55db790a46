// Package rates turns fat-percentage readings into prices and collection
// amounts.
//
// Two resolution paths exist on purpose. ResolveExact is the only one allowed
// for collections that get persisted: every fat percentage used in a real
// transaction must have its own configured rate. ResolveInterpolated is a
// lenient helper for previews and reports and must never feed a submission.
package rates

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

// ManualEditTolerance is the largest difference between a submitted amount and
// liters*rate that still counts as auto-computed. It absorbs the noise of the
// two-decimal form round trip and must not be tightened.
const ManualEditTolerance = 0.01

// ErrRateNotFound is returned when no rate is configured for a fat percentage.
var ErrRateNotFound = errors.New("fat rate not found")

// RateNotFoundError carries the fat percentage that had no configured rate.
type RateNotFoundError struct {
	FatPercentage float64
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("Fat rate not available for %s%%. Please configure this exact fat rate first.", FormatFat(e.FatPercentage))
}

// Is lets errors.Is match ErrRateNotFound.
func (e *RateNotFoundError) Is(target error) bool {
	return target == ErrRateNotFound
}

// ResolveExact returns the configured rate for exactly fat. Decimal rates are
// returned untouched.
func ResolveExact(fat float64, table models.RateTable) (float64, error) {
	if entry, ok := table.Find(fat); ok {
		return entry.Rate, nil
	}
	return 0, &RateNotFoundError{FatPercentage: fat}
}

// ResolveInterpolated estimates a rate for fat: exact entries win, readings
// outside the table clamp to the nearest end, and anything in between is
// linearly interpolated and rounded to a whole number. An empty table yields 0.
func ResolveInterpolated(fat float64, table models.RateTable) float64 {
	if len(table) == 0 {
		return 0
	}
	if entry, ok := table.Find(fat); ok {
		return entry.Rate
	}

	sorted := table.Sorted()
	lowest, highest := sorted[0], sorted[len(sorted)-1]
	if fat <= lowest.FatPercentage {
		return lowest.Rate
	}
	if fat >= highest.FatPercentage {
		return highest.Rate
	}

	for i := 0; i < len(sorted)-1; i++ {
		lower, upper := sorted[i], sorted[i+1]
		if fat >= lower.FatPercentage && fat <= upper.FatPercentage {
			ratio := (fat - lower.FatPercentage) / (upper.FatPercentage - lower.FatPercentage)
			return math.Round(lower.Rate + (upper.Rate-lower.Rate)*ratio)
		}
	}

	return lowest.Rate
}

// ComputeAmount is liters*rate without rounding.
func ComputeAmount(liters, rate float64) float64 {
	return liters * rate
}

// DetectManualEdit reports whether submitted deviates from liters*rate by more
// than ManualEditTolerance. Retyping the computed value counts as auto.
func DetectManualEdit(submitted, liters, rate float64) bool {
	return math.Abs(submitted-ComputeAmount(liters, rate)) > ManualEditTolerance
}

// Preview is what the entry form shows while the operator types. Estimate is
// the interpolated rate and is only a hint; submission needs Available.
type Preview struct {
	Rate           float64    `json:"rate"`
	Estimate       float64    `json:"estimate"`
	Amount         float64    `json:"amount"`
	Mode           AmountMode `json:"mode"`
	ManuallyEdited bool       `json:"isManuallyEdited"`
	Available      bool       `json:"available"`
	Message        string     `json:"message,omitempty"`
}

// PreviewCollection prices a reading with the exact rate only. A missing rate
// previews as zero and carries the blocking message.
func PreviewCollection(liters, fat float64, table models.RateTable) Preview {
	p := Preview{Estimate: ResolveInterpolated(fat, table), Mode: ModeAuto}
	rate, err := ResolveExact(fat, table)
	if err != nil {
		p.Message = err.Error()
		return p
	}
	p.Rate, p.Amount, p.Available = rate, ComputeAmount(liters, rate), true
	return p
}

// FormatFat renders a fat percentage the way operators type it.
func FormatFat(fat float64) string {
	return strconv.FormatFloat(fat, 'f', -1, 64)
}
