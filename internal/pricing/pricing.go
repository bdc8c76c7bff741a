// Package pricing contains the reactive price-breakdown calculator for the
// booking wizard.
package pricing

import (
	"math"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ─── Rate configuration ─────────────────────────────────────

// Config holds the pricing parameters that are not vehicle-specific.
// Loaded from the environment at startup; see config.PricingConfig.
type Config struct {
	WaitRatePerHour float64 // flat hourly rate while the chauffeur waits
}

// DefaultConfig returns the standard fleet rates.
func DefaultConfig() Config {
	return Config{
		WaitRatePerHour: 25.0,
	}
}

// ─── Breakdown calculation ──────────────────────────────────

// ComputeBreakdown derives the itemized quote from the current draft and
// reference data. Pure: no side effects, no I/O, safe to call on every
// keystroke.
//
// Formula:
//
//	mileage   = vehicle.PricePerMile × draft.EstimatedMiles
//	waitTime  = draft.WaitTimeHours × cfg.WaitRatePerHour
//	overnight = draft.OvernightStop ? vehicle.OvernightSurcharge : 0
//	extras    = Σ extras[id].Price for selected ids
//	total     = mileage + waitTime + overnight + extras
//
// When no vehicle is selected (vehicle == nil) the result is all zeros so
// the caller can render a "select a vehicle" placeholder instead of
// handling an error.
//
// Complexity: O(E) where E = number of selected extras.
func ComputeBreakdown(
	d *model.BookingDraft,
	vehicle *model.Vehicle,
	extras map[string]model.PricingExtra,
	cfg Config,
) model.PriceBreakdown {
	if vehicle == nil {
		return model.PriceBreakdown{}
	}

	mileage := vehicle.PricePerMile * d.EstimatedMiles
	waitTime := d.WaitTimeHours * cfg.WaitRatePerHour

	var overnight float64
	if d.OvernightStop {
		overnight = vehicle.OvernightSurcharge
	}

	var extrasTotal float64
	for id, on := range d.SelectedExtras {
		if !on {
			continue
		}
		if extra, ok := extras[id]; ok {
			extrasTotal += extra.Price
		}
	}

	return model.PriceBreakdown{
		Mileage:   roundPence(mileage),
		WaitTime:  roundPence(waitTime),
		Overnight: roundPence(overnight),
		Extras:    roundPence(extrasTotal),
		Total:     roundPence(mileage + waitTime + overnight + extrasTotal),
	}
}

// roundPence rounds a monetary amount to two decimal places.
func roundPence(v float64) float64 {
	return math.Round(v*100) / 100
}
