// Package model contains domain models for the chauffeur booking engine.
// The reference-data structs map to the PostgreSQL schema maintained by the
// admin back office; the draft structs live only in memory for the duration
// of one wizard session.
package model

import "time"

// ─── Enums ──────────────────────────────────────────────────

// Step identifies a stage of the booking wizard.
type Step int

const (
	StepJourney Step = 1 // journey details: addresses, date, passengers
	StepVehicle Step = 2 // fleet selection
	StepDetails Step = 3 // customer details, extras, submission
)

// Valid reports whether s is one of the three wizard steps.
func (s Step) Valid() bool {
	return s >= StepJourney && s <= StepDetails
}

// ThreatLevel is the client's self-assessed risk level on a close
// protection enquiry.
type ThreatLevel string

const (
	ThreatLow     ThreatLevel = "low"
	ThreatMedium  ThreatLevel = "medium"
	ThreatHigh    ThreatLevel = "high"
	ThreatNotSure ThreatLevel = "not_sure"
)

// ParseThreatLevel maps a wire string to a ThreatLevel.
func ParseThreatLevel(s string) (ThreatLevel, bool) {
	switch ThreatLevel(s) {
	case ThreatLow, ThreatMedium, ThreatHigh, ThreatNotSure:
		return ThreatLevel(s), true
	default:
		return "", false
	}
}

// EstimateSource tags how a mileage figure was produced.
type EstimateSource string

const (
	// SourceRouted means the figure came from the external routing service.
	SourceRouted EstimateSource = "routed"

	// SourceStraightLine means the routing service failed and the figure is
	// a great-circle fallback.
	SourceStraightLine EstimateSource = "straight-line"
)

// ─── Coordinates ────────────────────────────────────────────

// Coordinates is a WGS-84 geographic point (EPSG:4326).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ─── Reference data (read-only, admin-managed) ──────────────

// Vehicle maps to the `vehicles` table.
type Vehicle struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Category           string    `json:"category"`
	Capacity           int       `json:"capacity"`
	LuggageCapacity    int       `json:"luggage_capacity"`
	PricePerMile       float64   `json:"price_per_mile"`
	OvernightSurcharge float64   `json:"overnight_surcharge"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
}

// PricingExtra maps to the `pricing_extras` table.
type PricingExtra struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ─── Ephemeral results ──────────────────────────────────────

// DistanceEstimate is the outcome of one estimation attempt. It is
// recomputed on every coordinate change and never persisted.
type DistanceEstimate struct {
	Miles           float64        `json:"miles"`
	Source          EstimateSource `json:"source"`
	DurationMinutes *float64       `json:"duration_minutes,omitempty"`
}

// PriceBreakdown is the itemized quote derived from the current draft.
// It is always rebuilt from scratch, never mutated in place.
type PriceBreakdown struct {
	Mileage   float64 `json:"mileage"`
	WaitTime  float64 `json:"wait_time"`
	Overnight float64 `json:"overnight"`
	Extras    float64 `json:"extras"`
	Total     float64 `json:"total"`
}

// ProtectionDetails is created only by a completed close-protection
// sub-flow submission. A cancelled sub-flow leaves the draft without one.
type ProtectionDetails struct {
	ThreatLevel  ThreatLevel `json:"threat_level"`
	Requirements string      `json:"requirements"`
	SubmittedAt  time.Time   `json:"submitted_at"`
}

// ─── BookingDraft ───────────────────────────────────────────

// BookingDraft is the single mutable aggregate for one in-progress
// reservation. It is owned exclusively by its wizard; there is no
// concurrent writer.
//
// Invariants maintained by the wizard's transition functions:
//   - EstimatedMiles >= 0, WaitTimeHours in [0,24]
//   - Passengers >= 1, Luggage >= 0
//   - CurrentStep in {1,2,3}
//   - ProtectionDetails != nil only when ProtectionInterest is true
//   - the total price is never stored here; always derived live
type BookingDraft struct {
	PickupLocation  string       `json:"pickup_location"`
	DropoffLocation string       `json:"dropoff_location"`
	PickupCoords    *Coordinates `json:"pickup_coords,omitempty"`
	DropoffCoords   *Coordinates `json:"dropoff_coords,omitempty"`

	PickupDate string `json:"pickup_date"` // YYYY-MM-DD
	PickupTime string `json:"pickup_time"` // HH:MM

	Passengers          int    `json:"passengers"`
	Luggage             int    `json:"luggage"`
	SpecialRequirements string `json:"special_requirements"`

	VehicleID      string          `json:"vehicle_id"`
	SelectedExtras map[string]bool `json:"selected_extras"`

	EstimatedMiles float64        `json:"estimated_miles"`
	EstimateSource EstimateSource `json:"estimate_source,omitempty"`
	WaitTimeHours  float64        `json:"wait_time_hours"`
	LongDrive      bool           `json:"long_drive"`
	OvernightStop  bool           `json:"overnight_stop"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`

	ProtectionInterest bool               `json:"protection_interest"`
	ProtectionDetails  *ProtectionDetails `json:"protection_details,omitempty"`

	CurrentStep Step              `json:"current_step"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// NewBookingDraft returns an empty draft positioned on step 1.
func NewBookingDraft() *BookingDraft {
	return &BookingDraft{
		Passengers:     1,
		SelectedExtras: make(map[string]bool),
		CurrentStep:    StepJourney,
		FieldErrors:    make(map[string]string),
	}
}

// ExtraIDs returns the selected extra ids in no particular order.
func (d *BookingDraft) ExtraIDs() []string {
	ids := make([]string, 0, len(d.SelectedExtras))
	for id, on := range d.SelectedExtras {
		if on {
			ids = append(ids, id)
		}
	}
	return ids
}

// ─── Persistence payloads ───────────────────────────────────

// BookingRecord is the persistence payload assembled at submission time.
// It carries the derived total alongside the draft fields so the stored
// row reflects the price quoted at the moment of booking.
type BookingRecord struct {
	Reference           string             `json:"reference"`
	PickupLocation      string             `json:"pickup_location"`
	DropoffLocation     string             `json:"dropoff_location"`
	PickupDate          string             `json:"pickup_date"`
	PickupTime          string             `json:"pickup_time"`
	Passengers          int                `json:"passengers"`
	Luggage             int                `json:"luggage"`
	SpecialRequirements string             `json:"special_requirements"`
	VehicleID           string             `json:"vehicle_id"`
	ExtraIDs            []string           `json:"extra_ids"`
	EstimatedMiles      float64            `json:"estimated_miles"`
	WaitTimeHours       float64            `json:"wait_time_hours"`
	LongDrive           bool               `json:"long_drive"`
	OvernightStop       bool               `json:"overnight_stop"`
	CustomerName        string             `json:"customer_name"`
	CustomerEmail       string             `json:"customer_email"`
	CustomerPhone       string             `json:"customer_phone"`
	Total               float64            `json:"total"`
	Protection          *ProtectionDetails `json:"protection,omitempty"`
}
