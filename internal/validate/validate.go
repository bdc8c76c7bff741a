// Package validate contains the pure field and step validators for the
// booking wizard.
//
// One validator exists per field and is shared by both triggers: inline
// as-you-type checks and the full step gate before advancing. Validators
// never panic and have no side effects; callers own error-state storage.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ─── Field names ────────────────────────────────────────────

const (
	FieldPickupLocation  = "pickup_location"
	FieldDropoffLocation = "dropoff_location"
	FieldPickupDate      = "pickup_date"
	FieldPickupTime      = "pickup_time"
	FieldPassengers      = "passengers"
	FieldLuggage         = "luggage"
	FieldEstimatedMiles  = "estimated_miles"
	FieldWaitTimeHours   = "wait_time_hours"
	FieldVehicleID       = "vehicle_id"
	FieldCustomerName    = "customer_name"
	FieldCustomerEmail   = "customer_email"
	FieldCustomerPhone   = "customer_phone"
	FieldThreatLevel     = "threat_level"
)

// ─── Bounds ─────────────────────────────────────────────────

const (
	MinNameLength    = 2
	MinAddressLength = 5
	MinPhoneDigits   = 7
	MaxPhoneDigits   = 15
	MaxWaitHours     = 24
)

// ─── Patterns ───────────────────────────────────────────────

var (
	// RFC-light: local@domain.tld with a 2+ letter TLD.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)

	nameCharsRe = regexp.MustCompile(`^[\p{L} '\-]+$`)
)

// ─── Single-field validators ────────────────────────────────

// Name validates a person-name field: trimmed length >= 2, letters, spaces,
// hyphens and apostrophes only, and at least 2 alphabetic characters.
// Returns "" when valid.
func Name(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < MinNameLength {
		return fmt.Sprintf("must be at least %d characters", MinNameLength)
	}
	if !nameCharsRe.MatchString(v) {
		return "may only contain letters, spaces, hyphens and apostrophes"
	}
	if countLetters(v) < 2 {
		return "must contain at least 2 letters"
	}
	return ""
}

// Email validates an email address against the RFC-light pattern.
func Email(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "is required"
	}
	if !emailRe.MatchString(v) {
		return "must be a valid email address"
	}
	return ""
}

// Phone validates a phone number. Spaces, hyphens and parentheses are
// stripped before checking; an optional leading + must be followed only
// by digits; 7-15 digits required.
func Phone(value string) string {
	v := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(value))
	if v == "" {
		return "is required"
	}
	if strings.HasPrefix(v, "+") {
		v = v[1:]
	}
	if v == "" || strings.ContainsFunc(v, func(r rune) bool { return r < '0' || r > '9' }) {
		return "may only contain digits after an optional +"
	}
	if len(v) < MinPhoneDigits || len(v) > MaxPhoneDigits {
		return fmt.Sprintf("must contain %d-%d digits", MinPhoneDigits, MaxPhoneDigits)
	}
	return ""
}

// Address validates a free-text pickup/dropoff address. Beyond a minimum
// length it applies heuristics against gibberish: the value must contain
// at least 3 letters, must not be punctuation only, must not be a short
// run of repeated letters, and must look like a real address (a digit, a
// comma, or at least a second word).
func Address(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < MinAddressLength {
		return fmt.Sprintf("must be at least %d characters", MinAddressLength)
	}
	letters := countLetters(v)
	if letters == 0 && countDigits(v) == 0 {
		return "cannot be punctuation only"
	}
	if letters < 3 {
		return "must contain at least 3 letters"
	}
	if looksLikeGibberish(v) {
		return "does not look like a real address"
	}
	hasDigit := countDigits(v) > 0
	hasComma := strings.Contains(v, ",")
	hasSecondWord := len(strings.Fields(v)) >= 2
	if !hasDigit && !hasComma && !hasSecondWord {
		return "please enter a fuller address (street and area)"
	}
	return ""
}

// Miles validates a mileage value: must parse and be non-negative.
func Miles(value string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "must be a number"
	}
	if n < 0 {
		return "cannot be negative"
	}
	return ""
}

// WaitHours validates a wait-time value: must parse and lie within [0,24].
func WaitHours(value string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return "must be a number"
	}
	if n < 0 || n > MaxWaitHours {
		return fmt.Sprintf("must be between 0 and %d hours", MaxWaitHours)
	}
	return ""
}

// Passengers validates a passenger count: integer >= 1.
func Passengers(value string) string {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "must be a whole number"
	}
	if n < 1 {
		return "must be at least 1"
	}
	return ""
}

// Luggage validates a luggage count: integer >= 0.
func Luggage(value string) string {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "must be a whole number"
	}
	if n < 0 {
		return "cannot be negative"
	}
	return ""
}

// PickupDate validates a YYYY-MM-DD pickup date against the calendar:
// well-formed, not in the past, and not on a blocked date.
func PickupDate(value string, blocked map[string]bool, now time.Time) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "is required"
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return "must be a valid date (YYYY-MM-DD)"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return "cannot be in the past"
	}
	if blocked[v] {
		return "is unavailable, please choose another date"
	}
	return ""
}

// PickupTime validates a HH:MM pickup time.
func PickupTime(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return "is required"
	}
	if _, err := time.Parse("15:04", v); err != nil {
		return "must be a valid time (HH:MM)"
	}
	return ""
}

// ─── Generic dispatch ───────────────────────────────────────

// Field validates a single named field value as entered, for inline
// validation. Returns "" when valid. Unknown fields validate clean;
// the step gate is authoritative for completeness.
func Field(name, value string) string {
	switch name {
	case FieldPickupLocation, FieldDropoffLocation:
		return Address(value)
	case FieldPickupDate:
		// Inline dispatch runs with the zero-value calendar context;
		// callers with blocked dates pass them to PickupDate directly.
		return PickupDate(value, nil, time.Now())
	case FieldPickupTime:
		return PickupTime(value)
	case FieldPassengers:
		return Passengers(value)
	case FieldLuggage:
		return Luggage(value)
	case FieldEstimatedMiles:
		return Miles(value)
	case FieldWaitTimeHours:
		return WaitHours(value)
	case FieldCustomerName:
		return Name(value)
	case FieldCustomerEmail:
		return Email(value)
	case FieldCustomerPhone:
		return Phone(value)
	case FieldVehicleID:
		if strings.TrimSpace(value) == "" {
			return "please select a vehicle"
		}
		return ""
	case FieldThreatLevel:
		if _, ok := model.ParseThreatLevel(value); !ok {
			return "please select a threat level"
		}
		return ""
	default:
		return ""
	}
}

// ─── Step validation ────────────────────────────────────────

// Options carries the calendar context the date validator needs. The zero
// value means no blocked dates and the current wall clock.
type Options struct {
	BlockedDates map[string]bool // YYYY-MM-DD keys
	Now          time.Time       // zero means time.Now()
}

// StepResult aggregates every field failure for a step so the caller can
// surface all problems at once, not just the first.
type StepResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Step runs every field validator relevant to the given step against the
// draft and returns the full error set.
func Step(step model.Step, d *model.BookingDraft, opts Options) StepResult {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	errs := make(map[string]string)
	add := func(field, msg string) {
		if msg != "" {
			errs[field] = msg
		}
	}

	switch step {
	case model.StepJourney:
		add(FieldPickupLocation, Address(d.PickupLocation))
		add(FieldDropoffLocation, Address(d.DropoffLocation))
		add(FieldPickupDate, PickupDate(d.PickupDate, opts.BlockedDates, now))
		add(FieldPickupTime, PickupTime(d.PickupTime))
		if d.Passengers < 1 {
			add(FieldPassengers, "must be at least 1")
		}
		if d.Luggage < 0 {
			add(FieldLuggage, "cannot be negative")
		}
		if d.EstimatedMiles < 0 {
			add(FieldEstimatedMiles, "cannot be negative")
		}
		if d.WaitTimeHours < 0 || d.WaitTimeHours > MaxWaitHours {
			add(FieldWaitTimeHours, fmt.Sprintf("must be between 0 and %d hours", MaxWaitHours))
		}

	case model.StepVehicle:
		add(FieldVehicleID, Field(FieldVehicleID, d.VehicleID))

	case model.StepDetails:
		add(FieldCustomerName, Name(d.CustomerName))
		add(FieldCustomerEmail, Email(d.CustomerEmail))
		add(FieldCustomerPhone, Phone(d.CustomerPhone))
	}

	return StepResult{Valid: len(errs) == 0, Errors: errs}
}

// ─── Heuristics ─────────────────────────────────────────────

// looksLikeGibberish flags short repeated-letter strings such as "ababab"
// or "aaaaaa" that pass the length check but carry no information. A value
// whose letters draw on fewer than 3 distinct characters is rejected.
func looksLikeGibberish(v string) bool {
	distinct := make(map[rune]bool)
	total := 0
	for _, r := range strings.ToLower(v) {
		if unicode.IsLetter(r) {
			distinct[r] = true
			total++
		}
	}
	return total >= 3 && len(distinct) < 3
}

func countLetters(v string) int {
	n := 0
	for _, r := range v {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func countDigits(v string) int {
	n := 0
	for _, r := range v {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
