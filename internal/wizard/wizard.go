// Package wizard owns the booking draft and drives the three-step
// reservation flow: journey details, vehicle selection, and customer
// details with submission.
//
// The wizard is the only writer of its draft. Every edit recomputes the
// price breakdown synchronously; coordinate edits additionally trigger an
// asynchronous distance estimate; step advances are gated by the
// validation engine; the optional close-protection sub-flow merges into
// (or backs out of) the draft through its coordinator.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/notify"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/payment"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/pricing"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/protection"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/receipt"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/validate"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrValidationFailed gates a forward step transition; the per-field
	// messages are on the draft and in the ValidationFailed event.
	ErrValidationFailed = errors.New("wizard: step validation failed")

	// ErrProtectionPending blocks submission while the close-protection
	// sub-form is open and unsubmitted.
	ErrProtectionPending = errors.New("wizard: close-protection form is open and unsubmitted")

	// ErrSubmission is the generic retryable failure for persistence or
	// payment-session errors. The draft is preserved; the user may
	// resubmit without re-entering data.
	ErrSubmission = errors.New("wizard: submission failed, please try again")

	// ErrAtFirstStep and ErrAtLastStep bound the step range.
	ErrAtFirstStep = errors.New("wizard: already on the first step")
	ErrAtLastStep  = errors.New("wizard: already on the last step")

	// ErrNotOnFinalStep rejects a submission attempted before the wizard
	// has passed the earlier step gates.
	ErrNotOnFinalStep = errors.New("wizard: submission is only available on the final step")
)

// ─── Collaborator interfaces ────────────────────────────────

// ReferenceSource loads the read-only catalog once per session.
type ReferenceSource interface {
	ListActiveVehicles(ctx context.Context) ([]model.Vehicle, error)
	ListActiveExtras(ctx context.Context) ([]model.PricingExtra, error)
	ListBlockedDates(ctx context.Context) ([]string, error)
}

// BookingStore persists completed reservations.
type BookingStore interface {
	CreateBooking(ctx context.Context, rec *model.BookingRecord) (int64, error)
}

// PaymentService creates the hosted checkout session after persistence.
type PaymentService interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

// Confirmer dispatches the booking confirmation. Best-effort.
type Confirmer interface {
	SendBookingConfirmation(confirmation notify.BookingConfirmation)
}

// DistanceRequester resolves mileage estimates asynchronously with
// latest-input-wins delivery.
type DistanceRequester interface {
	Request(ctx context.Context, pickup, dropoff model.Coordinates, deliver func(model.DistanceEstimate)) bool
}

// ─── Events ─────────────────────────────────────────────────

// Listener receives the wizard's exit/completion events. Callbacks run
// with the wizard's lock released; the estimator's DistanceResolved may
// arrive from another goroutine.
type Listener interface {
	StepChanged(step model.Step)
	BreakdownChanged(breakdown model.PriceBreakdown)
	DistanceResolved(estimate model.DistanceEstimate)
	ValidationFailed(step model.Step, errs map[string]string)
	SubmissionSucceeded(reference string)
	SubmissionFailed(reason string)
}

// NopListener discards every event.
type NopListener struct{}

func (NopListener) StepChanged(model.Step)                         {}
func (NopListener) BreakdownChanged(model.PriceBreakdown)          {}
func (NopListener) DistanceResolved(model.DistanceEstimate)        {}
func (NopListener) ValidationFailed(model.Step, map[string]string) {}
func (NopListener) SubmissionSucceeded(string)                     {}
func (NopListener) SubmissionFailed(string)                        {}

// ─── Wizard ─────────────────────────────────────────────────

// Deps wires the wizard's collaborators.
type Deps struct {
	Reference ReferenceSource
	Store     BookingStore
	Payments  PaymentService
	Notifier  interface {
		Confirmer
		protection.Enquirer
	}
	Distance DistanceRequester
	Pricing  pricing.Config
	Listener Listener
	Now      func() time.Time // nil means time.Now
}

// Wizard is the step state machine for one reservation session.
type Wizard struct {
	mu sync.Mutex

	draft *model.BookingDraft
	coord *protection.Coordinator
	deps  Deps
	now   func() time.Time

	// reference data, loaded once at mount
	vehicles map[string]model.Vehicle
	extras   map[string]model.PricingExtra
	blocked  map[string]bool
	loaded   bool
}

// New creates a wizard with an empty draft positioned on step 1.
func New(deps Deps) *Wizard {
	if deps.Listener == nil {
		deps.Listener = NopListener{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Wizard{
		draft:    model.NewBookingDraft(),
		coord:    protection.New(deps.Notifier),
		deps:     deps,
		now:      now,
		vehicles: make(map[string]model.Vehicle),
		extras:   make(map[string]model.PricingExtra),
		blocked:  make(map[string]bool),
	}
}

// Load fetches the reference catalog. Called once when the wizard mounts;
// a failure leaves the wizard usable for retry.
func (w *Wizard) Load(ctx context.Context) error {
	vehicles, err := w.deps.Reference.ListActiveVehicles(ctx)
	if err != nil {
		return fmt.Errorf("wizard: load vehicles: %w", err)
	}
	extras, err := w.deps.Reference.ListActiveExtras(ctx)
	if err != nil {
		return fmt.Errorf("wizard: load extras: %w", err)
	}
	dates, err := w.deps.Reference.ListBlockedDates(ctx)
	if err != nil {
		return fmt.Errorf("wizard: load blocked dates: %w", err)
	}

	w.mu.Lock()
	for _, v := range vehicles {
		w.vehicles[v.ID] = v
	}
	for _, e := range extras {
		w.extras[e.ID] = e
	}
	for _, d := range dates {
		w.blocked[d] = true
	}
	w.loaded = true
	w.mu.Unlock()

	log.Printf("[wizard] reference data loaded: %d vehicles, %d extras, %d blocked dates",
		len(vehicles), len(extras), len(dates))
	return nil
}

// ─── Read access ────────────────────────────────────────────

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() model.BookingDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Breakdown returns the live price breakdown derived from the current
// draft. Never cached.
func (w *Wizard) Breakdown() model.PriceBreakdown {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.breakdownLocked()
}

// Vehicles returns the loaded fleet catalog.
func (w *Wizard) Vehicles() []model.Vehicle {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]model.Vehicle, 0, len(w.vehicles))
	for _, v := range w.vehicles {
		out = append(out, v)
	}
	return out
}

// ProtectionState exposes the add-on sub-flow state for rendering.
func (w *Wizard) ProtectionState() protection.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coord.State()
}

// ─── Field edits ────────────────────────────────────────────

// SetField applies one user edit to the draft. The field is validated
// inline (errors land on the draft's error map), numeric fields are only
// applied when they parse, and the breakdown is recomputed after every
// edit that can affect a price term.
func (w *Wizard) SetField(name, value string) {
	w.mu.Lock()

	msg := validate.Field(name, value)
	if name == validate.FieldPickupDate {
		// The generic dispatch has no calendar context; use the loaded
		// blocked dates so the user hears about them as they type.
		msg = validate.PickupDate(value, w.blocked, w.now())
	}
	if msg != "" {
		w.draft.FieldErrors[name] = msg
	} else {
		delete(w.draft.FieldErrors, name)
	}

	switch name {
	case validate.FieldPickupLocation:
		if w.draft.PickupLocation != value {
			w.draft.PickupCoords = nil // stale once the address changes
		}
		w.draft.PickupLocation = value
	case validate.FieldDropoffLocation:
		if w.draft.DropoffLocation != value {
			w.draft.DropoffCoords = nil
		}
		w.draft.DropoffLocation = value
	case validate.FieldPickupDate:
		w.draft.PickupDate = value
	case validate.FieldPickupTime:
		w.draft.PickupTime = value
	case "special_requirements":
		w.draft.SpecialRequirements = value
	case validate.FieldPassengers:
		if n, err := strconv.Atoi(value); err == nil && n >= 1 {
			w.draft.Passengers = n
		}
	case validate.FieldLuggage:
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			w.draft.Luggage = n
		}
	case validate.FieldEstimatedMiles:
		if n, err := strconv.ParseFloat(value, 64); err == nil && n >= 0 {
			w.draft.EstimatedMiles = n
			w.draft.EstimateSource = "" // user override, no longer estimator-derived
		}
	case validate.FieldWaitTimeHours:
		if n, err := strconv.ParseFloat(value, 64); err == nil && n >= 0 && n <= validate.MaxWaitHours {
			w.draft.WaitTimeHours = n
		}
	case "long_drive":
		w.draft.LongDrive = value == "true"
	case "overnight_stop":
		w.draft.OvernightStop = value == "true"
	case validate.FieldVehicleID:
		w.draft.VehicleID = value
	case validate.FieldCustomerName:
		w.draft.CustomerName = value
	case validate.FieldCustomerEmail:
		w.draft.CustomerEmail = value
	case validate.FieldCustomerPhone:
		w.draft.CustomerPhone = value
	}

	breakdown := w.breakdownLocked()
	w.mu.Unlock()

	w.deps.Listener.BreakdownChanged(breakdown)
}

// SetExtra toggles one pricing extra on the draft.
func (w *Wizard) SetExtra(id string, selected bool) {
	w.mu.Lock()
	if selected {
		w.draft.SelectedExtras[id] = true
	} else {
		delete(w.draft.SelectedExtras, id)
	}
	breakdown := w.breakdownLocked()
	w.mu.Unlock()

	w.deps.Listener.BreakdownChanged(breakdown)
}

// SetCoordinates records a resolved coordinate pair for one endpoint and,
// once both endpoints are present, asks the estimator for a mileage
// figure. A newer coordinate change supersedes any in-flight estimate.
func (w *Wizard) SetCoordinates(ctx context.Context, endpoint string, coords model.Coordinates) {
	w.mu.Lock()
	switch endpoint {
	case "pickup":
		c := coords
		w.draft.PickupCoords = &c
	case "dropoff":
		c := coords
		w.draft.DropoffCoords = &c
	default:
		w.mu.Unlock()
		return
	}

	if w.draft.PickupCoords == nil || w.draft.DropoffCoords == nil {
		w.mu.Unlock()
		return
	}
	pickup, dropoff := *w.draft.PickupCoords, *w.draft.DropoffCoords
	w.mu.Unlock()

	w.deps.Distance.Request(ctx, pickup, dropoff, func(est model.DistanceEstimate) {
		w.mu.Lock()
		w.draft.EstimatedMiles = est.Miles
		w.draft.EstimateSource = est.Source
		breakdown := w.breakdownLocked()
		w.mu.Unlock()

		log.Printf("[wizard] distance resolved: %.1f mi (%s)", est.Miles, est.Source)
		w.deps.Listener.DistanceResolved(est)
		w.deps.Listener.BreakdownChanged(breakdown)
	})
}

// ─── Step transitions ───────────────────────────────────────

// Advance moves to the next step if the current step's gate passes. On
// failure the wizard stays put and every field error is surfaced at once.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	step := w.draft.CurrentStep
	if step >= model.StepDetails {
		w.mu.Unlock()
		return ErrAtLastStep
	}

	res := validate.Step(step, w.draft, validate.Options{BlockedDates: w.blocked, Now: w.now()})
	if res.Valid && step == model.StepVehicle {
		w.checkVehicleCapacityLocked(res.Errors)
		res.Valid = len(res.Errors) == 0
	}
	if !res.Valid {
		for f, msg := range res.Errors {
			w.draft.FieldErrors[f] = msg
		}
		w.mu.Unlock()

		log.Printf("[wizard] step %d gate failed: %d field error(s)", step, len(res.Errors))
		w.deps.Listener.ValidationFailed(step, res.Errors)
		return ErrValidationFailed
	}

	w.draft.CurrentStep = step + 1
	next := w.draft.CurrentStep
	w.mu.Unlock()

	log.Printf("[wizard] advanced to step %d", next)
	w.deps.Listener.StepChanged(next)
	return nil
}

// Back moves to the previous step. Always permitted, never re-validates;
// forward re-entry re-validates from scratch since the draft may have
// changed.
func (w *Wizard) Back() error {
	w.mu.Lock()
	if w.draft.CurrentStep <= model.StepJourney {
		w.mu.Unlock()
		return ErrAtFirstStep
	}
	w.draft.CurrentStep--
	step := w.draft.CurrentStep
	w.mu.Unlock()

	w.deps.Listener.StepChanged(step)
	return nil
}

// checkVehicleCapacityLocked rejects a selection the party cannot fit in.
func (w *Wizard) checkVehicleCapacityLocked(errs map[string]string) {
	v, ok := w.vehicles[w.draft.VehicleID]
	if !ok {
		errs[validate.FieldVehicleID] = "please select a vehicle from the fleet"
		return
	}
	if v.Capacity < w.draft.Passengers {
		errs[validate.FieldVehicleID] = fmt.Sprintf("%s seats %d, party is %d", v.Name, v.Capacity, w.draft.Passengers)
	} else if v.LuggageCapacity < w.draft.Luggage {
		errs[validate.FieldVehicleID] = fmt.Sprintf("%s takes %d luggage, party has %d", v.Name, v.LuggageCapacity, w.draft.Luggage)
	}
}

// ─── Close-protection sub-flow ──────────────────────────────

// OpenProtection toggles the add-on on and opens the sub-form prefilled
// from the draft's contact details.
func (w *Wizard) OpenProtection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coord.Open(w.draft)
}

// SetProtectionField records one sub-form edit.
func (w *Wizard) SetProtectionField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coord.SetField(name, value)
}

// SubmitProtection submits the sub-form; on success the details merge into
// the draft. Validation failures are returned per field.
func (w *Wizard) SubmitProtection() (map[string]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.coord.Submit(w.draft)
}

// CancelProtection closes the sub-form without submitting.
func (w *Wizard) CancelProtection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coord.Cancel(w.draft)
}

// DisableProtection toggles the add-on off entirely.
func (w *Wizard) DisableProtection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.coord.Disable(w.draft)
}

// ─── Submission ─────────────────────────────────────────────

// Submit finalizes the booking: step-3 validation, persistence, payment
// session. On success the wizard resets to a fresh draft and the caller
// receives the checkout redirect. On any collaborator failure the wizard
// stays on step 3 with the draft intact so the user can resubmit.
func (w *Wizard) Submit(ctx context.Context) (redirectURL, reference string, err error) {
	w.mu.Lock()

	// The earlier gates (journey fields, vehicle fit) only run on Advance,
	// so a submission from any other step has not passed them.
	if w.draft.CurrentStep != model.StepDetails {
		step := w.draft.CurrentStep
		w.mu.Unlock()
		log.Printf("[wizard] submit rejected on step %d", step)
		return "", "", ErrNotOnFinalStep
	}

	res := validate.Step(model.StepDetails, w.draft, validate.Options{Now: w.now()})
	if !res.Valid {
		for f, msg := range res.Errors {
			w.draft.FieldErrors[f] = msg
		}
		w.mu.Unlock()
		w.deps.Listener.ValidationFailed(model.StepDetails, res.Errors)
		return "", "", ErrValidationFailed
	}

	if w.coord.State() == protection.PendingEntry {
		w.mu.Unlock()
		return "", "", ErrProtectionPending
	}

	breakdown := w.breakdownLocked()
	rec := w.assembleRecordLocked(breakdown)
	w.mu.Unlock()

	// ── Persist ─────────────────────────────────────────
	bookingID, err := w.deps.Store.CreateBooking(ctx, rec)
	if err != nil {
		log.Printf("[wizard] persistence failed: %v", err)
		w.deps.Listener.SubmissionFailed("could not save the booking")
		return "", "", ErrSubmission
	}
	log.Printf("[wizard] booking #%d persisted (ref %s, total %.2f)", bookingID, rec.Reference, rec.Total)

	// ── Payment session ─────────────────────────────────
	session, err := w.deps.Payments.CreateSession(ctx, payment.SessionRequest{
		BookingID:     bookingID,
		Reference:     rec.Reference,
		CustomerEmail: rec.CustomerEmail,
		CustomerName:  rec.CustomerName,
		TotalAmount:   rec.Total,
		Currency:      "GBP",
	})
	if err != nil {
		log.Printf("[wizard] payment session failed: %v", err)
		w.deps.Listener.SubmissionFailed("could not start payment")
		return "", "", ErrSubmission
	}

	// ── Confirmation (best-effort) ──────────────────────
	confirmation := notify.BookingConfirmation{
		Reference:     rec.Reference,
		CustomerName:  rec.CustomerName,
		CustomerEmail: rec.CustomerEmail,
		Total:         rec.Total,
	}
	if pdf, perr := receipt.Build(rec, breakdown); perr == nil {
		confirmation.SummaryPDF = pdf
	} else {
		log.Printf("[wizard] receipt render failed: %v", perr)
	}
	w.deps.Notifier.SendBookingConfirmation(confirmation)

	// ── Reset to a fresh draft ──────────────────────────
	w.mu.Lock()
	w.draft = model.NewBookingDraft()
	w.coord = protection.New(w.deps.Notifier)
	w.mu.Unlock()

	w.deps.Listener.SubmissionSucceeded(rec.Reference)
	return session.RedirectURL, rec.Reference, nil
}

// assembleRecordLocked builds the persistence payload from the draft and
// the quoted breakdown, minting the human-readable reference from the
// current timestamp.
func (w *Wizard) assembleRecordLocked(breakdown model.PriceBreakdown) *model.BookingRecord {
	d := w.draft
	return &model.BookingRecord{
		Reference:           "SD-" + w.now().Format("20060102-150405"),
		PickupLocation:      d.PickupLocation,
		DropoffLocation:     d.DropoffLocation,
		PickupDate:          d.PickupDate,
		PickupTime:          d.PickupTime,
		Passengers:          d.Passengers,
		Luggage:             d.Luggage,
		SpecialRequirements: d.SpecialRequirements,
		VehicleID:           d.VehicleID,
		ExtraIDs:            d.ExtraIDs(),
		EstimatedMiles:      d.EstimatedMiles,
		WaitTimeHours:       d.WaitTimeHours,
		LongDrive:           d.LongDrive,
		OvernightStop:       d.OvernightStop,
		CustomerName:        d.CustomerName,
		CustomerEmail:       d.CustomerEmail,
		CustomerPhone:       d.CustomerPhone,
		Total:               breakdown.Total,
		Protection:          d.ProtectionDetails,
	}
}

// ─── Internal ───────────────────────────────────────────────

func (w *Wizard) breakdownLocked() model.PriceBreakdown {
	var vehicle *model.Vehicle
	if v, ok := w.vehicles[w.draft.VehicleID]; ok {
		vehicle = &v
	}
	return pricing.ComputeBreakdown(w.draft, vehicle, w.extras, w.deps.Pricing)
}

func (w *Wizard) snapshotLocked() model.BookingDraft {
	d := *w.draft
	d.SelectedExtras = make(map[string]bool, len(w.draft.SelectedExtras))
	for k, v := range w.draft.SelectedExtras {
		d.SelectedExtras[k] = v
	}
	d.FieldErrors = make(map[string]string, len(w.draft.FieldErrors))
	for k, v := range w.draft.FieldErrors {
		d.FieldErrors[k] = v
	}
	if w.draft.PickupCoords != nil {
		c := *w.draft.PickupCoords
		d.PickupCoords = &c
	}
	if w.draft.DropoffCoords != nil {
		c := *w.draft.DropoffCoords
		d.DropoffCoords = &c
	}
	if w.draft.ProtectionDetails != nil {
		p := *w.draft.ProtectionDetails
		d.ProtectionDetails = &p
	}
	return d
}
