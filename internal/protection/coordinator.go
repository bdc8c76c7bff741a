// Package protection coordinates the optional close-protection sub-flow
// nested inside step 3 of the booking wizard.
package protection

import (
	"errors"
	"log"
	"time"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/notify"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/validate"
)

// ─── States ─────────────────────────────────────────────────

// State is the sub-flow position.
type State string

const (
	// Off: toggle is off, no sub-form open, no interest recorded.
	Off State = "off"

	// PendingEntry: toggle is on and the sub-form is open but not yet
	// submitted. An unsubmitted sub-form keeps protection interest false
	// on the draft.
	PendingEntry State = "pending_entry"

	// Merged: the sub-form was submitted and its details merged into the
	// draft. Re-opening from here edits the existing details instead of
	// raising a fresh enquiry.
	Merged State = "merged"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrNotOpen is returned when a form operation arrives while the
	// sub-form is not open.
	ErrNotOpen = errors.New("protection: sub-form is not open")

	// ErrInvalidForm is returned when submission is blocked by field
	// validation; the per-field messages accompany it.
	ErrInvalidForm = errors.New("protection: form has validation errors")
)

// ─── Form ───────────────────────────────────────────────────

// Form holds the sub-form entries while the flow is in PendingEntry.
type Form struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ThreatLevel  string `json:"threat_level"`
	Requirements string `json:"requirements"`

	// touched marks fields the user has edited, so draft prefills never
	// clobber their input on re-open.
	touched map[string]bool
}

// Enquirer is the slice of the notification dispatcher the coordinator
// uses. Dispatch is fire-and-forget; implementations must not block on
// delivery failures.
type Enquirer interface {
	SendEnquiry(enquiry notify.ProtectionEnquiry)
}

// ─── Coordinator ────────────────────────────────────────────

// Coordinator is the three-state machine for the close-protection add-on:
// Off → PendingEntry → Merged, with PendingEntry → Off on cancel. It owns
// the sub-form and the merge/revert contract with the booking draft.
type Coordinator struct {
	state    State
	form     Form
	enquirer Enquirer
	now      func() time.Time

	// merged tracks whether this session has already completed a
	// submission, so re-entry is treated as an edit rather than a fresh
	// enquiry.
	merged bool
}

// New creates a coordinator in the Off state.
func New(enquirer Enquirer) *Coordinator {
	return &Coordinator{state: Off, enquirer: enquirer, now: time.Now}
}

// State returns the current sub-flow state.
func (c *Coordinator) State() State { return c.state }

// Form returns a copy of the current sub-form entries.
func (c *Coordinator) Form() Form { return c.form }

// Open moves Off → PendingEntry (or Merged → PendingEntry for an edit) and
// pre-populates the sub-form from the primary draft's contact details.
// Fields the user has already edited in the sub-form are left untouched.
func (c *Coordinator) Open(d *model.BookingDraft) {
	if c.state == PendingEntry {
		return
	}

	if c.form.touched == nil {
		c.form.touched = make(map[string]bool)
	}
	if !c.form.touched["name"] && c.form.Name == "" {
		c.form.Name = d.CustomerName
	}
	if !c.form.touched["email"] && c.form.Email == "" {
		c.form.Email = d.CustomerEmail
	}
	if !c.form.touched["phone"] && c.form.Phone == "" {
		c.form.Phone = d.CustomerPhone
	}

	c.state = PendingEntry
	log.Printf("[protection] sub-form opened (previously merged=%v)", c.merged)
}

// SetField records a user edit to one sub-form field.
func (c *Coordinator) SetField(name, value string) error {
	if c.state != PendingEntry {
		return ErrNotOpen
	}
	if c.form.touched == nil {
		c.form.touched = make(map[string]bool)
	}
	switch name {
	case "name":
		c.form.Name = value
	case "email":
		c.form.Email = value
	case "phone":
		c.form.Phone = value
	case "threat_level":
		c.form.ThreatLevel = value
	case "requirements":
		c.form.Requirements = value
	default:
		return nil
	}
	c.form.touched[name] = true
	return nil
}

// Validate runs the sub-form's field rules: name/email/phone exactly as
// the primary draft's contact fields, plus a required threat level.
func (c *Coordinator) Validate() map[string]string {
	errs := make(map[string]string)
	if msg := validate.Name(c.form.Name); msg != "" {
		errs["name"] = msg
	}
	if msg := validate.Email(c.form.Email); msg != "" {
		errs["email"] = msg
	}
	if msg := validate.Phone(c.form.Phone); msg != "" {
		errs["phone"] = msg
	}
	if _, ok := model.ParseThreatLevel(c.form.ThreatLevel); !ok {
		errs["threat_level"] = "please select a threat level"
	}
	return errs
}

// Submit validates the sub-form, dispatches the enquiry, merges the
// details into the draft, and transitions to Merged.
//
// The enquiry dispatch is best-effort and cannot fail the submission;
// only the merge is authoritative for the state transition. A second
// submission with the same data updates the existing details in place; it
// never duplicates the merge or re-raises a completed enquiry's state.
func (c *Coordinator) Submit(d *model.BookingDraft) (map[string]string, error) {
	if c.state != PendingEntry {
		return nil, ErrNotOpen
	}

	if errs := c.Validate(); len(errs) > 0 {
		return errs, ErrInvalidForm
	}

	level, _ := model.ParseThreatLevel(c.form.ThreatLevel)
	submittedAt := c.now()

	c.enquirer.SendEnquiry(notify.ProtectionEnquiry{
		Name:         c.form.Name,
		Email:        c.form.Email,
		Phone:        c.form.Phone,
		ThreatLevel:  level,
		Requirements: c.form.Requirements,
		SubmittedAt:  submittedAt,
	})

	d.ProtectionDetails = &model.ProtectionDetails{
		ThreatLevel:  level,
		Requirements: c.form.Requirements,
		SubmittedAt:  submittedAt,
	}
	d.ProtectionInterest = true

	c.state = Merged
	c.merged = true
	log.Printf("[protection] enquiry submitted and merged (level=%s)", level)
	return nil, nil
}

// Cancel closes an open sub-form without submitting.
//
// From a never-merged PendingEntry this is PendingEntry → Off: protection
// interest resets to false, partial entries are discarded, and the rest of
// the draft is left untouched. If this session already merged a
// submission, cancelling only abandons the in-progress edit and returns to
// Merged, and the draft keeps the previously merged details.
func (c *Coordinator) Cancel(d *model.BookingDraft) {
	if c.state != PendingEntry {
		return
	}
	if c.merged {
		c.state = Merged
		c.form = formFromDetails(d)
		log.Printf("[protection] edit abandoned, previous submission kept")
		return
	}
	c.form = Form{}
	c.state = Off
	d.ProtectionInterest = false
	d.ProtectionDetails = nil
	log.Printf("[protection] sub-form cancelled, interest reset")
}

// Disable toggles the add-on off entirely from any state, withdrawing a
// merged submission if one exists.
func (c *Coordinator) Disable(d *model.BookingDraft) {
	c.form = Form{}
	c.state = Off
	c.merged = false
	d.ProtectionInterest = false
	d.ProtectionDetails = nil
	log.Printf("[protection] add-on disabled")
}

// formFromDetails rebuilds the sub-form from the draft's merged details so
// a later re-open starts from what was actually submitted.
func formFromDetails(d *model.BookingDraft) Form {
	f := Form{
		Name:    d.CustomerName,
		Email:   d.CustomerEmail,
		Phone:   d.CustomerPhone,
		touched: make(map[string]bool),
	}
	if d.ProtectionDetails != nil {
		f.ThreatLevel = string(d.ProtectionDetails.ThreatLevel)
		f.Requirements = d.ProtectionDetails.Requirements
	}
	return f
}
