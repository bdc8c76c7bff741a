package protection

import (
	"sync"
	"testing"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/notify"
)

// recordingEnquirer captures dispatched enquiries.
type recordingEnquirer struct {
	mu        sync.Mutex
	enquiries []notify.ProtectionEnquiry
}

func (r *recordingEnquirer) SendEnquiry(e notify.ProtectionEnquiry) {
	r.mu.Lock()
	r.enquiries = append(r.enquiries, e)
	r.mu.Unlock()
}

func (r *recordingEnquirer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.enquiries)
}

func fillValidForm(t *testing.T, c *Coordinator) {
	t.Helper()
	for name, value := range map[string]string{
		"name":         "James Bond",
		"email":        "jb@mi6.gov.uk",
		"phone":        "+44 7700 900123",
		"threat_level": "high",
		"requirements": "Two-man detail, discreet vehicles",
	} {
		if err := c.SetField(name, value); err != nil {
			t.Fatalf("SetField(%s): %v", name, err)
		}
	}
}

func TestOpen_PrefillsFromDraft(t *testing.T) {
	c := New(&recordingEnquirer{})
	d := model.NewBookingDraft()
	d.CustomerName = "James Bond"
	d.CustomerEmail = "jb@mi6.gov.uk"
	d.CustomerPhone = "+44 7700 900123"

	c.Open(d)
	if c.State() != PendingEntry {
		t.Fatalf("state = %s, want pending_entry", c.State())
	}
	f := c.Form()
	if f.Name != "James Bond" || f.Email != "jb@mi6.gov.uk" || f.Phone != "+44 7700 900123" {
		t.Errorf("form not prefilled from draft: %+v", f)
	}
}

// A user's own sub-form edits survive a close-and-reopen without being
// clobbered by the draft prefill.
func TestOpen_DoesNotClobberUserEdits(t *testing.T) {
	c := New(&recordingEnquirer{})
	d := model.NewBookingDraft()
	d.CustomerName = "James Bond"

	c.Open(d)
	if err := c.SetField("name", "Miss Moneypenny"); err != nil {
		t.Fatal(err)
	}

	c.Open(d) // re-open is a no-op while pending, but must not reset edits
	if got := c.Form().Name; got != "Miss Moneypenny" {
		t.Errorf("name = %q, prefill clobbered the user's edit", got)
	}
}

func TestSubmit_BlockedByValidation(t *testing.T) {
	enq := &recordingEnquirer{}
	c := New(enq)
	d := model.NewBookingDraft()

	c.Open(d)
	c.SetField("name", "J") // too short
	c.SetField("email", "not-an-email")

	errs, err := c.Submit(d)
	if err != ErrInvalidForm {
		t.Fatalf("Submit err = %v, want ErrInvalidForm", err)
	}
	for _, f := range []string{"name", "email", "phone", "threat_level"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("validation errors missing %s: %v", f, errs)
		}
	}
	if c.State() != PendingEntry {
		t.Errorf("state = %s after failed submit, want pending_entry", c.State())
	}
	if enq.count() != 0 {
		t.Error("enquiry dispatched despite validation failure")
	}
	if d.ProtectionInterest || d.ProtectionDetails != nil {
		t.Error("draft mutated by failed submit")
	}
}

func TestSubmit_MergesIntoDraft(t *testing.T) {
	enq := &recordingEnquirer{}
	c := New(enq)
	d := model.NewBookingDraft()

	c.Open(d)
	fillValidForm(t, c)

	errs, err := c.Submit(d)
	if err != nil {
		t.Fatalf("Submit: %v (%v)", err, errs)
	}
	if c.State() != Merged {
		t.Errorf("state = %s, want merged", c.State())
	}
	if !d.ProtectionInterest {
		t.Error("protection interest not set")
	}
	if d.ProtectionDetails == nil {
		t.Fatal("details not merged into draft")
	}
	if d.ProtectionDetails.ThreatLevel != model.ThreatHigh {
		t.Errorf("threat level = %s, want high", d.ProtectionDetails.ThreatLevel)
	}
	if enq.count() != 1 {
		t.Errorf("enquiries dispatched = %d, want 1", enq.count())
	}
}

// Toggling on and closing without submitting resets interest and leaves
// the draft without details.
func TestCancel_BeforeSubmit(t *testing.T) {
	c := New(&recordingEnquirer{})
	d := model.NewBookingDraft()

	c.Open(d)
	c.SetField("requirements", "half-entered text")
	c.Cancel(d)

	if c.State() != Off {
		t.Errorf("state = %s, want off", c.State())
	}
	if d.ProtectionInterest {
		t.Error("protection interest still true after cancel")
	}
	if d.ProtectionDetails != nil {
		t.Error("draft has protection details after cancel")
	}
	if got := c.Form().Requirements; got != "" {
		t.Errorf("partial entry retained after cancel: %q", got)
	}
}

// Submitting twice with the same valid data updates the existing details;
// it does not append a second merge.
func TestResubmit_IsIdempotent(t *testing.T) {
	enq := &recordingEnquirer{}
	c := New(enq)
	d := model.NewBookingDraft()

	c.Open(d)
	fillValidForm(t, c)
	if _, err := c.Submit(d); err != nil {
		t.Fatal(err)
	}
	first := *d.ProtectionDetails

	// Re-entry after Merged is an edit, not a fresh enquiry.
	c.Open(d)
	c.SetField("requirements", "Updated detail requirements")
	if _, err := c.Submit(d); err != nil {
		t.Fatal(err)
	}

	if d.ProtectionDetails.Requirements != "Updated detail requirements" {
		t.Errorf("requirements = %q, second submit did not update in place",
			d.ProtectionDetails.Requirements)
	}
	if d.ProtectionDetails.ThreatLevel != first.ThreatLevel {
		t.Errorf("threat level changed unexpectedly: %s", d.ProtectionDetails.ThreatLevel)
	}
	if !d.ProtectionInterest {
		t.Error("protection interest lost on resubmit")
	}
}

// Cancelling an edit after a completed merge keeps the merged details.
func TestCancel_AfterMergeKeepsSubmission(t *testing.T) {
	c := New(&recordingEnquirer{})
	d := model.NewBookingDraft()

	c.Open(d)
	fillValidForm(t, c)
	if _, err := c.Submit(d); err != nil {
		t.Fatal(err)
	}

	c.Open(d)
	c.Cancel(d)

	if c.State() != Merged {
		t.Errorf("state = %s, want merged after abandoning an edit", c.State())
	}
	if !d.ProtectionInterest || d.ProtectionDetails == nil {
		t.Error("merged submission lost by cancelling an edit")
	}
}

func TestDisable_WithdrawsMergedSubmission(t *testing.T) {
	c := New(&recordingEnquirer{})
	d := model.NewBookingDraft()

	c.Open(d)
	fillValidForm(t, c)
	if _, err := c.Submit(d); err != nil {
		t.Fatal(err)
	}

	c.Disable(d)
	if c.State() != Off {
		t.Errorf("state = %s, want off", c.State())
	}
	if d.ProtectionInterest || d.ProtectionDetails != nil {
		t.Error("draft still carries protection after disable")
	}
}

func TestSetField_RequiresOpenForm(t *testing.T) {
	c := New(&recordingEnquirer{})
	if err := c.SetField("name", "x"); err != ErrNotOpen {
		t.Errorf("SetField on closed form = %v, want ErrNotOpen", err)
	}
	d := model.NewBookingDraft()
	if _, err := c.Submit(d); err != ErrNotOpen {
		t.Errorf("Submit on closed form = %v, want ErrNotOpen", err)
	}
}
