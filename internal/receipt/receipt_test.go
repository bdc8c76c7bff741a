package receipt

import (
	"bytes"
	"testing"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

func TestBuild(t *testing.T) {
	rec := &model.BookingRecord{
		Reference:       "SD-20250610-1432",
		PickupLocation:  "10 Downing Street, London",
		DropoffLocation: "Heathrow Terminal 5",
		PickupDate:      "2025-06-12",
		PickupTime:      "09:30",
		Passengers:      2,
		Luggage:         3,
		EstimatedMiles:  14.3,
		CustomerName:    "James Bond",
		CustomerEmail:   "jb@mi6.gov.uk",
		Total:           178.70,
	}
	breakdown := model.PriceBreakdown{
		Mileage: 128.70, WaitTime: 50.00, Total: 178.70,
	}

	pdf, err := Build(rec, breakdown)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("Build returned empty document")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not start with a PDF header: %q", pdf[:8])
	}
}

func TestBuild_WithProtection(t *testing.T) {
	rec := &model.BookingRecord{
		Reference:    "SD-20250610-1500",
		CustomerName: "James Bond",
		Protection: &model.ProtectionDetails{
			ThreatLevel: model.ThreatHigh,
		},
	}
	pdf, err := Build(rec, model.PriceBreakdown{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("Build returned empty document")
	}
}
