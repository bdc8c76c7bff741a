// Package receipt renders the booking summary PDF attached to the
// confirmation notification.
package receipt

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// Build renders a one-page booking summary for the given record and
// quoted breakdown.
func Build(rec *model.BookingRecord, breakdown model.PriceBreakdown) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Summary "+rec.Reference, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Supreme Drive Booking Summary")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, value, "", "L", false)
	}

	line("Reference", rec.Reference)
	line("Customer", rec.CustomerName)
	line("Pickup", fmt.Sprintf("%s at %s %s", rec.PickupLocation, rec.PickupDate, rec.PickupTime))
	line("Dropoff", rec.DropoffLocation)
	line("Passengers", fmt.Sprintf("%d (%d luggage)", rec.Passengers, rec.Luggage))
	line("Distance", fmt.Sprintf("%.1f miles (estimated)", rec.EstimatedMiles))
	if rec.Protection != nil {
		line("Close protection", "Requested ("+string(rec.Protection.ThreatLevel)+")")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Price Breakdown")
	pdf.Ln(9)

	amount := func(label string, v float64) {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(50, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("GBP %.2f", v), "", 1, "R", false, 0, "")
	}
	amount("Mileage", breakdown.Mileage)
	amount("Wait time", breakdown.WaitTime)
	amount("Overnight", breakdown.Overnight)
	amount("Extras", breakdown.Extras)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(50, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 9, fmt.Sprintf("GBP %.2f", breakdown.Total), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("receipt: render: %w", err)
	}
	return buf.Bytes(), nil
}
