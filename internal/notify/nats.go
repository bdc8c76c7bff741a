// Package notify dispatches outbound notifications over NATS.
//
// Every dispatch is best-effort: the back office listens on the subjects
// and turns messages into emails, but a publish failure must never block
// the booking flow. Failures are logged and swallowed.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// ─── Payloads ───────────────────────────────────────────────

// ProtectionEnquiry is the structured close-protection enquiry published
// when the add-on sub-form is submitted.
type ProtectionEnquiry struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	ThreatLevel  model.ThreatLevel `json:"threat_level"`
	Requirements string            `json:"requirements"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

// BookingConfirmation is published after a booking is persisted. The PDF
// summary rides along base64-encoded by encoding/json.
type BookingConfirmation struct {
	Reference     string  `json:"reference"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	Total         float64 `json:"total"`
	SummaryPDF    []byte  `json:"summary_pdf,omitempty"`
}

// ─── Dispatcher ─────────────────────────────────────────────

// Dispatcher publishes notification payloads to NATS subjects.
type Dispatcher struct {
	conn           *nats.Conn
	enquirySubject string
	bookingSubject string
}

// Connect dials the NATS server and returns a dispatcher.
func Connect(url, enquirySubject, bookingSubject string) (*Dispatcher, error) {
	conn, err := nats.Connect(url,
		nats.Name("booking-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: connect: %w", err)
	}
	return &Dispatcher{
		conn:           conn,
		enquirySubject: enquirySubject,
		bookingSubject: bookingSubject,
	}, nil
}

// Close drains the connection.
func (d *Dispatcher) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}

// Healthy reports whether the NATS connection is up.
func (d *Dispatcher) Healthy() bool {
	return d.conn != nil && d.conn.IsConnected()
}

// SendEnquiry publishes a close-protection enquiry. Best-effort: errors
// are logged, never returned.
func (d *Dispatcher) SendEnquiry(enquiry ProtectionEnquiry) {
	d.publish(d.enquirySubject, enquiry)
}

// SendBookingConfirmation publishes a booking confirmation. Best-effort.
func (d *Dispatcher) SendBookingConfirmation(confirmation BookingConfirmation) {
	d.publish(d.bookingSubject, confirmation)
}

func (d *Dispatcher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[notify] marshal for %s failed: %v", subject, err)
		return
	}
	if err := d.conn.Publish(subject, data); err != nil {
		log.Printf("[notify] publish to %s failed: %v", subject, err)
		return
	}
	log.Printf("[notify] published to %s (%d bytes)", subject, len(data))
}
