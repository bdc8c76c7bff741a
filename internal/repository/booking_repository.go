package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
)

// BookingRepository persists completed reservations.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateBooking inserts the assembled booking record and returns the new
// row id. The quoted total and optional serialized protection details are
// stored alongside the draft fields.
func (r *BookingRepository) CreateBooking(ctx context.Context, rec *model.BookingRecord) (int64, error) {
	var protection []byte
	if rec.Protection != nil {
		var err error
		protection, err = json.Marshal(rec.Protection)
		if err != nil {
			return 0, fmt.Errorf("create booking: marshal protection: %w", err)
		}
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (
			reference,
			pickup_location, dropoff_location, pickup_date, pickup_time,
			passengers, luggage, special_requirements,
			vehicle_id, extra_ids,
			estimated_miles, wait_time_hours, long_drive, overnight_stop,
			customer_name, customer_email, customer_phone,
			total, protection_details, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, 'pending'
		)
		RETURNING id
	`,
		rec.Reference,
		rec.PickupLocation, rec.DropoffLocation, rec.PickupDate, rec.PickupTime,
		rec.Passengers, rec.Luggage, rec.SpecialRequirements,
		rec.VehicleID, rec.ExtraIDs,
		rec.EstimatedMiles, rec.WaitTimeHours, rec.LongDrive, rec.OvernightStop,
		rec.CustomerName, rec.CustomerEmail, rec.CustomerPhone,
		rec.Total, protection,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("create booking: %w", err)
	}
	return id, nil
}
