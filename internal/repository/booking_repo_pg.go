package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, booking_id, owner_id, flight_details, status, raw_response, created_at, updated_at`

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (booking_id, owner_id, flight_details, status, raw_response)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		booking.BookingID, booking.OwnerID, jsonOrEmpty(booking.FlightDetails), booking.Status, jsonOrEmpty(booking.RawResponse)).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return err
}

func (r *PGBookingRepository) GetByOwner(ctx context.Context, bookingID, ownerID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id=$1 AND owner_id=$2 ORDER BY id DESC LIMIT 1`, bookingID, ownerID)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, bookingID, ownerID string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now()
		WHERE id = (SELECT id FROM bookings WHERE booking_id=$2 AND owner_id=$3 ORDER BY id DESC LIMIT 1)
		RETURNING `+bookingColumns, status, bookingID, ownerID)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                    domain.Booking
		details, rawResponse []byte
	)
	if err := row.Scan(&b.ID, &b.BookingID, &b.OwnerID, &details, &b.Status, &rawResponse, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b.FlightDetails = details
	b.RawResponse = rawResponse
	return &b, nil
}

func jsonOrEmpty(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}

var _ BookingRepository = (*PGBookingRepository)(nil)
