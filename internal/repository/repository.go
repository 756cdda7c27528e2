package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("record not found")

// DB is the part of *pgxpool.Pool the Postgres stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OfferRepository keeps the latest search result per owner. Save replaces
// whatever was stored before.
type OfferRepository interface {
	SaveOffers(ctx context.Context, set *domain.OfferSet) error
	GetOffers(ctx context.Context, ownerID string) (*domain.OfferSet, error)
}

// PricedOfferRepository keeps the latest priced offer per owner.
type PricedOfferRepository interface {
	SavePriced(ctx context.Context, priced *domain.PricedOffer) error
	GetPriced(ctx context.Context, ownerID string) (*domain.PricedOffer, error)
}

// BookingRepository stores bookings. Lookups always take the owner so that a
// foreign booking looks exactly like a missing one. The same booking id may
// be stored more than once for an owner; lookups and updates then act on the
// most recently created record.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByOwner(ctx context.Context, bookingID, ownerID string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, ownerID string, status domain.BookingStatus) (*domain.Booking, error)
}
