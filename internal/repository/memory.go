package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/gdsbooking/internal/domain"
)

// MemoryOfferRepository is an in-process OfferRepository and
// PricedOfferRepository. Writes to the same owner are last-write-wins.
type MemoryOfferRepository struct {
	mu     sync.RWMutex
	offers map[string]domain.OfferSet
	priced map[string]domain.PricedOffer
}

func NewMemoryOfferRepository() *MemoryOfferRepository {
	return &MemoryOfferRepository{
		offers: make(map[string]domain.OfferSet),
		priced: make(map[string]domain.PricedOffer),
	}
}

func (r *MemoryOfferRepository) SaveOffers(_ context.Context, set *domain.OfferSet) error {
	stored := *set
	stored.Offers = append([]domain.FlightOffer(nil), set.Offers...)

	r.mu.Lock()
	r.offers[set.OwnerID] = stored
	r.mu.Unlock()
	return nil
}

func (r *MemoryOfferRepository) GetOffers(_ context.Context, ownerID string) (*domain.OfferSet, error) {
	r.mu.RLock()
	set, ok := r.offers[ownerID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	set.Offers = append([]domain.FlightOffer(nil), set.Offers...)
	return &set, nil
}

func (r *MemoryOfferRepository) SavePriced(_ context.Context, priced *domain.PricedOffer) error {
	r.mu.Lock()
	r.priced[priced.OwnerID] = *priced
	r.mu.Unlock()
	return nil
}

func (r *MemoryOfferRepository) GetPriced(_ context.Context, ownerID string) (*domain.PricedOffer, error) {
	r.mu.RLock()
	priced, ok := r.priced[ownerID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &priced, nil
}

type bookingKey struct {
	ownerID   string
	bookingID string
}

// MemoryBookingRepository is an in-process BookingRepository. Records that
// share a booking id are kept in creation order.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	nextID   int64
	bookings map[bookingKey][]domain.Booking
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[bookingKey][]domain.Booking)}
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	key := bookingKey{ownerID: booking.OwnerID, bookingID: booking.BookingID}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	booking.ID = r.nextID
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[key] = append(r.bookings[key], *booking)
	return nil
}

func (r *MemoryBookingRepository) GetByOwner(_ context.Context, bookingID, ownerID string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.bookings[bookingKey{ownerID: ownerID, bookingID: bookingID}]
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	b := records[len(records)-1]
	return &b, nil
}

func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, bookingID, ownerID string, status domain.BookingStatus) (*domain.Booking, error) {
	key := bookingKey{ownerID: ownerID, bookingID: bookingID}

	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.bookings[key]
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	latest := &records[len(records)-1]
	latest.Status = status
	latest.UpdatedAt = time.Now()
	b := *latest
	return &b, nil
}

var (
	_ OfferRepository       = (*MemoryOfferRepository)(nil)
	_ PricedOfferRepository = (*MemoryOfferRepository)(nil)
	_ BookingRepository     = (*MemoryBookingRepository)(nil)
)
