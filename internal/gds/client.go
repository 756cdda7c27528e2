package gds

import (
	"context"
	"encoding/json"

	"github.com/Domenick1991/gdsbooking/internal/domain"
)

// Client is the upstream flight provider. Failures carrying an HTTP status
// are returned as *domain.UpstreamError.
type Client interface {
	Search(ctx context.Context, params domain.SearchParams) ([]domain.FlightOffer, error)
	Price(ctx context.Context, offer domain.FlightOffer) (domain.PricedQuote, error)
	Book(ctx context.Context, flightOffer json.RawMessage, travelers []domain.Traveler) (domain.BookingResult, error)
	Cancel(ctx context.Context, bookingID string) error
}
