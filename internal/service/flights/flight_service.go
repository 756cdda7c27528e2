package flights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/gds"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type FlightUseCase interface {
	Search(ctx context.Context, ownerID string, input SearchInput) ([]domain.FlightOffer, error)
	Price(ctx context.Context, ownerID, flightOfferID string) (domain.PricedQuote, error)
}

type SearchInput struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	// Adults defaults to 1 when zero.
	Adults      int
	Children    int
	TravelClass string
}

type FlightService struct {
	gds    gds.Client
	offers repository.OfferRepository
	priced repository.PricedOfferRepository
	log    *zap.Logger
	now    func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithLogger(l *zap.Logger) FlightServiceOption {
	return func(s *FlightService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(client gds.Client, offers repository.OfferRepository, priced repository.PricedOfferRepository, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		gds:    client,
		offers: offers,
		priced: priced,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search queries the GDS and makes the result the owner's current offer set.
func (s *FlightService) Search(ctx context.Context, ownerID string, input SearchInput) ([]domain.FlightOffer, error) {
	params, err := input.normalize()
	if err != nil {
		return nil, err
	}

	offers, err := s.gds.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	set := &domain.OfferSet{OwnerID: ownerID, Offers: offers, CreatedAt: s.now()}
	if err := s.offers.SaveOffers(ctx, set); err != nil {
		return nil, fmt.Errorf("save offers: %w", err)
	}

	s.log.Debug("offers stored", zap.String("user_id", ownerID), zap.Int("count", len(offers)))
	return offers, nil
}

// Price quotes an offer from the owner's current offer set and makes the
// quote the owner's current priced offer.
func (s *FlightService) Price(ctx context.Context, ownerID, flightOfferID string) (domain.PricedQuote, error) {
	if strings.TrimSpace(flightOfferID) == "" {
		return domain.PricedQuote{}, domain.Validation("Flight offer ID is required")
	}

	set, err := s.offers.GetOffers(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PricedQuote{}, domain.State("No flight offers found. Please search again.")
		}
		return domain.PricedQuote{}, fmt.Errorf("load offers: %w", err)
	}

	offer, ok := set.Find(flightOfferID)
	if !ok {
		return domain.PricedQuote{}, domain.NotFound("Flight offer not found")
	}

	quote, err := s.gds.Price(ctx, offer)
	if err != nil {
		return domain.PricedQuote{}, err
	}

	priced := &domain.PricedOffer{OwnerID: ownerID, Offer: quote, CreatedAt: s.now()}
	if err := s.priced.SavePriced(ctx, priced); err != nil {
		return domain.PricedQuote{}, fmt.Errorf("save priced offer: %w", err)
	}
	return quote, nil
}

func (in SearchInput) normalize() (domain.SearchParams, error) {
	p := domain.SearchParams{
		Origin:        strings.ToUpper(strings.TrimSpace(in.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(in.Destination)),
		DepartureDate: strings.TrimSpace(in.DepartureDate),
		ReturnDate:    strings.TrimSpace(in.ReturnDate),
		Adults:        in.Adults,
		Children:      in.Children,
		TravelClass:   domain.TravelClass(strings.ToUpper(strings.TrimSpace(in.TravelClass))),
	}

	if p.Origin == "" || p.Destination == "" || p.DepartureDate == "" {
		return p, domain.Validation("Missing required parameters")
	}
	if p.Adults == 0 {
		p.Adults = 1
	}
	if p.Adults < 1 {
		return p, domain.Validation("adults must be at least 1")
	}
	if p.Children < 0 {
		return p, domain.Validation("children must not be negative")
	}
	if p.TravelClass == "" {
		p.TravelClass = domain.TravelClassEconomy
	}
	if !p.TravelClass.Valid() {
		return p, domain.Validation(fmt.Sprintf("unsupported travel class %q", in.TravelClass))
	}
	if _, err := time.Parse(dateLayout, p.DepartureDate); err != nil {
		return p, domain.Validation("departureDate must be YYYY-MM-DD")
	}
	if p.ReturnDate != "" {
		if _, err := time.Parse(dateLayout, p.ReturnDate); err != nil {
			return p, domain.Validation("returnDate must be YYYY-MM-DD")
		}
	}
	return p, nil
}

var _ FlightUseCase = (*FlightService)(nil)
