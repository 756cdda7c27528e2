package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/gds"
	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"github.com/Domenick1991/gdsbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Book(ctx context.Context, ownerID string, travelers []domain.Traveler) (domain.BookingResult, error)
	Get(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error)
	Cancel(ctx context.Context, ownerID, bookingID string) error
	CompleteCancellation(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	priced             repository.PricedOfferRepository
	gds                gds.Client
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	log                *zap.Logger
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes booking events to eventsTopic and, when set, a copy
// of customer-facing ones to notificationsTopic.
func WithEvents(producer Producer, eventsTopic, notificationsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
		s.notificationsTopic = notificationsTopic
	}
}

func WithLogger(l *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	priced repository.PricedOfferRepository,
	client gds.Client,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		priced:   priced,
		gds:      client,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book books the first flight offer of the owner's current priced offer.
// Every successful call creates a new booking.
func (s *BookingService) Book(ctx context.Context, ownerID string, travelers []domain.Traveler) (domain.BookingResult, error) {
	if len(travelers) == 0 {
		return nil, domain.Validation("Traveler information is required")
	}

	priced, err := s.priced.GetPriced(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, noPricedOffer()
		}
		return nil, fmt.Errorf("load priced offer: %w", err)
	}
	offer, err := priced.Offer.FirstOffer()
	if err != nil {
		return nil, noPricedOffer()
	}

	result, err := s.gds.Book(ctx, offer, travelers)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode booking result: %w", err)
	}

	booking := &domain.Booking{
		BookingID:     domain.DeriveBookingID(result, s.now()),
		OwnerID:       ownerID,
		FlightDetails: result.FlightDetails(),
		Status:        result.Status(),
		RawResponse:   raw,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		s.log.Error("booking confirmed upstream but not stored",
			zap.String("user_id", ownerID), zap.String("booking_id", booking.BookingID), zap.Error(err))
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, true)
	return result, nil
}

// Get returns the owner's booking. A booking owned by someone else is
// reported as not found.
func (s *BookingService) Get(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, domain.Validation("Booking ID is required")
	}

	booking, err := s.bookings.GetByOwner(ctx, bookingID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("Booking not found")
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}
	return booking, nil
}

// Cancel cancels upstream first and only then marks the local booking
// cancelled. If the local write fails, a cancel-pending event is emitted so
// the worker can finish the job.
func (s *BookingService) Cancel(ctx context.Context, ownerID, bookingID string) error {
	booking, err := s.Get(ctx, ownerID, bookingID)
	if err != nil {
		return err
	}

	if err := s.gds.Cancel(ctx, booking.BookingID); err != nil {
		return err
	}

	updated, err := s.bookings.UpdateStatus(ctx, booking.BookingID, ownerID, domain.BookingStatusCancelled)
	if err != nil {
		s.log.Error("booking cancelled upstream but not stored",
			zap.String("user_id", ownerID), zap.String("booking_id", booking.BookingID), zap.Error(err))
		s.publish(ctx, kafka.EventBookingCancelPending, booking, false)
		return fmt.Errorf("mark booking cancelled: %w", err)
	}

	s.publish(ctx, kafka.EventBookingCancelled, updated, true)
	return nil
}

// CompleteCancellation marks a booking cancelled locally after the GDS has
// already accepted the cancellation. Repeating it is harmless.
func (s *BookingService) CompleteCancellation(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error) {
	updated, err := s.bookings.UpdateStatus(ctx, bookingID, ownerID, domain.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("Booking not found")
		}
		return nil, fmt.Errorf("mark booking cancelled: %w", err)
	}

	s.publish(ctx, kafka.EventBookingCancelled, updated, true)
	return updated, nil
}

// publish is best effort: a failed publish is logged, never returned.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, notify bool) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}

	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.BookingID,
		OwnerID:    booking.OwnerID,
		Status:     string(booking.Status),
		OccurredAt: s.now(),
	}

	topics := []string{s.eventsTopic}
	if notify && s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, booking.BookingID, event); err != nil {
			s.log.Warn("failed to publish booking event",
				zap.String("type", eventType), zap.String("topic", topic), zap.String("booking_id", booking.BookingID), zap.Error(err))
		}
	}
}

func noPricedOffer() error {
	return domain.State("No priced offer found. Please search and price again.")
}

var _ BookingUseCase = (*BookingService)(nil)
