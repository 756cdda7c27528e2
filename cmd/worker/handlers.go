package main

import (
	"context"
	"errors"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"go.uber.org/zap"
)

type notifier interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

type canceller interface {
	CompleteCancellation(ctx context.Context, ownerID, bookingID string) (*domain.Booking, error)
}

// notificationHandler never fails: a notification that cannot be sent is
// logged and dropped.
func notificationHandler(sender notifier, log *zap.Logger) kafka.EventHandler {
	return func(ctx context.Context, event kafka.BookingEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			log.Warn("send notification", zap.String("booking_id", event.BookingID), zap.Error(err))
		}
		return nil
	}
}

// reconcileHandler finishes cancellations the API accepted upstream but
// could not store. A booking that no longer exists is skipped; any other
// failure stops the consumer so the event is redelivered.
func reconcileHandler(bookings canceller, log *zap.Logger) kafka.EventHandler {
	return func(ctx context.Context, event kafka.BookingEvent) error {
		if event.Type != kafka.EventBookingCancelPending {
			return nil
		}
		_, err := bookings.CompleteCancellation(ctx, event.OwnerID, event.BookingID)
		switch {
		case err == nil:
			log.Info("cancellation completed", zap.String("booking_id", event.BookingID))
			return nil
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("cancel pending for unknown booking",
				zap.String("booking_id", event.BookingID), zap.String("user_id", event.OwnerID))
			return nil
		default:
			return err
		}
	}
}
