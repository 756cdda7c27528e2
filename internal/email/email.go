package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/gdsbooking/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns booking events into customer notifications. Delivery is a
// structured log line; there is no mail transport behind it.
type Sender struct {
	log *zap.Logger
}

func NewSender(log *zap.Logger) *Sender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, err := Subject(event)
	if err != nil {
		return err
	}
	s.log.Info("notification sent",
		zap.String("user_id", event.OwnerID),
		zap.String("booking_id", event.BookingID),
		zap.String("subject", subject),
		zap.String("event_id", event.ID))
	return nil
}

// Subject returns the notification subject for a customer-facing event.
func Subject(event kafka.BookingEvent) (string, error) {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s is %s", event.BookingID, event.Status), nil
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking %s has been cancelled", event.BookingID), nil
	default:
		return "", fmt.Errorf("no notification for event type %q", event.Type)
	}
}
