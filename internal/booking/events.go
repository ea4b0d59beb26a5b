package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Booking event types written to booking_events.
const (
	EventFormOpened       = "FORM_OPENED"
	EventBookingSubmitted = "BOOKING_SUBMITTED"
	EventBookingSucceeded = "BOOKING_SUCCEEDED"
	EventBookingFailed    = "BOOKING_FAILED"
	EventFormClosed       = "FORM_CLOSED"
)

// EventLog is one row of the booking audit trail. Payloads never carry the
// visitor's name or phone number.
type EventLog struct {
	ID        int64
	EventType string
	FormID    *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// EventRepository persists the audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, ev EventLog) error
	// DeleteEventsBefore removes events created before cutoff and reports how many went.
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NopEvents discards every event. It stands in when no database is configured.
type NopEvents struct{}

func (NopEvents) InsertEvent(context.Context, EventLog) error { return nil }

func (NopEvents) DeleteEventsBefore(context.Context, time.Time) (int64, error) { return 0, nil }
