// Package store defines the narrow persistence contract the booking engine
// requires. The engine never assumes multi-row transactional atomicity from
// a Store; atomicity comes from the per-event serializer plus whole-event
// read-modify-persist sequencing.
package store

import (
	"context"
	"errors"
	"time"

	"banket/internal/model"
)

// ErrNotFound is returned when the requested event, booking or payment
// intent does not exist. Implementations must return it (possibly wrapped)
// rather than their backend's own not-found error.
var ErrNotFound = errors.New("not found")

type Store interface {
	Events(ctx context.Context) ([]model.Event, error)
	EventByID(ctx context.Context, id string) (*model.Event, error)
	// SaveEvent replaces the whole event, tables included. It creates the
	// event when it does not exist yet.
	SaveEvent(ctx context.Context, event *model.Event) error

	Bookings(ctx context.Context) ([]model.Booking, error)
	BookingByID(ctx context.Context, id string) (*model.Booking, error)
	AddBooking(ctx context.Context, booking *model.Booking) error
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error
	// StaleReserved lists bookings still RESERVED whose expiry is at or
	// before now; this is the sweeper's work queue.
	StaleReserved(ctx context.Context, now time.Time) ([]model.Booking, error)

	PaymentByID(ctx context.Context, id string) (*model.PaymentIntent, error)
	AddPayment(ctx context.Context, intent *model.PaymentIntent) error
	SavePayment(ctx context.Context, intent *model.PaymentIntent) error
}
