// Package notify carries booking and payment events to the outside world
// (a Telegram operator channel in the reference deployment). Delivery is
// best-effort: the engine attempts each notification once and logs a
// failure; a notification must never fail or block the business operation
// that produced it.
package notify

import "time"

// Routing keys used on the AMQP topic exchange.
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingCancelled = "booking.cancelled"
	KeyPaymentCreated   = "payment.created"
	KeyPaymentConfirmed = "payment.confirmed"
)

type BookingCreatedEvent struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	Seats     int    `json:"seats"`
}

type BookingCancelledEvent struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	Reason    string `json:"reason"`
}

type PaymentCreatedEvent struct {
	BookingID   string `json:"booking_id"`
	EventID     string `json:"event_id"`
	TableID     string `json:"table_id,omitempty"`
	SeatsBooked int    `json:"seats_booked"`
	Amount      int64  `json:"amount"`
	Instruction string `json:"instruction"`
}

type PaymentConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	Amount      int64     `json:"amount"`
	ConfirmedBy string    `json:"confirmed_by"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type Notifier interface {
	BookingCreated(e BookingCreatedEvent) error
	BookingCancelled(e BookingCancelledEvent) error
	PaymentCreated(e PaymentCreatedEvent) error
	PaymentConfirmed(e PaymentConfirmedEvent) error
}
