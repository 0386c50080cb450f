package dto

import (
	"time"

	"banket/internal/cache"
	"banket/internal/model"
)

type BookingResponse struct {
	ID          string              `json:"id"`
	EventID     string              `json:"event_id"`
	Kind        model.BookingKind   `json:"kind"`
	TableID     string              `json:"table_id,omitempty"`
	Seats       int                 `json:"seats"`
	GuestPhone  string              `json:"guest_phone"`
	Status      model.BookingStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
}

type PaymentResponse struct {
	ID          string              `json:"id"`
	BookingID   string              `json:"booking_id"`
	Amount      int64               `json:"amount"`
	Status      model.PaymentStatus `json:"status"`
	ConfirmedBy string              `json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty"`
}

type EventResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status model.EventStatus `json:"status"`
	Tables []TableResponse   `json:"tables"`
}

type TableResponse struct {
	ID             string `json:"id"`
	Number         int    `json:"number"`
	SeatsTotal     int    `json:"seats_total"`
	SeatsAvailable int    `json:"seats_available"`
}

type AvailabilityResponse struct {
	EventID string                    `json:"event_id"`
	Tables  []cache.TableAvailability `json:"tables"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *model.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		EventID:    b.EventID,
		Kind:       b.Kind,
		TableID:    b.TableID,
		Seats:      b.SeatCount(),
		GuestPhone: b.GuestPhone,
		Status:     b.Status,
		CreatedAt:  b.CreatedAt,
		ExpiresAt:  b.ExpiresAt,
	}
}

func ToPaymentResponse(p *model.PaymentIntent) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		Amount:      p.Amount,
		Status:      p.Status,
		ConfirmedBy: p.ConfirmedBy,
		ConfirmedAt: p.ConfirmedAt,
	}
}

func ToEventResponse(e *model.Event) EventResponse {
	out := EventResponse{
		ID:     e.ID,
		Name:   e.Name,
		Status: e.Status,
		Tables: make([]TableResponse, len(e.Tables)),
	}
	for i, t := range e.Tables {
		out.Tables[i] = TableResponse{
			ID:             t.ID,
			Number:         t.Number,
			SeatsTotal:     t.SeatsTotal,
			SeatsAvailable: t.SeatsAvailable,
		}
	}
	return out
}
