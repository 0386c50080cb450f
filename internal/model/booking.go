package model

import "time"

type BookingStatus string

const (
	StatusReserved             BookingStatus = "RESERVED"
	StatusAwaitingConfirmation BookingStatus = "AWAITING_CONFIRMATION"
	StatusPaid                 BookingStatus = "PAID"
	StatusExpired              BookingStatus = "EXPIRED"
	StatusCancelled            BookingStatus = "CANCELLED"

	// StatusPending is a legacy alias still produced by old clients; it is
	// accepted wherever RESERVED is, never written back.
	StatusPending BookingStatus = "PENDING"
)

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	return s == StatusPaid || s == StatusExpired || s == StatusCancelled
}

// Active reports whether a booking in this status counts toward table
// occupancy.
func (s BookingStatus) Active() bool {
	switch s {
	case StatusReserved, StatusPending, StatusAwaitingConfirmation, StatusPaid:
		return true
	}
	return false
}

type BookingKind string

const (
	// KindTable is the canonical shape: a table id plus a seat count.
	KindTable BookingKind = "table"
	// KindSeats is the legacy shape: explicit seat numbers, no table.
	KindSeats BookingKind = "seats"
)

type Booking struct {
	ID      string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EventID string      `gorm:"index;type:varchar(64);not null" json:"event_id"`
	Kind    BookingKind `gorm:"type:varchar(10);not null;default:'table'" json:"kind"`

	// table-kind fields
	TableID     string `gorm:"type:varchar(64)" json:"table_id,omitempty"`
	SeatsBooked int    `json:"seats_booked,omitempty"`

	// seats-kind fields
	SeatIndices []int `gorm:"serializer:json" json:"seat_indices,omitempty"`

	GuestPhone      string        `gorm:"type:varchar(32)" json:"guest_phone"`
	GuestTelegramID int64         `json:"guest_telegram_id,omitempty"`
	Status          BookingStatus `gorm:"type:varchar(30);not null" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	// ExpiresAt is set only while the booking is RESERVED.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SeatCount returns the number of seats the booking holds regardless of
// which shape it uses.
func (b *Booking) SeatCount() int {
	if b.Kind == KindSeats {
		return len(b.SeatIndices)
	}
	return b.SeatsBooked
}

// TimedOut reports whether a RESERVED booking has outlived its window.
func (b *Booking) TimedOut(now time.Time) bool {
	if b.Status != StatusReserved && b.Status != StatusPending {
		return false
	}
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}
