package model

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentIntent records an expected manual payment (bank transfer) tied to
// exactly one booking. The 1:1 link is a business rule, not a storage
// constraint. An intent is immutable once PAID or CANCELLED.
type PaymentIntent struct {
	ID          string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	BookingID   string        `gorm:"index;type:varchar(64);not null" json:"booking_id"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Status      PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ConfirmedBy string        `gorm:"type:varchar(128)" json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
