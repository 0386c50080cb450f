package dto

type CreateReservationRequest struct {
	TableID         string `json:"table_id"`
	Seats           int    `json:"seats"`
	GuestPhone      string `json:"guest_phone"`
	GuestTelegramID int64  `json:"guest_telegram_id,omitempty"`
}

type CreatePaymentRequest struct {
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
}

type ConfirmPaymentRequest struct {
	ConfirmedBy string `json:"confirmed_by"`
}

type ForceCancelRequest struct {
	Reason string `json:"reason"`
}

type CreateEventRequest struct {
	Name   string         `json:"name"`
	Tables []TableRequest `json:"tables"`
}

type TableRequest struct {
	Number     int `json:"number"`
	SeatsTotal int `json:"seats_total"`
}

type SetEventStatusRequest struct {
	Status string `json:"status"`
}
