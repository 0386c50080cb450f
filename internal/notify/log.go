package notify

import "github.com/sirupsen/logrus"

// Log is the notifier used when no broker is configured: every event just
// lands in the service log. Useful for local runs and tests.
type Log struct {
	log *logrus.Logger
}

func NewLog(log *logrus.Logger) *Log {
	return &Log{log: log}
}

func (n *Log) BookingCreated(e BookingCreatedEvent) error {
	n.log.WithFields(logrus.Fields{"booking_id": e.BookingID, "event_id": e.EventID, "seats": e.Seats}).
		Info("booking created")
	return nil
}

func (n *Log) BookingCancelled(e BookingCancelledEvent) error {
	n.log.WithFields(logrus.Fields{"booking_id": e.BookingID, "event_id": e.EventID, "reason": e.Reason}).
		Info("booking cancelled")
	return nil
}

func (n *Log) PaymentCreated(e PaymentCreatedEvent) error {
	n.log.WithFields(logrus.Fields{"booking_id": e.BookingID, "amount": e.Amount}).
		Info("payment created")
	return nil
}

func (n *Log) PaymentConfirmed(e PaymentConfirmedEvent) error {
	n.log.WithFields(logrus.Fields{"booking_id": e.BookingID, "amount": e.Amount, "confirmed_by": e.ConfirmedBy}).
		Info("payment confirmed")
	return nil
}
