package notify

import "banket/pkg/rabbitmq"

// AMQP publishes notifications as JSON messages on the bookings topic
// exchange. Operators subscribe with whatever consumer they like; the
// engine does not care who is listening.
type AMQP struct {
	pub *rabbitmq.Publisher
}

func NewAMQP(pub *rabbitmq.Publisher) *AMQP {
	return &AMQP{pub: pub}
}

func (n *AMQP) BookingCreated(e BookingCreatedEvent) error {
	return n.pub.Publish(KeyBookingCreated, e)
}

func (n *AMQP) BookingCancelled(e BookingCancelledEvent) error {
	return n.pub.Publish(KeyBookingCancelled, e)
}

func (n *AMQP) PaymentCreated(e PaymentCreatedEvent) error {
	return n.pub.Publish(KeyPaymentCreated, e)
}

func (n *AMQP) PaymentConfirmed(e PaymentConfirmedEvent) error {
	return n.pub.Publish(KeyPaymentConfirmed, e)
}
