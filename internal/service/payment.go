package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banket/internal/lock"
	"banket/internal/model"
	"banket/internal/notify"
	"banket/internal/store"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrNotPending       = errors.New("payment is not pending")
	ErrNotConfirmable   = errors.New("booking is not in a confirmable state")
	ErrNotPayable       = errors.New("booking is not in a payable state")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrMissingConfirmer = errors.New("confirmed_by is required")
)

type PaymentService interface {
	CreateIntent(ctx context.Context, bookingID string, amount int64) (*model.PaymentIntent, error)
	Confirm(ctx context.Context, paymentID, confirmedBy string) (*model.PaymentIntent, error)
	CancelIntent(ctx context.Context, paymentID string) (*model.PaymentIntent, error)
	Intent(ctx context.Context, id string) (*model.PaymentIntent, error)
}

type paymentService struct {
	store       store.Store
	locks       *lock.Keyed
	notif       notify.Notifier
	log         *logrus.Logger
	instruction string
}

// NewPaymentService builds the payment intent manager. locks serializes
// Confirm per payment id, which is what makes double confirmation a
// deterministic conflict instead of a race. The manager reads booking
// state but never takes the per-event lock; seat counts are out of its
// hands entirely.
func NewPaymentService(st store.Store, locks *lock.Keyed, notif notify.Notifier, log *logrus.Logger, instruction string) PaymentService {
	if instruction == "" {
		instruction = "Pay %d by bank transfer and quote booking %s in the reference."
	}
	return &paymentService{
		store:       st,
		locks:       locks,
		notif:       notif,
		log:         log,
		instruction: instruction,
	}
}

// payable statuses: the intended flow creates the intent while the booking
// is still RESERVED; AWAITING_CONFIRMATION is accepted because operators
// sometimes raise the intent after the guest already pressed "I paid".
func payable(status model.BookingStatus) bool {
	switch status {
	case model.StatusReserved, model.StatusPending, model.StatusAwaitingConfirmation:
		return true
	}
	return false
}

func (s *paymentService) CreateIntent(ctx context.Context, bookingID string, amount int64) (*model.PaymentIntent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !payable(booking.Status) {
		return nil, ErrNotPayable
	}

	intent := &model.PaymentIntent{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Amount:    amount,
		Status:    model.PaymentPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddPayment(ctx, intent); err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}

	s.notifyErr(s.notif.PaymentCreated(notify.PaymentCreatedEvent{
		BookingID:   booking.ID,
		EventID:     booking.EventID,
		TableID:     booking.TableID,
		SeatsBooked: booking.SeatCount(),
		Amount:      amount,
		Instruction: fmt.Sprintf(s.instruction, amount, booking.ID),
	}))
	s.log.WithFields(logrus.Fields{
		"payment_id": intent.ID,
		"booking_id": bookingID,
		"amount":     amount,
	}).Info("payment intent created")
	return intent, nil
}

// Confirm records the operator's manual confirmation of a bank transfer.
// Requiring PENDING on a fresh read inside the per-payment exclusive
// section makes the operation confirm-once: the first call flips the
// intent to PAID, every later or concurrent call sees not-PENDING and
// gets a conflict.
func (s *paymentService) Confirm(ctx context.Context, paymentID, confirmedBy string) (*model.PaymentIntent, error) {
	if confirmedBy == "" {
		return nil, ErrMissingConfirmer
	}

	var intent *model.PaymentIntent
	err := s.locks.Do(ctx, "payment:"+paymentID, func() error {
		fresh, err := s.store.PaymentByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if fresh.Status != model.PaymentPending {
			return ErrNotPending
		}
		booking, err := s.store.BookingByID(ctx, fresh.BookingID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotConfirmable
			}
			return err
		}
		if !payable(booking.Status) {
			return ErrNotConfirmable
		}

		now := time.Now().UTC()
		fresh.Status = model.PaymentPaid
		fresh.ConfirmedBy = confirmedBy
		fresh.ConfirmedAt = &now
		if err := s.store.SavePayment(ctx, fresh); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		if err := s.store.UpdateBookingStatus(ctx, booking.ID, model.StatusPaid); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		intent = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyErr(s.notif.PaymentConfirmed(notify.PaymentConfirmedEvent{
		BookingID:   intent.BookingID,
		Amount:      intent.Amount,
		ConfirmedBy: intent.ConfirmedBy,
		ConfirmedAt: *intent.ConfirmedAt,
	}))
	s.log.WithFields(logrus.Fields{
		"payment_id":   intent.ID,
		"booking_id":   intent.BookingID,
		"confirmed_by": confirmedBy,
	}).Info("payment confirmed")
	return intent, nil
}

// CancelIntent voids a pending intent. It does not release seats or touch
// the booking; a caller that wants the seats back must also cancel the
// booking through the lifecycle.
func (s *paymentService) CancelIntent(ctx context.Context, paymentID string) (*model.PaymentIntent, error) {
	var intent *model.PaymentIntent
	err := s.locks.Do(ctx, "payment:"+paymentID, func() error {
		fresh, err := s.store.PaymentByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if fresh.Status != model.PaymentPending {
			return ErrNotPending
		}
		fresh.Status = model.PaymentCancelled
		if err := s.store.SavePayment(ctx, fresh); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		intent = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *paymentService) Intent(ctx context.Context, id string) (*model.PaymentIntent, error) {
	intent, err := s.store.PaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return intent, nil
}

func (s *paymentService) notifyErr(err error) {
	if err != nil {
		s.log.WithError(err).Warn("notification failed")
	}
}
