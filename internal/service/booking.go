package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banket/internal/cache"
	"banket/internal/lock"
	"banket/internal/model"
	"banket/internal/notify"
	"banket/internal/store"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrEventNotPublished = errors.New("event is not published")
	ErrNoSeats           = errors.New("not enough seats available")
	ErrNotReserved       = errors.New("booking is not in a reserved state")
	ErrNotCancellable    = errors.New("booking can no longer be cancelled")
	ErrReservationLapsed = errors.New("reservation window has passed")
	ErrInvalidSeats      = errors.New("seats requested must be positive")
	ErrMissingPhone      = errors.New("guest phone is required")
)

type BookingService interface {
	Reserve(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error)
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)
	ForceCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error)
	MarkAwaitingConfirmation(ctx context.Context, bookingID string) (*model.Booking, error)
	Expire(ctx context.Context, bookingID string) error
	Booking(ctx context.Context, id string) (*model.Booking, error)
	Availability(ctx context.Context, eventID string) ([]cache.TableAvailability, error)
}

type bookingService struct {
	store  store.Store
	locks  *lock.Keyed
	notif  notify.Notifier
	avail  *cache.Availability
	log    *logrus.Logger
	window time.Duration
}

// NewBookingService builds the booking lifecycle. locks is the per-event
// serializer; every seat-count or booking-status mutation this service
// performs runs inside locks.Do for the owning event id. window is the
// reservation window granted to an unpaid booking.
func NewBookingService(st store.Store, locks *lock.Keyed, notif notify.Notifier, avail *cache.Availability, log *logrus.Logger, window time.Duration) BookingService {
	return &bookingService{
		store:  st,
		locks:  locks,
		notif:  notif,
		avail:  avail,
		log:    log,
		window: window,
	}
}

func (s *bookingService) Reserve(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error) {
	if seats <= 0 {
		return nil, ErrInvalidSeats
	}
	if phone == "" {
		return nil, ErrMissingPhone
	}

	var booking *model.Booking
	err := s.locks.Do(ctx, eventID, func() error {
		event, err := s.store.EventByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		table := event.TableByID(tableID)
		if table == nil {
			return ErrTableNotFound
		}
		if event.Status != model.EventPublished {
			return ErrEventNotPublished
		}
		if table.SeatsAvailable < seats {
			return ErrNoSeats
		}

		table.SeatsAvailable -= seats
		if err := s.store.SaveEvent(ctx, event); err != nil {
			return fmt.Errorf("save event: %w", err)
		}

		now := time.Now().UTC()
		expiresAt := now.Add(s.window)
		booking = &model.Booking{
			ID:          uuid.NewString(),
			EventID:     eventID,
			Kind:        model.KindTable,
			TableID:     tableID,
			SeatsBooked: seats,
			GuestPhone:  phone,
			Status:      model.StatusReserved,
			CreatedAt:   now,
			ExpiresAt:   &expiresAt,
		}
		if err := s.store.AddBooking(ctx, booking); err != nil {
			return fmt.Errorf("add booking: %w", err)
		}
		s.avail.Put(ctx, event)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyErr(s.notif.BookingCreated(notify.BookingCreatedEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		Seats:     booking.SeatCount(),
	}))
	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"event_id":   eventID,
		"table_id":   tableID,
		"seats":      seats,
	}).Info("booking reserved")
	return booking, nil
}

// Cancel is the guest-facing release of a still-unpaid reservation. Only a
// RESERVED booking may pass through here; anything further along the state
// machine must go through ForceCancel (operator) instead. A voluntary
// release records the EXPIRED status; CANCELLED is reserved for the
// operator path.
func (s *bookingService) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	return s.release(ctx, bookingID, model.StatusExpired, "cancelled by guest", func(status model.BookingStatus) error {
		if status != model.StatusReserved && status != model.StatusPending {
			return ErrNotReserved
		}
		return nil
	})
}

// ForceCancel is the operator path; it may also cancel a booking already
// awaiting payment confirmation.
func (s *bookingService) ForceCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	if reason == "" {
		reason = "cancelled by operator"
	}
	return s.release(ctx, bookingID, model.StatusCancelled, reason, func(status model.BookingStatus) error {
		switch status {
		case model.StatusReserved, model.StatusPending, model.StatusAwaitingConfirmation:
			return nil
		}
		return ErrNotCancellable
	})
}

// release returns a booking's seats to its table and moves it to a terminal
// status, all under the event's exclusive section. The status precondition
// is re-checked on a fresh read so a stale caller cannot double-release.
func (s *bookingService) release(ctx context.Context, bookingID string, to model.BookingStatus, reason string, allow func(model.BookingStatus) error) (*model.Booking, error) {
	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	err = s.locks.Do(ctx, booking.EventID, func() error {
		fresh, err := s.store.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := allow(fresh.Status); err != nil {
			return err
		}
		booking = fresh

		event, err := s.store.EventByID(ctx, booking.EventID)
		if err != nil {
			return err
		}
		if s.restoreSeats(event, booking) {
			if err := s.store.SaveEvent(ctx, event); err != nil {
				return fmt.Errorf("save event: %w", err)
			}
			s.avail.Put(ctx, event)
		}
		if err := s.store.UpdateBookingStatus(ctx, bookingID, to); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		booking.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyErr(s.notif.BookingCancelled(notify.BookingCancelledEvent{
		BookingID: booking.ID,
		EventID:   booking.EventID,
		Reason:    reason,
	}))
	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"event_id":   booking.EventID,
		"status":     to,
	}).Info("booking released")
	return booking, nil
}

// restoreSeats puts a booking's seats back on its table, never past the
// table's ceiling. Legacy seat-level bookings carry no table id; their
// seats are not tracked through seatsAvailable, so there is nothing to
// restore. Reports whether the event changed.
func (s *bookingService) restoreSeats(event *model.Event, booking *model.Booking) bool {
	if booking.Kind != model.KindTable || booking.TableID == "" {
		return false
	}
	table := event.TableByID(booking.TableID)
	if table == nil {
		return false
	}
	table.SeatsAvailable += booking.SeatCount()
	if table.SeatsAvailable > table.SeatsTotal {
		table.SeatsAvailable = table.SeatsTotal
	}
	return true
}

// MarkAwaitingConfirmation records the guest's "I paid" action. Seats stay
// held; only the status advances, which also takes the booking out of the
// sweeper's scope.
func (s *bookingService) MarkAwaitingConfirmation(ctx context.Context, bookingID string) (*model.Booking, error) {
	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	err = s.locks.Do(ctx, booking.EventID, func() error {
		fresh, err := s.store.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if fresh.Status != model.StatusReserved && fresh.Status != model.StatusPending {
			return ErrNotReserved
		}
		if fresh.ExpiresAt != nil && !time.Now().UTC().Before(*fresh.ExpiresAt) {
			return ErrReservationLapsed
		}
		if err := s.store.UpdateBookingStatus(ctx, bookingID, model.StatusAwaitingConfirmation); err != nil {
			return err
		}
		booking = fresh
		booking.Status = model.StatusAwaitingConfirmation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Expire is the sweeper's release path for one timed-out booking. A
// booking that is no longer RESERVED on the fresh read is reported as
// ErrNotReserved so the sweeper can skip it; it must never touch a booking
// that advanced to AWAITING_CONFIRMATION or PAID in the meantime.
func (s *bookingService) Expire(ctx context.Context, bookingID string) error {
	booking, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	return s.locks.Do(ctx, booking.EventID, func() error {
		fresh, err := s.store.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if fresh.Status != model.StatusReserved {
			return ErrNotReserved
		}
		event, err := s.store.EventByID(ctx, fresh.EventID)
		if err != nil {
			return err
		}
		if s.restoreSeats(event, fresh) {
			if err := s.store.SaveEvent(ctx, event); err != nil {
				return fmt.Errorf("save event: %w", err)
			}
			s.avail.Put(ctx, event)
		}
		return s.store.UpdateBookingStatus(ctx, bookingID, model.StatusExpired)
	})
}

func (s *bookingService) Booking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.store.BookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// Availability reports per-table seat counts for display. Served from the
// advisory cache when warm; either way the numbers may be stale by the
// time the guest acts on them, and the oversell guard inside Reserve is
// what actually decides.
func (s *bookingService) Availability(ctx context.Context, eventID string) ([]cache.TableAvailability, error) {
	if snap, ok := s.avail.Get(ctx, eventID); ok {
		return snap, nil
	}
	event, err := s.store.EventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	s.avail.Put(ctx, event)
	return cache.Snapshot(event), nil
}

// notifyErr logs a failed best-effort notification; it never propagates.
func (s *bookingService) notifyErr(err error) {
	if err != nil {
		s.log.WithError(err).Warn("notification failed")
	}
}
