package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"banket/internal/store"
)

// Sweeper is the background reaper for timed-out reservations. On a fixed
// interval it lists RESERVED bookings whose expiry has passed and pushes
// each through the lifecycle's Expire, which releases the seats under the
// event's exclusive section. Expiry is therefore lazy: a booking can stay
// RESERVED past its nominal deadline for up to one interval.
type Sweeper struct {
	store    store.Store
	bookings BookingService
	interval time.Duration
	log      *logrus.Logger

	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewSweeper(st store.Store, bookings BookingService, interval time.Duration, log *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    st,
		bookings: bookings,
		interval: interval,
		log:      log,
	}
}

// Start schedules the sweep job. Calling Start on a running sweeper is a
// no-op; there is never more than one timer.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			swept, err := s.SweepOnce(context.Background())
			if err != nil {
				s.log.WithError(err).Error("sweep tick failed")
				return
			}
			if swept > 0 {
				s.log.WithField("swept", swept).Info("expired stale reservations")
			}
		}),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}

	sched.Start()
	s.sched = sched
	s.log.WithField("interval", s.interval).Info("expiration sweeper started")
	return nil
}

// Stop shuts the timer down. Stopping a sweeper that is not running is a
// no-op.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

// SweepOnce runs a single tick and returns how many bookings it expired.
// One booking's failure never aborts the rest of the tick, and a booking
// that left RESERVED between the listing and the exclusive section is
// skipped, not an error.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	stale, err := s.store.StaleReserved(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, b := range stale {
		if err := s.bookings.Expire(ctx, b.ID); err != nil {
			if errors.Is(err, ErrNotReserved) || errors.Is(err, ErrBookingNotFound) {
				continue
			}
			s.log.WithField("booking_id", b.ID).WithError(err).Error("failed to expire booking")
			continue
		}
		swept++
	}
	return swept, nil
}
