package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banket/internal/lock"
	"banket/internal/model"
)

type paymentFixture struct {
	*fixture
	payments PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := newFixture(t, 15*time.Minute)
	svc := NewPaymentService(f.store, lock.NewKeyed(), f.notifier, testLogger(), "")
	return &paymentFixture{fixture: f, payments: svc}
}

func (f *paymentFixture) reserve(t *testing.T) *model.Booking {
	t.Helper()
	eventID, tableID := f.seedEvent(t, 6, 6)
	booking, err := f.bookings.Reserve(context.Background(), eventID, tableID, 4, "+79001234567")
	require.NoError(t, err)
	return booking
}

func TestCreateIntent(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)

	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, intent.Status)
	assert.Equal(t, booking.ID, intent.BookingID)
	assert.Equal(t, int64(5000), intent.Amount)

	require.Len(t, f.notifier.payments, 1)
	e := f.notifier.payments[0]
	assert.Equal(t, booking.ID, e.BookingID)
	assert.Equal(t, booking.EventID, e.EventID)
	assert.Equal(t, booking.TableID, e.TableID)
	assert.Equal(t, 4, e.SeatsBooked)
	assert.Equal(t, int64(5000), e.Amount)
	assert.Contains(t, e.Instruction, booking.ID)
}

func TestCreateIntent_Validation(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)

	_, err := f.payments.CreateIntent(context.Background(), booking.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.payments.CreateIntent(context.Background(), "missing", 5000)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	require.NoError(t, f.store.UpdateBookingStatus(context.Background(), booking.ID, model.StatusExpired))
	_, err = f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestConfirm(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	confirmed, err := f.payments.Confirm(context.Background(), intent.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, confirmed.Status)
	assert.Equal(t, "admin", confirmed.ConfirmedBy)
	require.NotNil(t, confirmed.ConfirmedAt)

	fresh, err := f.bookings.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, fresh.Status)

	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, "admin", f.notifier.confirmed[0].ConfirmedBy)
}

func TestConfirm_Idempotency(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	first, err := f.payments.Confirm(context.Background(), intent.ID, "admin")
	require.NoError(t, err)

	_, err = f.payments.Confirm(context.Background(), intent.ID, "admin")
	assert.ErrorIs(t, err, ErrNotPending)

	// state after both calls equals state after the first alone
	after, err := f.payments.Intent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, after.Status)
	assert.Equal(t, first.ConfirmedBy, after.ConfirmedBy)
	assert.Equal(t, first.ConfirmedAt.Unix(), after.ConfirmedAt.Unix())

	fresh, _ := f.bookings.Booking(context.Background(), booking.ID)
	assert.Equal(t, model.StatusPaid, fresh.Status)
}

func TestConfirm_ConcurrentSingleWinner(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	const callers = 10
	results := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.payments.Confirm(context.Background(), intent.ID, "admin")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrNotPending):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one Confirm may succeed")
}

func TestConfirm_Validation(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	_, err = f.payments.Confirm(context.Background(), intent.ID, "")
	assert.ErrorIs(t, err, ErrMissingConfirmer)

	_, err = f.payments.Confirm(context.Background(), "missing", "admin")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestConfirm_BookingNoLongerConfirmable(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	// the sweeper expired the booking before the operator got to it
	require.NoError(t, f.store.UpdateBookingStatus(context.Background(), booking.ID, model.StatusExpired))

	_, err = f.payments.Confirm(context.Background(), intent.ID, "admin")
	assert.ErrorIs(t, err, ErrNotConfirmable)

	// the intent must stay PENDING, untouched
	after, _ := f.payments.Intent(context.Background(), intent.ID)
	assert.Equal(t, model.PaymentPending, after.Status)
}

func TestCancelIntent(t *testing.T) {
	f := newPaymentFixture(t)
	booking := f.reserve(t)
	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	cancelled, err := f.payments.CancelIntent(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, cancelled.Status)

	// cancelling the intent does not touch the booking or its seats
	fresh, _ := f.bookings.Booking(context.Background(), booking.ID)
	assert.Equal(t, model.StatusReserved, fresh.Status)

	// terminal: neither confirm nor a second cancel may proceed
	_, err = f.payments.Confirm(context.Background(), intent.ID, "admin")
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = f.payments.CancelIntent(context.Background(), intent.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestCreateIntent_NotifierFailureIsolated(t *testing.T) {
	f := newPaymentFixture(t)
	f.notifier.fail = true
	booking := f.reserve(t)

	intent, err := f.payments.CreateIntent(context.Background(), booking.ID, 5000)
	require.NoError(t, err)

	_, err = f.payments.Confirm(context.Background(), intent.ID, "admin")
	require.NoError(t, err)
}
