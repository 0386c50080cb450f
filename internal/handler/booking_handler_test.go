package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"banket/internal/cache"
	"banket/internal/dto"
	"banket/internal/model"
	"banket/internal/service"
)

// --- Mock BookingService ---

type mockBookingService struct {
	reserveFn      func(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error)
	cancelFn       func(ctx context.Context, bookingID string) (*model.Booking, error)
	forceCancelFn  func(ctx context.Context, bookingID, reason string) (*model.Booking, error)
	markFn         func(ctx context.Context, bookingID string) (*model.Booking, error)
	expireFn       func(ctx context.Context, bookingID string) error
	bookingFn      func(ctx context.Context, id string) (*model.Booking, error)
	availabilityFn func(ctx context.Context, eventID string) ([]cache.TableAvailability, error)
}

func (m *mockBookingService) Reserve(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error) {
	return m.reserveFn(ctx, eventID, tableID, seats, phone)
}
func (m *mockBookingService) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	return m.cancelFn(ctx, bookingID)
}
func (m *mockBookingService) ForceCancel(ctx context.Context, bookingID, reason string) (*model.Booking, error) {
	return m.forceCancelFn(ctx, bookingID, reason)
}
func (m *mockBookingService) MarkAwaitingConfirmation(ctx context.Context, bookingID string) (*model.Booking, error) {
	return m.markFn(ctx, bookingID)
}
func (m *mockBookingService) Expire(ctx context.Context, bookingID string) error {
	return m.expireFn(ctx, bookingID)
}
func (m *mockBookingService) Booking(ctx context.Context, id string) (*model.Booking, error) {
	return m.bookingFn(ctx, id)
}
func (m *mockBookingService) Availability(ctx context.Context, eventID string) ([]cache.TableAvailability, error) {
	return m.availabilityFn(ctx, eventID)
}

func newReservationContext(e *echo.Echo, body string, eventID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/"+eventID+"/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eventID)
	return c, rec
}

// --- Tests ---

func TestCreateReservation_Handler_Success(t *testing.T) {
	expires := time.Now().UTC().Add(15 * time.Minute)
	svc := &mockBookingService{
		reserveFn: func(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error) {
			return &model.Booking{
				ID:          "b-1",
				EventID:     eventID,
				Kind:        model.KindTable,
				TableID:     tableID,
				SeatsBooked: seats,
				GuestPhone:  phone,
				Status:      model.StatusReserved,
				CreatedAt:   time.Now().UTC(),
				ExpiresAt:   &expires,
			}, nil
		},
	}

	e := echo.New()
	body := `{"table_id":"t-1","seats":4,"guest_phone":"+79001234567"}`
	c, rec := newReservationContext(e, body, "e-1")

	h := NewBookingHandler(svc)
	err := h.CreateReservation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp.ID)
	assert.Equal(t, model.StatusReserved, resp.Status)
	assert.Equal(t, 4, resp.Seats)
}

func TestCreateReservation_Handler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"no seats", service.ErrNoSeats, http.StatusConflict},
		{"event missing", service.ErrEventNotFound, http.StatusNotFound},
		{"table missing", service.ErrTableNotFound, http.StatusNotFound},
		{"not published", service.ErrEventNotPublished, http.StatusForbidden},
		{"invalid seats", service.ErrInvalidSeats, http.StatusBadRequest},
		{"missing phone", service.ErrMissingPhone, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				reserveFn: func(ctx context.Context, eventID, tableID string, seats int, phone string) (*model.Booking, error) {
					return nil, tc.err
				},
			}
			e := echo.New()
			c, _ := newReservationContext(e, `{"table_id":"t-1","seats":4,"guest_phone":"+7900"}`, "e-1")

			err := NewBookingHandler(svc).CreateReservation(c)

			he, ok := err.(*echo.HTTPError)
			assert.True(t, ok)
			assert.Equal(t, tc.code, he.Code)
		})
	}
}

func TestCancelBooking_Handler(t *testing.T) {
	svc := &mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			return &model.Booking{ID: bookingID, Status: model.StatusExpired}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/b-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	err := NewBookingHandler(svc).CancelBooking(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelBooking_Handler_Conflict(t *testing.T) {
	svc := &mockBookingService{
		cancelFn: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			return nil, service.ErrNotReserved
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/b-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	err := NewBookingHandler(svc).CancelBooking(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestMarkPaid_Handler(t *testing.T) {
	svc := &mockBookingService{
		markFn: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			return &model.Booking{ID: bookingID, Status: model.StatusAwaitingConfirmation}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/b-1/mark-paid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	err := NewBookingHandler(svc).MarkPaid(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusAwaitingConfirmation, resp.Status)
}

func TestMarkPaid_Handler_Lapsed(t *testing.T) {
	svc := &mockBookingService{
		markFn: func(ctx context.Context, bookingID string) (*model.Booking, error) {
			return nil, service.ErrReservationLapsed
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/b-1/mark-paid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("b-1")

	err := NewBookingHandler(svc).MarkPaid(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestGetAvailability_Handler(t *testing.T) {
	svc := &mockBookingService{
		availabilityFn: func(ctx context.Context, eventID string) ([]cache.TableAvailability, error) {
			return []cache.TableAvailability{
				{TableID: "t-1", Number: 1, SeatsTotal: 6, SeatsAvailable: 2},
			}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/e-1/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("e-1")

	err := NewBookingHandler(svc).GetAvailability(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AvailabilityResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "e-1", resp.EventID)
	assert.Len(t, resp.Tables, 1)
	assert.Equal(t, 2, resp.Tables[0].SeatsAvailable)
}
