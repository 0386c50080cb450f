package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"banket/internal/dto"
	"banket/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("/:id/reservations", h.CreateReservation)
	events.GET("/:id/availability", h.GetAvailability)

	bookings := e.Group("/api/v1/bookings")
	bookings.GET("/:id", h.GetBooking)
	bookings.DELETE("/:id", h.CancelBooking)
	bookings.POST("/:id/mark-paid", h.MarkPaid)
	bookings.POST("/:id/force-cancel", h.ForceCancel)
}

func (h *BookingHandler) CreateReservation(c echo.Context) error {
	eventID := c.Param("id")
	if eventID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.Reserve(c.Request().Context(), eventID, req.TableID, req.Seats, req.GuestPhone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSeats), errors.Is(err, service.ErrMissingPhone):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEventNotFound), errors.Is(err, service.ErrTableNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventNotPublished):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrNoSeats):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetAvailability(c echo.Context) error {
	eventID := c.Param("id")

	tables, err := h.svc.Availability(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{EventID: eventID, Tables: tables})
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.Booking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	booking, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotReserved):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) MarkPaid(c echo.Context) error {
	booking, err := h.svc.MarkAwaitingConfirmation(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotReserved), errors.Is(err, service.ErrReservationLapsed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ForceCancel(c echo.Context) error {
	var req dto.ForceCancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.ForceCancel(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotCancellable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}
