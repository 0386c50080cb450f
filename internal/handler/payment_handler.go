package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"banket/internal/dto"
	"banket/internal/service"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	payments := e.Group("/api/v1/payments")
	payments.POST("", h.CreateIntent)
	payments.GET("/:id", h.GetIntent)
	payments.POST("/:id/confirm", h.Confirm)
	payments.POST("/:id/cancel", h.Cancel)
}

func (h *PaymentHandler) CreateIntent(c echo.Context) error {
	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookingID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_id is required")
	}

	intent, err := h.svc.CreateIntent(c.Request().Context(), req.BookingID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPayable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToPaymentResponse(intent))
}

func (h *PaymentHandler) GetIntent(c echo.Context) error {
	intent, err := h.svc.Intent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(intent))
}

func (h *PaymentHandler) Confirm(c echo.Context) error {
	var req dto.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	intent, err := h.svc.Confirm(c.Request().Context(), c.Param("id"), req.ConfirmedBy)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingConfirmer):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPending), errors.Is(err, service.ErrNotConfirmable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(intent))
}

func (h *PaymentHandler) Cancel(c echo.Context) error {
	intent, err := h.svc.CancelIntent(c.Request().Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPending):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(intent))
}
