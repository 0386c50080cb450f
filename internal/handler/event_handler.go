package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"banket/internal/dto"
	"banket/internal/model"
	"banket/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("", h.CreateEvent)
	events.GET("", h.ListEvents)
	events.GET("/:id", h.GetEvent)
	events.PATCH("/:id/status", h.SetStatus)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	tables := make([]service.TableSpec, len(req.Tables))
	for i, t := range req.Tables {
		tables[i] = service.TableSpec{Number: t.Number, SeatsTotal: t.SeatsTotal}
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), req.Name, tables)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) || errors.Is(err, service.ErrInvalidTable) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.svc.ListEvents(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]dto.EventResponse, len(events))
	for i := range events {
		resp[i] = dto.ToEventResponse(&events[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	event, err := h.svc.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) SetStatus(c echo.Context) error {
	var req dto.SetEventStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.SetStatus(c.Request().Context(), c.Param("id"), model.EventStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBadStatusChange):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}
