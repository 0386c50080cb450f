package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"banket/internal/cache"
	"banket/internal/model"
	"banket/internal/store"
)

var (
	ErrInvalidEvent    = errors.New("event must have a name and at least one table")
	ErrInvalidTable    = errors.New("table seats_total must be positive")
	ErrBadStatusChange = errors.New("invalid event status transition")
	ErrUnknownStatus   = errors.New("unknown event status")
)

// TableSpec describes one table of a new event.
type TableSpec struct {
	Number     int
	SeatsTotal int
}

type EventService interface {
	CreateEvent(ctx context.Context, name string, tables []TableSpec) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	SetStatus(ctx context.Context, id string, status model.EventStatus) (*model.Event, error)
}

type eventService struct {
	store store.Store
	avail *cache.Availability
}

func NewEventService(st store.Store, avail *cache.Availability) EventService {
	return &eventService{store: st, avail: avail}
}

func (s *eventService) CreateEvent(ctx context.Context, name string, tables []TableSpec) (*model.Event, error) {
	if name == "" || len(tables) == 0 {
		return nil, ErrInvalidEvent
	}
	event := &model.Event{
		ID:     uuid.NewString(),
		Name:   name,
		Status: model.EventDraft,
	}
	for _, t := range tables {
		if t.SeatsTotal <= 0 {
			return nil, ErrInvalidTable
		}
		event.Tables = append(event.Tables, model.Table{
			ID:             uuid.NewString(),
			EventID:        event.ID,
			Number:         t.Number,
			SeatsTotal:     t.SeatsTotal,
			SeatsAvailable: t.SeatsTotal,
		})
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.store.EventByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.store.Events(ctx)
}

// SetStatus moves an event along draft -> published -> archived. Archiving
// drops the advisory availability snapshot; archived events take no new
// reservations.
func (s *eventService) SetStatus(ctx context.Context, id string, status model.EventStatus) (*model.Event, error) {
	switch status {
	case model.EventDraft, model.EventPublished, model.EventArchived:
	default:
		return nil, ErrUnknownStatus
	}
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !statusChangeAllowed(event.Status, status) {
		return nil, ErrBadStatusChange
	}
	event.Status = status
	event.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	if status == model.EventArchived {
		s.avail.Drop(ctx, id)
	}
	return event, nil
}

func statusChangeAllowed(from, to model.EventStatus) bool {
	switch from {
	case model.EventDraft:
		return to == model.EventPublished
	case model.EventPublished:
		return to == model.EventArchived
	}
	return false
}
