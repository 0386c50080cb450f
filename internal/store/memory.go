package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"banket/internal/model"
)

// Memory is an in-process Store backed by maps. It is the storage used in
// tests and in single-node deployments that do not need durability. All
// reads return copies so callers can only change stored state through the
// Save/Add/Update methods.
type Memory struct {
	mu       sync.RWMutex
	events   map[string]model.Event
	bookings map[string]model.Booking
	payments map[string]model.PaymentIntent
}

func NewMemory() *Memory {
	return &Memory{
		events:   make(map[string]model.Event),
		bookings: make(map[string]model.Booking),
		payments: make(map[string]model.PaymentIntent),
	}
}

func copyEvent(e model.Event) model.Event {
	out := e
	out.Tables = make([]model.Table, len(e.Tables))
	copy(out.Tables, e.Tables)
	return out
}

func copyBooking(b model.Booking) model.Booking {
	out := b
	if b.SeatIndices != nil {
		out.SeatIndices = make([]int, len(b.SeatIndices))
		copy(out.SeatIndices, b.SeatIndices)
	}
	if b.ExpiresAt != nil {
		t := *b.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

func (m *Memory) Events(ctx context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Event, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) EventByID(ctx context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	out := copyEvent(e)
	return &out, nil
}

func (m *Memory) SaveEvent(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = copyEvent(*event)
	return nil
}

func (m *Memory) Bookings(ctx context.Context) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) BookingByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	out := copyBooking(b)
	return &out, nil
}

func (m *Memory) AddBooking(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = copyBooking(*booking)
	return nil
}

func (m *Memory) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	b.Status = status
	m.bookings[id] = b
	return nil
}

func (m *Memory) StaleReserved(ctx context.Context, now time.Time) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Booking
	for _, b := range m.bookings {
		if b.Status == model.StatusReserved && b.ExpiresAt != nil && !now.Before(*b.ExpiresAt) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) PaymentByID(ctx context.Context, id string) (*model.PaymentIntent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	out := p
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		out.ConfirmedAt = &t
	}
	return &out, nil
}

func (m *Memory) AddPayment(ctx context.Context, intent *model.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[intent.ID] = *intent
	return nil
}

func (m *Memory) SavePayment(ctx context.Context, intent *model.PaymentIntent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[intent.ID]; !ok {
		return fmt.Errorf("payment %s: %w", intent.ID, ErrNotFound)
	}
	m.payments[intent.ID] = *intent
	return nil
}
