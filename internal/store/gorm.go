package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"banket/internal/model"
)

// Gorm is the durable Store backed by postgres.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&model.Event{}, &model.Table{}, &model.Booking{}, &model.PaymentIntent{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (s *Gorm) Events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := s.db.WithContext(ctx).Preload("Tables").Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Gorm) EventByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := s.db.WithContext(ctx).Preload("Tables").First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// SaveEvent upserts the event row and every table row in one database
// transaction. The transaction is a store-internal convenience; callers
// still rely on the serializer, not the database, for cross-request
// atomicity.
func (s *Gorm) SaveEvent(ctx context.Context, event *model.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(event).Error
	})
}

func (s *Gorm) Bookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *Gorm) BookingByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *Gorm) AddBooking(ctx context.Context, booking *model.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *Gorm) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res := s.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Gorm) StaleReserved(ctx context.Context, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", model.StatusReserved, now).
		Order("created_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *Gorm) PaymentByID(ctx context.Context, id string) (*model.PaymentIntent, error) {
	var intent model.PaymentIntent
	err := s.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (s *Gorm) AddPayment(ctx context.Context, intent *model.PaymentIntent) error {
	return s.db.WithContext(ctx).Create(intent).Error
}

func (s *Gorm) SavePayment(ctx context.Context, intent *model.PaymentIntent) error {
	return s.db.WithContext(ctx).Save(intent).Error
}
