package model

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventArchived  EventStatus = "archived"
)

type Event struct {
	ID        string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string      `gorm:"type:varchar(255)" json:"name"`
	Status    EventStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Tables    []Table     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"tables"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type Table struct {
	ID             string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	EventID        string `gorm:"index;type:varchar(64);not null" json:"event_id"`
	Number         int    `gorm:"not null" json:"number"`
	SeatsTotal     int    `gorm:"not null" json:"seats_total"`
	SeatsAvailable int    `gorm:"not null" json:"seats_available"`
}

// TableByID returns a pointer into e.Tables so callers mutating the table
// mutate the event that will be persisted.
func (e *Event) TableByID(id string) *Table {
	for i := range e.Tables {
		if e.Tables[i].ID == id {
			return &e.Tables[i]
		}
	}
	return nil
}
