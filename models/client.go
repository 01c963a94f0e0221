package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientDocument is the stored form of a client: one row per client with the
// visit sequence embedded as a JSON array.
type ClientDocument struct {
	ID        uuid.UUID    `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_client_user_display,priority:1"`
	DisplayID string       `gorm:"not null;uniqueIndex:idx_client_user_display,priority:2"`
	Name      string       `gorm:"not null"`
	Phone     string       `gorm:"not null"`
	Visits    VisitRecords `gorm:"type:jsonb;not null"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time
}

func (ClientDocument) TableName() string { return "clients" }

func (d *ClientDocument) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Visits == nil {
		d.Visits = VisitRecords{}
	}
	return
}

// ClientMetadata holds the per-user client counter. The counter only moves
// inside the transaction that creates a client.
type ClientMetadata struct {
	UserID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientCounter int64     `gorm:"not null;default:0"`
}

func (ClientMetadata) TableName() string { return "client_metadata" }

// Client is the deserialized view of a ClientDocument returned to callers.
type Client struct {
	ID        string    `json:"id"`
	DisplayID string    `json:"displayId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Visits    []Visit   `json:"visits"`
	CreatedAt time.Time `json:"createdAt"`

	// HistoryHidden is set when the visit history was withheld from the caller.
	HistoryHidden bool `json:"historyHidden,omitempty"`
}

// VisitRecords is the JSON column holding a client's visits.
type VisitRecords []VisitRecord

func (v VisitRecords) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]VisitRecord(v))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (v *VisitRecords) Scan(value interface{}) error {
	var b []byte
	switch data := value.(type) {
	case nil:
		*v = VisitRecords{}
		return nil
	case []byte:
		b = data
	case string:
		b = []byte(data)
	default:
		return errors.New("visits: unsupported column type")
	}
	if len(b) == 0 {
		*v = VisitRecords{}
		return nil
	}
	var records []VisitRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return err
	}
	if records == nil {
		records = []VisitRecord{}
	}
	*v = records
	return nil
}
