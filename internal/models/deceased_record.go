package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordStatus string

const (
	RecordIdentified            RecordStatus = "identified"
	RecordUnidentified          RecordStatus = "unidentified"
	RecordPendingIdentification RecordStatus = "pending_identification"
)

func (s RecordStatus) Valid() bool {
	switch s {
	case RecordIdentified, RecordUnidentified, RecordPendingIdentification:
		return true
	}
	return false
}

type DeceasedRecord struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID          string       `gorm:"size:64;uniqueIndex;not null" json:"case_id"`
	Name            *string      `gorm:"size:200" json:"name,omitempty"`
	DateOfDeath     *time.Time   `gorm:"type:date" json:"date_of_death,omitempty"`
	Location        *string      `gorm:"size:255" json:"location,omitempty"`
	FingerprintHash *string      `gorm:"size:255" json:"fingerprint_hash,omitempty"`
	PhotoURL        *string      `gorm:"size:500" json:"photo_url,omitempty"`
	MortuaryDetails *string      `gorm:"type:text" json:"mortuary_details,omitempty"`
	Status          RecordStatus `gorm:"size:30;not null;default:unidentified;index" json:"status"`
	CreatedBy       *uuid.UUID   `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt       time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (r *DeceasedRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RecordUnidentified
	}
	return nil
}
