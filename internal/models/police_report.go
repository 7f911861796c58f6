package models

import (
	"time"

	"github.com/google/uuid"
)

type PoliceReport struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID                 string     `gorm:"size:64;not null;index" json:"case_id"`
	FingerprintMatchStatus *string    `gorm:"size:50" json:"fingerprint_match_status,omitempty"`
	OfficerNotes           *string    `gorm:"type:text" json:"officer_notes,omitempty"`
	UpdatedBy              *uuid.UUID `gorm:"type:uuid" json:"updated_by,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
