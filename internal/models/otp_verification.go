package models

import (
	"time"

	"github.com/google/uuid"
)

type OTPVerification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index" json:"email"`
	OTPCode   string    `gorm:"column:otp_code;size:10;not null" json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `gorm:"default:false" json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}
