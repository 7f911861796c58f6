package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationLog struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email            *string    `gorm:"size:255" json:"email,omitempty"`
	NotificationType string     `gorm:"size:50;not null" json:"notification_type"`
	Subject          *string    `gorm:"size:255" json:"subject,omitempty"`
	Content          *string    `gorm:"type:text" json:"content,omitempty"`
	SentAt           time.Time  `gorm:"autoCreateTime" json:"sent_at"`
	// sent | failed | pending
	Status string `gorm:"size:20;not null;default:pending" json:"status"`
}
