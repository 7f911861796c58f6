package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	KinPending   NotificationStatus = "pending"
	KinNotified  NotificationStatus = "notified"
	KinContacted NotificationStatus = "contacted"
)

type NextOfKin struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	DeceasedID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"deceased_id"`
	Deceased           *DeceasedRecord    `gorm:"foreignKey:DeceasedID;constraint:OnDelete:CASCADE" json:"-"`
	Name               *string            `gorm:"size:200" json:"name,omitempty"`
	Relationship       *string            `gorm:"size:50" json:"relationship,omitempty"`
	Contact            *string            `gorm:"size:255" json:"contact,omitempty"`
	NotificationStatus NotificationStatus `gorm:"size:20;not null;default:pending" json:"notification_status"`
	NotifiedAt         *time.Time         `json:"notified_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

func (NextOfKin) TableName() string { return "next_of_kin" }
