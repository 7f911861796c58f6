package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionDelete  AuditAction = "delete"
	AuditActionApprove AuditAction = "approve"
	AuditActionReject  AuditAction = "reject"
)

type AuditLog struct {
	ID     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID *uuid.UUID  `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action AuditAction `gorm:"size:20;not null" json:"action"`

	// Table the entry refers to, e.g. "deceased_records" or "admin_requests".
	TableName string         `gorm:"column:table_name;size:50;index;not null" json:"table_name"`
	RecordID  *uuid.UUID     `gorm:"type:uuid;index" json:"record_id,omitempty"`
	Details   datatypes.JSON `json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
