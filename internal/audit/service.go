package audit

import (
	"encoding/json"
	"fmt"

	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID    *uuid.UUID
	Action    models.AuditAction
	TableName string
	RecordID  *uuid.UUID
	Details   any
}

// WriteLog stores one audit entry through db, which may be a transaction.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		UserID:    opts.UserID,
		Action:    opts.Action,
		TableName: opts.TableName,
		RecordID:  opts.RecordID,
	}

	if opts.Details != nil {
		b, err := json.Marshal(opts.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		entry.Details = datatypes.JSON(b)
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

type Filter struct {
	TableName string
	RecordID  *uuid.UUID
	UserID    *uuid.UUID
	Action    models.AuditAction
	Limit     int
}

func List(db *gorm.DB, f Filter) ([]models.AuditLog, error) {
	q := db.Model(&models.AuditLog{})
	if f.TableName != "" {
		q = q.Where("table_name = ?", f.TableName)
	}
	if f.RecordID != nil {
		q = q.Where("record_id = ?", *f.RecordID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
