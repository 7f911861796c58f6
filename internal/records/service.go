package records

import (
	"errors"
	"fmt"
	"strings"

	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const tableName = "deceased_records"

var (
	ErrNotFound    = errors.New("record not found")
	ErrCaseIDTaken = errors.New("case id already exists")
)

// List returns every record, newest first.
func List(db *gorm.DB) ([]models.DeceasedRecord, error) {
	var recs []models.DeceasedRecord
	if err := db.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Search matches query case-insensitively as a substring of name, case id
// or location. An empty query matches every record.
func Search(db *gorm.DB, query string) ([]models.DeceasedRecord, error) {
	like := "%" + strings.ToLower(query) + "%"

	var recs []models.DeceasedRecord
	err := db.
		Where("LOWER(name) LIKE ? OR LOWER(case_id) LIKE ? OR LOWER(location) LIKE ?", like, like, like).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return recs, nil
}

func Get(db *gorm.DB, id uuid.UUID) (*models.DeceasedRecord, error) {
	var rec models.DeceasedRecord
	err := db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// Create inserts rec on behalf of actor and audits it.
func Create(db *gorm.DB, rec *models.DeceasedRecord, actor uuid.UUID) error {
	rec.CreatedBy = &actor

	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureCaseIDFree(tx, rec.CaseID, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:    &actor,
			Action:    models.AuditActionCreate,
			TableName: tableName,
			RecordID:  &rec.ID,
			Details:   rec,
		})
	})
}

// Update applies a partial patch keyed by column name and returns the
// stored result.
func Update(db *gorm.DB, id uuid.UUID, patch map[string]any, actor uuid.UUID) (*models.DeceasedRecord, error) {
	var updated models.DeceasedRecord

	err := db.Transaction(func(tx *gorm.DB) error {
		before, err := Get(tx, id)
		if err != nil {
			return err
		}
		if caseID, ok := patch["case_id"].(string); ok && caseID != before.CaseID {
			if err := ensureCaseIDFree(tx, caseID, id); err != nil {
				return err
			}
		}

		if len(patch) > 0 {
			if err := tx.Model(&models.DeceasedRecord{}).Where("id = ?", id).Updates(patch).Error; err != nil {
				return fmt.Errorf("update record: %w", err)
			}
		}
		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return fmt.Errorf("reload record: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:    &actor,
			Action:    models.AuditActionUpdate,
			TableName: tableName,
			RecordID:  &id,
			Details:   map[string]any{"before": before, "after": updated},
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func Delete(db *gorm.DB, id uuid.UUID, actor uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		before, err := Get(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(&models.DeceasedRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete record: %w", err)
		}
		return audit.WriteLog(tx, audit.LogOptions{
			UserID:    &actor,
			Action:    models.AuditActionDelete,
			TableName: tableName,
			RecordID:  &id,
			Details:   before,
		})
	})
}

// Counts tallies records by status.
type Counts struct {
	Total                 int64 `json:"total"`
	Identified            int64 `json:"identified"`
	Unidentified          int64 `json:"unidentified"`
	PendingIdentification int64 `json:"pending_identification"`
}

func Count(db *gorm.DB) (Counts, error) {
	var rows []struct {
		Status models.RecordStatus
		N      int64
	}
	err := db.Model(&models.DeceasedRecord{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return Counts{}, fmt.Errorf("count records: %w", err)
	}

	var c Counts
	for _, r := range rows {
		c.Total += r.N
		switch r.Status {
		case models.RecordIdentified:
			c.Identified = r.N
		case models.RecordUnidentified:
			c.Unidentified = r.N
		case models.RecordPendingIdentification:
			c.PendingIdentification = r.N
		}
	}
	return c, nil
}

func ensureCaseIDFree(tx *gorm.DB, caseID string, self uuid.UUID) error {
	var count int64
	err := tx.Model(&models.DeceasedRecord{}).
		Where("case_id = ? AND id <> ?", caseID, self).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check case id: %w", err)
	}
	if count > 0 {
		return ErrCaseIDTaken
	}
	return nil
}
