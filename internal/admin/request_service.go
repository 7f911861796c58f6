package admin

import (
	"errors"
	"fmt"
	"time"

	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRequestNotFound = errors.New("admin request not found")
	ErrNotPending      = errors.New("admin request already resolved")
)

// ListRequests returns every request with its requesting user, newest
// first. An empty status lists all of them.
func ListRequests(db *gorm.DB, status models.RequestStatus) ([]models.AdminRequest, error) {
	q := db.Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var reqs []models.AdminRequest
	if err := q.Order("requested_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list admin requests: %w", err)
	}
	return reqs, nil
}

func CountPending(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.AdminRequest{}).Where("status = ?", models.RequestPending).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return n, nil
}

func ApproveRequest(db *gorm.DB, id, reviewer uuid.UUID) (*models.AdminRequest, error) {
	return resolve(db, id, reviewer, models.RequestApproved)
}

func RejectRequest(db *gorm.DB, id, reviewer uuid.UUID) (*models.AdminRequest, error) {
	return resolve(db, id, reviewer, models.RequestRejected)
}

// resolve moves a pending request to its terminal status and mirrors the
// outcome onto the requesting user. The status guard lives in the UPDATE
// so two reviewers racing on one request cannot both win.
func resolve(db *gorm.DB, id, reviewer uuid.UUID, to models.RequestStatus) (*models.AdminRequest, error) {
	now := time.Now()
	var req models.AdminRequest

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("load admin request: %w", err)
		}

		res := tx.Model(&models.AdminRequest{}).
			Where("id = ? AND status = ?", id, models.RequestPending).
			Updates(map[string]any{
				"status":      string(to),
				"reviewed_by": reviewer,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("update admin request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotPending
		}

		approval := models.ApprovalApproved
		action := models.AuditActionApprove
		if to == models.RequestRejected {
			approval = models.ApprovalRejected
			action = models.AuditActionReject
		}
		err := tx.Model(&models.User{}).
			Where("id = ?", req.UserID).
			Updates(map[string]any{
				"approval_status": string(approval),
				"approved_by":     reviewer,
				"approved_at":     now,
			}).Error
		if err != nil {
			return fmt.Errorf("update requesting user: %w", err)
		}

		if err := tx.Preload("User").First(&req, "id = ?", id).Error; err != nil {
			return fmt.Errorf("reload admin request: %w", err)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:    &reviewer,
			Action:    action,
			TableName: "admin_requests",
			RecordID:  &id,
			Details:   map[string]any{"user_id": req.UserID, "status": to},
		})
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
