package dashboard

import (
	"log"

	"everlasting-kin/internal/admin"
	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/records"

	"github.com/gofiber/fiber/v2"
)

type Stats struct {
	TotalRecords        int64  `json:"total_records"`
	IdentifiedRecords   *int64 `json:"identified_records,omitempty"`
	UnidentifiedRecords *int64 `json:"unidentified_records,omitempty"`
	PendingRequests     *int64 `json:"pending_requests,omitempty"`
}

type Response struct {
	View  View   `json:"view"`
	Stats *Stats `json:"stats,omitempty"`
}

// GET /api/dashboard
//
// The view follows the role alone. Role-specific counts are only filled in
// for approved accounts; a pending or rejected account sees the total.
func DashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		view := ViewFor(user)
		if view == ViewNone {
			return c.JSON(Response{View: view})
		}

		db := database.DB.WithContext(c.UserContext())
		counts, err := records.Count(db)
		if err != nil {
			log.Printf("[dashboard] %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to load dashboard")
		}

		stats := &Stats{TotalRecords: counts.Total}
		if user.ApprovalStatus != models.ApprovalApproved {
			return c.JSON(Response{View: view, Stats: stats})
		}
		switch view {
		case ViewAdmin:
			pending, err := admin.CountPending(db)
			if err != nil {
				log.Printf("[dashboard] %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Failed to load dashboard")
			}
			stats.PendingRequests = &pending
			stats.IdentifiedRecords = &counts.Identified
		case ViewStaff:
			stats.IdentifiedRecords = &counts.Identified
			stats.UnidentifiedRecords = &counts.Unidentified
		}

		return c.JSON(Response{View: view, Stats: stats})
	}
}
