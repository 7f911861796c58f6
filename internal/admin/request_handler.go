package admin

import (
	"errors"
	"log"

	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/metrics"
	"everlasting-kin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReviewRequest struct {
	ReviewerID *uuid.UUID `json:"reviewer_id"`
}

// GET /api/admin/requests?status=pending
func ListRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.RequestStatus(c.Query("status"))
		switch status {
		case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid status filter")
		}

		reqs, err := ListRequests(database.DB.WithContext(c.UserContext()), status)
		if err != nil {
			log.Printf("[admin] %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list requests")
		}
		return c.JSON(reqs)
	}
}

// POST /api/admin/requests/:id/approve
func ApproveRequestHandler() fiber.Handler {
	return reviewHandler(models.RequestApproved)
}

// POST /api/admin/requests/:id/reject
func RejectRequestHandler() fiber.Handler {
	return reviewHandler(models.RequestRejected)
}

func reviewHandler(to models.RequestStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request id")
		}

		reviewer, ok := c.Locals(auth.CtxUserIDKey).(uuid.UUID)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "User missing from session")
		}

		var body ReviewRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
			}
		}
		// Reviewer identity always comes from the token.
		if body.ReviewerID != nil && *body.ReviewerID != reviewer {
			return fiber.NewError(fiber.StatusForbidden, "reviewer_id must be your own id")
		}

		db := database.DB.WithContext(c.UserContext())
		var req *models.AdminRequest
		if to == models.RequestApproved {
			req, err = ApproveRequest(db, id, reviewer)
		} else {
			req, err = RejectRequest(db, id, reviewer)
		}
		switch {
		case errors.Is(err, ErrRequestNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Request not found")
		case errors.Is(err, ErrNotPending):
			return fiber.NewError(fiber.StatusConflict, "Request has already been resolved")
		case err != nil:
			log.Printf("[admin] resolve request %s: %v", id, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update request")
		}
		metrics.RequestDecisionsTotal.WithLabelValues(string(to)).Inc()

		return c.JSON(req)
	}
}
