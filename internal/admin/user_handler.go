package admin

import (
	"log"

	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/users?role=police&approval_status=pending
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.WithContext(c.UserContext()).Model(&models.User{})

		if role := models.UserRole(c.Query("role")); role != "" {
			if !role.Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid role filter")
			}
			q = q.Where("role = ?", role)
		}

		switch status := models.ApprovalStatus(c.Query("approval_status")); status {
		case "":
		case models.ApprovalApproved, models.ApprovalPending, models.ApprovalRejected:
			q = q.Where("approval_status = ?", status)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid approval_status filter")
		}

		var users []models.User
		if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
			log.Printf("[admin] list users: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list users")
		}
		return c.JSON(users)
	}
}
