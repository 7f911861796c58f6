package audit

import (
	"log"
	"strconv"

	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxListLimit = 500

// GET /api/admin/audit-logs?table_name=deceased_records&record_id=...&user_id=...&action=...&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			TableName: c.Query("table_name"),
			Action:    models.AuditAction(c.Query("action")),
			Limit:     100,
		}

		if s := c.Query("record_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid record_id")
			}
			f.RecordID = &id
		}
		if s := c.Query("user_id"); s != "" {
			id, err := uuid.Parse(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid user_id")
			}
			f.UserID = &id
		}
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid limit")
			}
			f.Limit = min(n, maxListLimit)
		}

		logs, err := List(database.DB.WithContext(c.UserContext()), f)
		if err != nil {
			log.Printf("[audit] %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to list audit logs")
		}
		return c.JSON(logs)
	}
}
