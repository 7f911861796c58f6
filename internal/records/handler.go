package records

import (
	"errors"
	"log"
	"strings"
	"time"

	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/metrics"
	"everlasting-kin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateRecordRequest struct {
	CaseID          string  `json:"case_id" validate:"required,max=64"`
	Name            *string `json:"name" validate:"omitempty,max=200"`
	DateOfDeath     *string `json:"date_of_death"` // "2025-12-09" or RFC 3339
	Location        *string `json:"location" validate:"omitempty,max=255"`
	FingerprintHash *string `json:"fingerprint_hash" validate:"omitempty,max=255"`
	PhotoURL        *string `json:"photo_url" validate:"omitempty,url,max=500"`
	MortuaryDetails *string `json:"mortuary_details"`
	Status          string  `json:"status" validate:"omitempty,oneof=identified unidentified pending_identification"`
}

type UpdateRecordRequest struct {
	CaseID          *string `json:"case_id" validate:"omitempty,min=1,max=64"`
	Name            *string `json:"name" validate:"omitempty,max=200"`
	DateOfDeath     *string `json:"date_of_death"`
	Location        *string `json:"location" validate:"omitempty,max=255"`
	FingerprintHash *string `json:"fingerprint_hash" validate:"omitempty,max=255"`
	PhotoURL        *string `json:"photo_url" validate:"omitempty,url,max=500"`
	MortuaryDetails *string `json:"mortuary_details"`
	Status          *string `json:"status" validate:"omitempty,oneof=identified unidentified pending_identification"`
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date_of_death must be YYYY-MM-DD")
	}
	return &t, nil
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid record id")
	}
	return id, nil
}

func actorID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(auth.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "User missing from session")
	}
	return id, nil
}

// trimmed returns nil for blank strings so optional columns stay NULL.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// nullable is trimmed as a column value: a string, or untyped nil for NULL.
func nullable(s *string) any {
	if v := trimmed(s); v != nil {
		return *v
	}
	return nil
}

// mapError turns service errors into HTTP errors; unknown errors are logged.
func mapError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	case errors.Is(err, ErrCaseIDTaken):
		return fiber.NewError(fiber.StatusConflict, "A record with this case id already exists")
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	log.Printf("[records] %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// GET /api/records
func ListRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := List(database.DB.WithContext(c.UserContext()))
		if err != nil {
			return mapError(err, "Failed to list records")
		}
		return c.JSON(recs)
	}
}

// GET /api/records/search?q=smith
func SearchRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Search query is required")
		}

		recs, err := Search(database.DB.WithContext(c.UserContext()), q)
		if err != nil {
			return mapError(err, "Failed to search records")
		}
		return c.JSON(recs)
	}
}

// GET /api/records/:id
func GetRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		rec, err := Get(database.DB.WithContext(c.UserContext()), id)
		if err != nil {
			return mapError(err, "Failed to load record")
		}
		return c.JSON(rec)
	}
}

// POST /api/records
func CreateRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}

		var body CreateRecordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.CaseID = strings.TrimSpace(body.CaseID)
		if err := auth.Validate(&body); err != nil {
			return err
		}

		rec := models.DeceasedRecord{
			CaseID:          body.CaseID,
			Name:            trimmed(body.Name),
			Location:        trimmed(body.Location),
			FingerprintHash: trimmed(body.FingerprintHash),
			PhotoURL:        trimmed(body.PhotoURL),
			MortuaryDetails: trimmed(body.MortuaryDetails),
			Status:          models.RecordStatus(body.Status),
		}
		if body.DateOfDeath != nil {
			if rec.DateOfDeath, err = parseDate(*body.DateOfDeath); err != nil {
				return err
			}
		}

		if err := Create(database.DB.WithContext(c.UserContext()), &rec, actor); err != nil {
			return mapError(err, "Failed to create record")
		}
		metrics.RecordMutationsTotal.WithLabelValues("create").Inc()

		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/records/:id
func UpdateRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateRecordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.CaseID != nil {
			v := strings.TrimSpace(*body.CaseID)
			body.CaseID = &v
		}
		if err := auth.Validate(&body); err != nil {
			return err
		}

		patch := map[string]any{}
		if body.CaseID != nil {
			patch["case_id"] = *body.CaseID
		}
		if body.Name != nil {
			patch["name"] = nullable(body.Name)
		}
		if body.Location != nil {
			patch["location"] = nullable(body.Location)
		}
		if body.FingerprintHash != nil {
			patch["fingerprint_hash"] = nullable(body.FingerprintHash)
		}
		if body.PhotoURL != nil {
			patch["photo_url"] = nullable(body.PhotoURL)
		}
		if body.MortuaryDetails != nil {
			patch["mortuary_details"] = nullable(body.MortuaryDetails)
		}
		if body.Status != nil {
			patch["status"] = *body.Status
		}
		if body.DateOfDeath != nil {
			d, err := parseDate(*body.DateOfDeath)
			if err != nil {
				return err
			}
			if d != nil {
				patch["date_of_death"] = *d
			} else {
				patch["date_of_death"] = nil
			}
		}

		rec, err := Update(database.DB.WithContext(c.UserContext()), id, patch, actor)
		if err != nil {
			return mapError(err, "Failed to update record")
		}
		metrics.RecordMutationsTotal.WithLabelValues("update").Inc()

		return c.JSON(rec)
	}
}

// DELETE /api/records/:id
func DeleteRecordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		if err := Delete(database.DB.WithContext(c.UserContext()), id, actor); err != nil {
			return mapError(err, "Failed to delete record")
		}
		metrics.RecordMutationsTotal.WithLabelValues("delete").Inc()

		return c.SendStatus(fiber.StatusNoContent)
	}
}
