package records

import (
	"bytes"
	"io"

	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/metrics"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxPhotoSize = 10 << 20

// POST /api/records/:id/photo (multipart, field "photo")
func UploadPhotoHandler(photos storage.PhotoStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if photos == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Photo storage is not configured")
		}

		actor, err := actorID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("photo")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "photo file is required")
		}
		if fh.Size > maxPhotoSize {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "photo must be 10 MB or smaller")
		}

		db := database.DB.WithContext(c.UserContext())
		if _, err := Get(db, id); err != nil {
			return mapError(err, "Failed to load record")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable photo upload")
		}
		defer f.Close()

		raw, err := io.ReadAll(io.LimitReader(f, maxPhotoSize))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable photo upload")
		}
		// The bytes decide the type; the part header and file name are ignored.
		contentType, ext, ok := sniffPhoto(raw)
		if !ok {
			return fiber.NewError(fiber.StatusUnsupportedMediaType, "photo must be JPEG, PNG or WebP")
		}

		data, contentType, ext, err := normalizePhoto(bytes.NewReader(raw), contentType, ext)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "photo is not a readable image")
		}

		key := "records/" + id.String() + "/" + uuid.NewString() + ext
		url, err := photos.PutPhoto(c.UserContext(), key, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			return mapError(err, "Failed to store photo")
		}

		var rec models.DeceasedRecord
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.DeceasedRecord{}).Where("id = ?", id).Update("photo_url", url).Error; err != nil {
				return err
			}
			if err := tx.First(&rec, "id = ?", id).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:    &actor,
				Action:    models.AuditActionUpdate,
				TableName: tableName,
				RecordID:  &id,
				Details:   map[string]string{"photo_url": url},
			})
		})
		if err != nil {
			return mapError(err, "Failed to update record photo")
		}
		metrics.RecordMutationsTotal.WithLabelValues("photo").Inc()

		return c.JSON(rec)
	}
}
