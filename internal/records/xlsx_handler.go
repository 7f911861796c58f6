package records

import (
	"bytes"
	"strings"

	"everlasting-kin/internal/database"
	"everlasting-kin/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// POST /api/records/import (multipart, field "file")
func ImportRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
		}

		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable upload")
		}
		defer f.Close()

		rows, err := ReadSheet(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read spreadsheet: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Spreadsheet is empty")
		}
		if len(rows) > maxImportRows {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Spreadsheet has too many rows")
		}

		res, err := ImportRows(database.DB.WithContext(c.UserContext()), rows, actor)
		if err != nil {
			return mapError(err, "Import failed, no records were imported")
		}
		metrics.RecordMutationsTotal.WithLabelValues("import").Add(float64(res.Created))

		return c.JSON(res)
	}
}

// GET /api/records/export
func ExportRecordsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := List(database.DB.WithContext(c.UserContext()))
		if err != nil {
			return mapError(err, "Failed to list records")
		}

		var buf bytes.Buffer
		if err := WriteSheet(&buf, recs); err != nil {
			return mapError(err, "Failed to build spreadsheet")
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="deceased-records.xlsx"`)
		return c.Send(buf.Bytes())
	}
}
