package records

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Spreadsheet column order, used for both import and export.
var sheetColumns = []string{"Case ID", "Name", "Date of death", "Location", "Status", "Mortuary details"}

const maxImportRows = 5000

type RowError struct {
	Row    int    `json:"row"`
	CaseID string `json:"case_id,omitempty"`
	Error  string `json:"error"`
}

type ImportResult struct {
	Created int        `json:"created"`
	Skipped []string   `json:"skipped"` // case ids that already existed
	Failed  []RowError `json:"failed"`
}

// ReadSheet returns the rows of the first sheet of an XLSX workbook.
func ReadSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func optionalCell(row []string, i int) *string {
	if v := cell(row, i); v != "" {
		return &v
	}
	return nil
}

// isHeader reports whether row is the header WriteSheet emits.
func isHeader(row []string) bool {
	first := cell(row, 0)
	return strings.EqualFold(first, sheetColumns[0]) || strings.EqualFold(first, "case_id")
}

// ImportRows creates one record per row in a single transaction. A first
// row reading "Case ID" (or "case_id") is the header. Rows whose case id
// already exists are skipped and bad rows are reported; both leave the rest
// of the sheet going in. A storage error rolls the whole import back.
func ImportRows(db *gorm.DB, rows [][]string, actor uuid.UUID) (ImportResult, error) {
	if len(rows) > maxImportRows {
		return ImportResult{Skipped: []string{}, Failed: []RowError{}},
			fmt.Errorf("sheet has %d rows, at most %d can be imported", len(rows), maxImportRows)
	}

	start := 0
	if len(rows) > 0 && isHeader(rows[0]) {
		start = 1
	}

	var res ImportResult
	err := db.Transaction(func(tx *gorm.DB) error {
		res = ImportResult{Skipped: []string{}, Failed: []RowError{}}

		for i := start; i < len(rows); i++ {
			row := rows[i]
			caseID := cell(row, 0)
			if caseID == "" {
				continue
			}

			rec := models.DeceasedRecord{
				CaseID:          caseID,
				Name:            optionalCell(row, 1),
				Location:        optionalCell(row, 3),
				Status:          models.RecordStatus(strings.ToLower(cell(row, 4))),
				MortuaryDetails: optionalCell(row, 5),
			}
			if rec.Status != "" && !rec.Status.Valid() {
				res.Failed = append(res.Failed, RowError{Row: i + 1, CaseID: caseID, Error: "unknown status " + string(rec.Status)})
				continue
			}
			if d := cell(row, 2); d != "" {
				date, err := parseDate(d)
				if err != nil {
					res.Failed = append(res.Failed, RowError{Row: i + 1, CaseID: caseID, Error: err.Error()})
					continue
				}
				rec.DateOfDeath = date
			}

			// Create nests as a savepoint, so a skipped row undoes only itself.
			err := Create(tx, &rec, actor)
			switch {
			case errors.Is(err, ErrCaseIDTaken):
				res.Skipped = append(res.Skipped, caseID)
			case err != nil:
				return fmt.Errorf("import row %d: %w", i+1, err)
			default:
				res.Created++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{Skipped: []string{}, Failed: []RowError{}}, err
	}
	return res, nil
}

// WriteSheet writes recs as an XLSX workbook to w.
func WriteSheet(w io.Writer, recs []models.DeceasedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Records"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header := make([]any, len(sheetColumns))
	for i, c := range sheetColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range recs {
		date := ""
		if rec.DateOfDeath != nil {
			date = rec.DateOfDeath.Format("2006-01-02")
		}
		row := []any{rec.CaseID, deref(rec.Name), date, deref(rec.Location), string(rec.Status), deref(rec.MortuaryDetails)}

		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
