package records

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestImportRows(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	seed(t, actor, models.DeceasedRecord{CaseID: "EK-EXISTING"})

	rows := [][]string{
		{"Case ID", "Name", "Date of death", "Location", "Status"},
		{"EK-10", "John Smith", "2025-12-09", "Nairobi", "Identified"},
		{"EK-11", "", "", "Kisumu"},
		{"EK-EXISTING", "Dup"},
		{""},
		{"EK-12", "Bad", "", "", "buried"},
		{"EK-13", "Bad date", "9 Dec"},
	}

	res, err := ImportRows(database.DB, rows, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, []string{"EK-EXISTING"}, res.Skipped)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 6, res.Failed[0].Row)
	assert.Equal(t, "EK-13", res.Failed[1].CaseID)

	recs, err := Search(database.DB, "EK-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byCase := map[string]models.DeceasedRecord{}
	for _, r := range recs {
		byCase[r.CaseID] = r
	}
	assert.Equal(t, models.RecordIdentified, byCase["EK-10"].Status)
	require.NotNil(t, byCase["EK-10"].DateOfDeath)
	assert.Equal(t, "2025-12-09", byCase["EK-10"].DateOfDeath.Format("2006-01-02"))
	assert.Nil(t, byCase["EK-11"].Name)
	assert.Equal(t, models.RecordUnidentified, byCase["EK-11"].Status)
}

func TestImportWithoutHeader(t *testing.T) {
	testutil.SetupDB(t)

	res, err := ImportRows(database.DB, [][]string{{"CASE-0001", "Jane Roe"}, {"CASE-0002"}}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.Failed)

	_, err = Get(database.DB, mustCaseID(t, "CASE-0001"))
	assert.NoError(t, err)
}

func TestImportHeaderVariants(t *testing.T) {
	for _, header := range []string{"Case ID", "case id", "case_id"} {
		t.Run(header, func(t *testing.T) {
			testutil.SetupDB(t)
			res, err := ImportRows(database.DB, [][]string{{header, "Name"}, {"EK-1"}}, uuid.New())
			require.NoError(t, err)
			assert.Equal(t, 1, res.Created)
		})
	}
}

func TestImportRollsBackOnStorageError(t *testing.T) {
	testutil.SetupDB(t)

	err := database.DB.Callback().Create().Before("gorm:create").Register("fail_ek3", func(tx *gorm.DB) {
		if rec, ok := tx.Statement.Dest.(*models.DeceasedRecord); ok && rec.CaseID == "EK-3" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	res, err := ImportRows(database.DB, [][]string{{"EK-1"}, {"EK-2"}, {"EK-3"}, {"EK-4"}}, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	assert.Zero(t, res.Created)

	c, err := Count(database.DB)
	require.NoError(t, err)
	assert.Zero(t, c.Total)
}

func mustCaseID(t *testing.T, caseID string) uuid.UUID {
	t.Helper()
	var rec models.DeceasedRecord
	require.NoError(t, database.DB.First(&rec, "case_id = ?", caseID).Error)
	return rec.ID
}

func TestSheetRoundTrip(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	date := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	seed(t, actor,
		models.DeceasedRecord{CaseID: "EK-1", Name: strPtr("John Smith"), DateOfDeath: &date, Status: models.RecordIdentified},
		models.DeceasedRecord{CaseID: "EK-2", Location: strPtr("Mombasa")},
	)
	recs, err := List(database.DB)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSheet(&buf, recs))

	rows, err := ReadSheet(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Case ID", rows[0][0])

	// Importing an export into a fresh database recreates the records.
	testutil.SetupDB(t)
	res, err := ImportRows(database.DB, rows, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	got, err := Search(database.DB, "smith")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.RecordIdentified, got[0].Status)
	require.NotNil(t, got[0].DateOfDeath)
	assert.True(t, date.Equal(*got[0].DateOfDeath))
}
