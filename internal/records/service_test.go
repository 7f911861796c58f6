package records

import (
	"testing"
	"time"

	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T, actor uuid.UUID, recs ...models.DeceasedRecord) []models.DeceasedRecord {
	t.Helper()
	out := make([]models.DeceasedRecord, 0, len(recs))
	for i := range recs {
		rec := recs[i]
		require.NoError(t, Create(database.DB, &rec, actor))
		out = append(out, rec)
	}
	return out
}

func TestListNewestFirst(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seed(t, actor,
		models.DeceasedRecord{CaseID: "EK-001", CreatedAt: base},
		models.DeceasedRecord{CaseID: "EK-003", CreatedAt: base.Add(2 * time.Hour)},
		models.DeceasedRecord{CaseID: "EK-002", CreatedAt: base.Add(time.Hour)},
	)

	recs, err := List(database.DB)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "EK-003", recs[0].CaseID)
	assert.Equal(t, "EK-002", recs[1].CaseID)
	assert.Equal(t, "EK-001", recs[2].CaseID)
}

func TestCreateDefaults(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()

	rec := models.DeceasedRecord{CaseID: "EK-100", Name: strPtr("Jane Roe")}
	require.NoError(t, Create(database.DB, &rec, actor))

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, models.RecordUnidentified, rec.Status)
	require.NotNil(t, rec.CreatedBy)
	assert.Equal(t, actor, *rec.CreatedBy)

	logs, err := audit.List(database.DB, audit.Filter{RecordID: &rec.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
}

func TestCreateRejectsDuplicateCaseID(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	seed(t, actor, models.DeceasedRecord{CaseID: "EK-1"})

	dup := models.DeceasedRecord{CaseID: "EK-1"}
	assert.ErrorIs(t, Create(database.DB, &dup, actor), ErrCaseIDTaken)

	recs, err := List(database.DB)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSearch(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	seed(t, actor,
		models.DeceasedRecord{CaseID: "EK-2024-001", Name: strPtr("John Smith"), Location: strPtr("Nairobi")},
		models.DeceasedRecord{CaseID: "EK-2024-002", Name: strPtr("Mary Wanjiru"), Location: strPtr("Mombasa")},
		models.DeceasedRecord{CaseID: "PD-SMITHFIELD", Location: strPtr("Kisumu")},
		models.DeceasedRecord{CaseID: "EK-2024-004"},
	)

	cases := []struct {
		query string
		want  []string
	}{
		{"smith", []string{"EK-2024-001", "PD-SMITHFIELD"}},
		{"SMITH", []string{"EK-2024-001", "PD-SMITHFIELD"}},
		{"mombasa", []string{"EK-2024-002"}},
		{"2024-00", []string{"EK-2024-001", "EK-2024-002", "EK-2024-004"}},
		{"nobody", nil},
		{"", []string{"EK-2024-001", "EK-2024-002", "PD-SMITHFIELD", "EK-2024-004"}},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			recs, err := Search(database.DB, tc.query)
			require.NoError(t, err)

			got := make([]string, 0, len(recs))
			for _, r := range recs {
				got = append(got, r.CaseID)
			}
			assert.ElementsMatch(t, tc.want, got)
		})
	}
}

func TestUpdatePatch(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	recs := seed(t, actor, models.DeceasedRecord{
		CaseID:   "EK-7",
		Name:     strPtr("Unknown"),
		Location: strPtr("City Mortuary"),
	})
	id := recs[0].ID

	updated, err := Update(database.DB, id, map[string]any{
		"status": string(models.RecordIdentified),
		"name":   nil,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, models.RecordIdentified, updated.Status)
	assert.Nil(t, updated.Name)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "City Mortuary", *updated.Location)

	_, err = Update(database.DB, uuid.New(), map[string]any{"status": "identified"}, actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCaseIDConflict(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	recs := seed(t, actor, models.DeceasedRecord{CaseID: "A"}, models.DeceasedRecord{CaseID: "B"})

	_, err := Update(database.DB, recs[1].ID, map[string]any{"case_id": "A"}, actor)
	assert.ErrorIs(t, err, ErrCaseIDTaken)

	// Keeping your own case id is not a conflict.
	_, err = Update(database.DB, recs[1].ID, map[string]any{"case_id": "B"}, actor)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	recs := seed(t, actor, models.DeceasedRecord{CaseID: "EK-9"})

	require.NoError(t, Delete(database.DB, recs[0].ID, actor))
	_, err := Get(database.DB, recs[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, Delete(database.DB, recs[0].ID, actor), ErrNotFound)

	logs, err := audit.List(database.DB, audit.Filter{Action: models.AuditActionDelete})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestCount(t *testing.T) {
	testutil.SetupDB(t)
	actor := uuid.New()
	seed(t, actor,
		models.DeceasedRecord{CaseID: "1", Status: models.RecordIdentified},
		models.DeceasedRecord{CaseID: "2", Status: models.RecordIdentified},
		models.DeceasedRecord{CaseID: "3"},
		models.DeceasedRecord{CaseID: "4", Status: models.RecordPendingIdentification},
	)

	c, err := Count(database.DB)
	require.NoError(t, err)
	assert.Equal(t, Counts{Total: 4, Identified: 2, Unidentified: 1, PendingIdentification: 1}, c)
}
