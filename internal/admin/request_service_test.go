package admin

import (
	"sync"
	"testing"
	"time"

	"everlasting-kin/internal/audit"
	"everlasting-kin/internal/auth"
	"everlasting-kin/internal/database"
	"everlasting-kin/internal/models"
	"everlasting-kin/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUp(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	u, err := auth.RegisterUser(email, "secret-pw", "Test", "User", role)
	require.NoError(t, err)
	return u
}

func pendingRequestFor(t *testing.T, userID uuid.UUID) models.AdminRequest {
	t.Helper()
	var req models.AdminRequest
	require.NoError(t, database.DB.First(&req, "user_id = ?", userID).Error)
	return req
}

func TestSignUpCreatesRequestOnlyForPrivilegedRoles(t *testing.T) {
	testutil.SetupDB(t)

	public := signUp(t, "public@example.org", models.RolePublicUser)
	staff := signUp(t, "staff@example.org", models.RoleMortuaryStaff)
	signUp(t, "police@example.org", models.RolePolice)

	assert.Equal(t, models.ApprovalApproved, public.ApprovalStatus)
	assert.Equal(t, models.ApprovalPending, staff.ApprovalStatus)

	reqs, err := ListRequests(database.DB, "")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	for _, r := range reqs {
		assert.Equal(t, models.RequestPending, r.Status)
		require.NotNil(t, r.User)
		assert.NotEqual(t, public.ID, r.UserID)
	}

	n, err := CountPending(database.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestListRequestsNewestFirst(t *testing.T) {
	testutil.SetupDB(t)

	older := signUp(t, "older@example.org", models.RolePolice)
	newer := signUp(t, "newer@example.org", models.RolePolice)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, database.DB.Model(&models.AdminRequest{}).Where("user_id = ?", older.ID).Update("requested_at", base).Error)
	require.NoError(t, database.DB.Model(&models.AdminRequest{}).Where("user_id = ?", newer.ID).Update("requested_at", base.Add(time.Hour)).Error)

	reqs, err := ListRequests(database.DB, "")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, newer.ID, reqs[0].UserID)
	assert.Equal(t, "newer@example.org", reqs[0].User.Email)
	assert.Equal(t, older.ID, reqs[1].UserID)
}

func TestApproveRequest(t *testing.T) {
	testutil.SetupDB(t)
	reviewer := uuid.New()

	staff := signUp(t, "staff@example.org", models.RoleMortuaryStaff)
	req := pendingRequestFor(t, staff.ID)

	got, err := ApproveRequest(database.DB, req.ID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, got.Status)

	reqs, err := ListRequests(database.DB, models.RequestApproved)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.RequestApproved, reqs[0].Status)
	require.NotNil(t, reqs[0].ReviewedBy)
	assert.Equal(t, reviewer, *reqs[0].ReviewedBy)
	assert.NotNil(t, reqs[0].ReviewedAt)

	var user models.User
	require.NoError(t, database.DB.First(&user, "id = ?", staff.ID).Error)
	assert.Equal(t, models.ApprovalApproved, user.ApprovalStatus)
	require.NotNil(t, user.ApprovedBy)
	assert.Equal(t, reviewer, *user.ApprovedBy)

	logs, err := audit.List(database.DB, audit.Filter{TableName: "admin_requests"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionApprove, logs[0].Action)
}

func TestRejectRequestIsTerminal(t *testing.T) {
	testutil.SetupDB(t)
	reviewer := uuid.New()

	police := signUp(t, "police@example.org", models.RolePolice)
	req := pendingRequestFor(t, police.ID)

	got, err := RejectRequest(database.DB, req.ID, reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, got.Status)

	var user models.User
	require.NoError(t, database.DB.First(&user, "id = ?", police.ID).Error)
	assert.Equal(t, models.ApprovalRejected, user.ApprovalStatus)

	_, err = ApproveRequest(database.DB, req.ID, reviewer)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = RejectRequest(database.DB, req.ID, reviewer)
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = ApproveRequest(database.DB, uuid.New(), reviewer)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestConcurrentReviewersOneWins(t *testing.T) {
	testutil.SetupDB(t)

	staff := signUp(t, "staff@example.org", models.RoleMortuaryStaff)
	req := pendingRequestFor(t, staff.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i == 0 {
				_, errs[i] = ApproveRequest(database.DB, req.ID, uuid.New())
			} else {
				_, errs[i] = RejectRequest(database.DB, req.ID, uuid.New())
			}
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, ErrNotPending):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}
