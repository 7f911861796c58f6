package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"everlasting-kin/internal/dashboard"
	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer answers every request with status and body and counts the
// calls it saw.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSignupFormValidatesBeforeSending(t *testing.T) {
	srv, calls := countingServer(t, http.StatusCreated, `{}`)
	s := NewSession(New(srv.URL, srv.Client()))

	err := SignupForm{Email: "a@kin.test", Password: "secret123", ConfirmPassword: "secret124"}.Submit(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())

	err = SignupForm{Email: "a@kin.test", Password: "abc", ConfirmPassword: "abc"}.Submit(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters long", err.Error())

	// Mismatch wins over length.
	err = SignupForm{Password: "abc", ConfirmPassword: "abd"}.Submit(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match", err.Error())

	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
	assert.Nil(t, s.User())
}

func TestServerMessageIsReturned(t *testing.T) {
	srv, calls := countingServer(t, http.StatusConflict, `{"error":"A record with this case id already exists"}`)
	r := NewRecords(New(srv.URL, srv.Client()))

	_, err := r.Create(context.Background(), NewRecord{CaseID: "EK-1"})
	require.Error(t, err)
	assert.Equal(t, "A record with this case id already exists", err.Error())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	// No retry and no re-fetch after a failed write.
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestFallbackMessages(t *testing.T) {
	srv, _ := countingServer(t, http.StatusInternalServerError, ``)
	c := New(srv.URL, srv.Client())
	r := NewRecords(c)
	q := NewRequests(c)
	ctx := context.Background()

	_, err := r.Create(ctx, NewRecord{CaseID: "EK-1"})
	assert.EqualError(t, err, "Failed to create record")

	_, err = r.Update(ctx, uuid.New(), RecordPatch{})
	assert.EqualError(t, err, "Failed to update record")

	assert.EqualError(t, r.Delete(ctx, uuid.New()), "Failed to delete record")
	assert.EqualError(t, q.Approve(ctx, uuid.New(), uuid.New()), "Failed to approve request")
	assert.EqualError(t, q.Reject(ctx, uuid.New(), uuid.New()), "Failed to reject request")
}

func TestFetchFailureSetsErr(t *testing.T) {
	srv, _ := countingServer(t, http.StatusUnauthorized, `{"error":"Missing Authorization header"}`)
	r := NewRecords(New(srv.URL, srv.Client()))

	require.Error(t, r.Fetch(context.Background()))
	assert.Equal(t, "Missing Authorization header", r.Err())
	assert.False(t, r.Loading())
	assert.Empty(t, r.Records())
}

func TestSessionStartsLoading(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, `{}`)
	s := NewSession(New(srv.URL, srv.Client()))
	assert.True(t, s.Loading())

	// Nothing to restore without a token.
	require.NoError(t, s.Restore(context.Background()))
	assert.False(t, s.Loading())
	assert.Nil(t, s.User())
	assert.Nil(t, s.Profile())
	assert.Equal(t, dashboard.ViewNone, s.View())
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestSessionView(t *testing.T) {
	s := NewSession(New("http://unused", nil))
	s.set(&models.User{ID: uuid.New(), Email: "p@kin.test", Role: models.RolePolice})
	assert.Equal(t, dashboard.ViewStaff, s.View())

	s.set(nil)
	assert.Equal(t, dashboard.ViewNone, s.View())
}

// writeOnlyServer accepts every write and fails every read, as a server
// whose list query breaks after the write commits.
func writeOnlyServer(t *testing.T, created string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch records"}`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(created))
		case http.MethodPut:
			_, _ = w.Write([]byte(created))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWriteSucceedsWhenRefetchFails(t *testing.T) {
	id := uuid.New()
	srv := writeOnlyServer(t, `{"id":"`+id.String()+`","case_id":"EK-1","status":"unidentified"}`)
	c := New(srv.URL, srv.Client())
	r := NewRecords(c)
	ctx := context.Background()

	rec, err := r.Create(ctx, NewRecord{CaseID: "EK-1"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "EK-1", rec.CaseID)
	assert.Equal(t, "Failed to fetch records", r.Err())
	assert.False(t, r.Loading())

	name := "John Smith"
	rec, err = r.Update(ctx, id, RecordPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Failed to fetch records", r.Err())

	assert.NoError(t, r.Delete(ctx, id))
	assert.Equal(t, "Failed to fetch records", r.Err())

	q := NewRequests(c)
	assert.NoError(t, q.Approve(ctx, uuid.New(), uuid.New()))
	assert.NoError(t, q.Reject(ctx, uuid.New(), uuid.New()))
	assert.Equal(t, "Failed to fetch records", q.Err())
	assert.Empty(t, q.Requests())
}
