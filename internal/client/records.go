package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"everlasting-kin/internal/models"

	"github.com/google/uuid"
)

// NewRecord is the body of a record create. Empty optional fields are
// stored as NULL.
type NewRecord struct {
	CaseID          string  `json:"case_id"`
	Name            *string `json:"name,omitempty"`
	DateOfDeath     *string `json:"date_of_death,omitempty"`
	Location        *string `json:"location,omitempty"`
	FingerprintHash *string `json:"fingerprint_hash,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	MortuaryDetails *string `json:"mortuary_details,omitempty"`
	Status          string  `json:"status,omitempty"`
}

// RecordPatch changes only the fields that are set. A pointer to "" clears
// an optional field.
type RecordPatch struct {
	CaseID          *string `json:"case_id,omitempty"`
	Name            *string `json:"name,omitempty"`
	DateOfDeath     *string `json:"date_of_death,omitempty"`
	Location        *string `json:"location,omitempty"`
	FingerprintHash *string `json:"fingerprint_hash,omitempty"`
	PhotoURL        *string `json:"photo_url,omitempty"`
	MortuaryDetails *string `json:"mortuary_details,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// Records is a local copy of the deceased records list. Every successful
// write is followed by a full re-fetch. A failed re-fetch does not fail the
// write that preceded it; its message is left in Err.
type Records struct {
	client *Client

	mu      sync.RWMutex
	records []models.DeceasedRecord
	loading bool
	err     string
}

func NewRecords(c *Client) *Records {
	return &Records{client: c}
}

func (r *Records) Records() []models.DeceasedRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.DeceasedRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Records) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Err is the message of the last failed fetch or search, "" after a
// successful one.
func (r *Records) Err() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Records) load(ctx context.Context, path string) error {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	var recs []models.DeceasedRecord
	err := withFallback(r.client.do(ctx, http.MethodGet, path, nil, &recs), "An error occurred")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.err = err.Error()
		return err
	}
	r.records = recs
	r.err = ""
	return nil
}

// Fetch replaces the list with every record, newest first.
func (r *Records) Fetch(ctx context.Context) error {
	return r.load(ctx, "/api/records")
}

// Search replaces the list with records whose name, case id or location
// contains query, ignoring case. A blank query fetches everything.
func (r *Records) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.Fetch(ctx)
	}
	return r.load(ctx, "/api/records/search?q="+url.QueryEscape(query))
}

func (r *Records) Create(ctx context.Context, in NewRecord) (*models.DeceasedRecord, error) {
	var rec models.DeceasedRecord
	if err := r.client.do(ctx, http.MethodPost, "/api/records", in, &rec); err != nil {
		return nil, withFallback(err, "Failed to create record")
	}
	_ = r.Fetch(ctx)
	return &rec, nil
}

func (r *Records) Update(ctx context.Context, id uuid.UUID, patch RecordPatch) (*models.DeceasedRecord, error) {
	var rec models.DeceasedRecord
	if err := r.client.do(ctx, http.MethodPut, "/api/records/"+id.String(), patch, &rec); err != nil {
		return nil, withFallback(err, "Failed to update record")
	}
	_ = r.Fetch(ctx)
	return &rec, nil
}

func (r *Records) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.client.do(ctx, http.MethodDelete, "/api/records/"+id.String(), nil, nil); err != nil {
		return withFallback(err, "Failed to delete record")
	}
	_ = r.Fetch(ctx)
	return nil
}
