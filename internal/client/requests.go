package client

import (
	"context"
	"net/http"
	"sync"

	"everlasting-kin/internal/models"

	"github.com/google/uuid"
)

// Requests is a local copy of the admin request queue, each request with
// its requesting user.
type Requests struct {
	client *Client

	mu       sync.RWMutex
	requests []models.AdminRequest
	loading  bool
	err      string
}

func NewRequests(c *Client) *Requests {
	return &Requests{client: c}
}

func (q *Requests) Requests() []models.AdminRequest {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]models.AdminRequest, len(q.requests))
	copy(out, q.requests)
	return out
}

func (q *Requests) Loading() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loading
}

func (q *Requests) Err() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Fetch replaces the queue with every request, newest first.
func (q *Requests) Fetch(ctx context.Context) error {
	q.mu.Lock()
	q.loading = true
	q.mu.Unlock()

	var reqs []models.AdminRequest
	err := withFallback(q.client.do(ctx, http.MethodGet, "/api/admin/requests", nil, &reqs), "An error occurred")

	q.mu.Lock()
	defer q.mu.Unlock()
	q.loading = false
	if err != nil {
		q.err = err.Error()
		return err
	}
	q.requests = reqs
	q.err = ""
	return nil
}

// Approve marks the request approved by reviewerID, which must be the
// signed-in admin, then re-fetches.
func (q *Requests) Approve(ctx context.Context, id, reviewerID uuid.UUID) error {
	return q.review(ctx, id, reviewerID, "approve", "Failed to approve request")
}

func (q *Requests) Reject(ctx context.Context, id, reviewerID uuid.UUID) error {
	return q.review(ctx, id, reviewerID, "reject", "Failed to reject request")
}

func (q *Requests) review(ctx context.Context, id, reviewerID uuid.UUID, action, fallback string) error {
	body := map[string]uuid.UUID{"reviewer_id": reviewerID}
	if err := q.client.do(ctx, http.MethodPost, "/api/admin/requests/"+id.String()+"/"+action, body, nil); err != nil {
		return withFallback(err, fallback)
	}
	// The review is committed; a failed re-fetch only shows in Err.
	_ = q.Fetch(ctx)
	return nil
}
