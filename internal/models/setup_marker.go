package models

import "time"

const MarkerFirstAdmin = "first_admin"

// SetupMarker records one-time setup steps. The primary key makes each step
// claimable exactly once, even by concurrent requests.
type SetupMarker struct {
	Name      string    `gorm:"size:50;primaryKey" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
