// internal/model/campaign.go
package model

import "time"

// Campaign statuses
const (
	CampaignStatusPending   = "pending"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusPaused    = "paused"
)

type Campaign struct {
	ID              int        `db:"id" json:"id"`
	UserID          int        `db:"user_id" json:"user_id"`
	Title           string     `db:"title" json:"title"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         time.Time  `db:"end_date" json:"end_date"`
	ExecutionPeriod string     `db:"execution_period" json:"execution_period"` // days between generation runs, stored as text
	AssetLibraryID  int        `db:"asset_library_id" json:"asset_library_id"`
	Prompt          string     `db:"prompt" json:"prompt"`
	Status          string     `db:"status" json:"status"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
