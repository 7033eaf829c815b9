// internal/model/schedule.go
package model

import "time"

// CampaignSchedule tracks when a campaign is next due for post generation.
// One authoritative schedule per campaign. next_run_at is null once the
// schedule has been disabled.
type CampaignSchedule struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	NextRunAt  *time.Time `db:"next_run_at" json:"next_run_at,omitempty"`
	LastRunAt  *time.Time `db:"last_run_at" json:"last_run_at,omitempty"`
	IsEnabled  bool       `db:"is_enabled" json:"is_enabled"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
