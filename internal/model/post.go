// internal/model/post.go
package model

import "time"

// Post statuses
const (
	PostStatusPending   = "pending"
	PostStatusApproved  = "approved"
	PostStatusRejected  = "rejected"
	PostStatusPublished = "published"
	PostStatusDraft     = "draft"
)

// Log statuses
const (
	LogStatusGenerated = "generated"
	LogStatusFailed    = "failed"
)

type CampaignPost struct {
	ID          int       `db:"id" json:"id"`
	CampaignID  int       `db:"campaign_id" json:"campaign_id"`
	Content     string    `db:"content" json:"content"`
	PublishDate time.Time `db:"publish_date" json:"publish_date"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PostAsset links a post to an asset. An asset may appear in at most one
// post of a given campaign; the repository rejects the second link.
type PostAsset struct {
	ID         int `db:"id" json:"id"`
	CampaignID int `db:"campaign_id" json:"campaign_id"`
	PostID     int `db:"post_id" json:"post_id"`
	AssetID    int `db:"asset_id" json:"asset_id"`
}

// PostLog records a generation attempt. PostID is null for attempts that
// failed before any post existed.
type PostLog struct {
	ID           int       `db:"id" json:"id"`
	PostID       *int      `db:"post_id" json:"post_id,omitempty"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
