package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
)

type PostRepositoryInterface interface {
	CreatePost(p *model.CampaignPost) error
	GetByID(id int) (*model.CampaignPost, error)
	ListByCampaign(campaignID int) ([]*model.CampaignPost, error)
	UpdateStatus(postID int, status string) error
	LinkAsset(campaignID, postID, assetID int) error
	CreateLog(postID *int, status, errorMessage string) error
	StatsByCampaign(campaignID int) (map[string]int, error)
	LinkedAssetCount(campaignID int) (int, error)
}

type PostRepository struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

func (r *PostRepository) CreatePost(p *model.CampaignPost) error {
	p.CreatedAt = time.Now()
	if p.Status == "" {
		p.Status = model.PostStatusPending
	}
	query := `
        INSERT INTO campaign_posts (campaign_id, content, publish_date, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, p.CampaignID, p.Content, p.PublishDate, p.Status, p.CreatedAt).Scan(&p.ID)
}

func (r *PostRepository) GetByID(id int) (*model.CampaignPost, error) {
	query := `SELECT id, campaign_id, content, publish_date, status, created_at FROM campaign_posts WHERE id=$1`
	var p model.CampaignPost
	err := r.DB.QueryRow(query, id).Scan(&p.ID, &p.CampaignID, &p.Content, &p.PublishDate, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) ListByCampaign(campaignID int) ([]*model.CampaignPost, error) {
	query := `SELECT id, campaign_id, content, publish_date, status, created_at
        FROM campaign_posts WHERE campaign_id=$1 ORDER BY publish_date`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*model.CampaignPost{}
	for rows.Next() {
		var p model.CampaignPost
		if err := rows.Scan(&p.ID, &p.CampaignID, &p.Content, &p.PublishDate, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) UpdateStatus(postID int, status string) error {
	query := `UPDATE campaign_posts SET status=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, status, postID)
	return err
}

// LinkAsset attaches an asset to a post. post_assets carries the campaign_id
// with a unique (campaign_id, asset_id) constraint, so two concurrent
// attempts to claim the same asset for the same campaign cannot both
// succeed: the loser gets a deterministic conflict error.
func (r *PostRepository) LinkAsset(campaignID, postID, assetID int) error {
	query := `INSERT INTO post_assets (campaign_id, post_id, asset_id) VALUES ($1, $2, $3)`
	_, err := r.DB.Exec(query, campaignID, postID, assetID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return appErrors.NewAssetAlreadyUsed(campaignID, assetID)
		}
		return err
	}
	return nil
}

// CreateLog appends a generation attempt record. postID is nil when
// generation failed before a post existed.
func (r *PostRepository) CreateLog(postID *int, status, errorMessage string) error {
	query := `INSERT INTO post_logs (post_id, status, error_message, created_at) VALUES ($1, $2, $3, NOW())`
	var errMsg sql.NullString
	if errorMessage != "" {
		errMsg = sql.NullString{String: errorMessage, Valid: true}
	}
	_, err := r.DB.Exec(query, postID, status, errMsg)
	return err
}

func (r *PostRepository) StatsByCampaign(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM campaign_posts WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total":     0,
		"pending":   0,
		"approved":  0,
		"rejected":  0,
		"published": 0,
		"draft":     0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

func (r *PostRepository) LinkedAssetCount(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM post_assets WHERE campaign_id=$1`, campaignID).Scan(&count)
	return count, err
}

var _ PostRepositoryInterface = (*PostRepository)(nil)
