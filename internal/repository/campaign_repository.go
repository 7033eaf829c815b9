package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	Update(c *model.Campaign) error
	UpdateStatus(campaignID int, status string) error
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)

	// Lifecycle sweeps
	ListPendingToActivate(today time.Time) ([]*model.Campaign, error)
	ListActiveExpired(today time.Time) ([]*model.Campaign, error)
	Complete(campaignID int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, title, start_date, end_date, execution_period, asset_library_id, prompt, status, is_active, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.StartDate, &c.EndDate, &c.ExecutionPeriod,
		&c.AssetLibraryID, &c.Prompt, &c.Status, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusPending
	}
	query := `
        INSERT INTO campaigns (user_id, title, start_date, end_date, execution_period, asset_library_id, prompt, status, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.UserID, c.Title, c.StartDate, c.EndDate, c.ExecutionPeriod,
		c.AssetLibraryID, c.Prompt, c.Status, c.IsActive, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET title=$1, start_date=$2, end_date=$3, execution_period=$4, prompt=$5, status=$6, is_active=$7, updated_at=NOW()
        WHERE id=$8
    `
	_, err := r.DB.Exec(query, c.Title, c.StartDate, c.EndDate, c.ExecutionPeriod, c.Prompt, c.Status, c.IsActive, c.ID)
	return err
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

// Complete marks a campaign completed and inactive in one statement.
// Terminal: nothing in this system flips a completed campaign back.
func (r *CampaignRepository) Complete(campaignID int) error {
	query := `UPDATE campaigns SET status=$1, is_active=false, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, model.CampaignStatusCompleted, campaignID)
	return err
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListPendingToActivate returns pending campaigns whose start date is today.
func (r *CampaignRepository) ListPendingToActivate(today time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND is_active=true AND start_date=$2`
	return r.listByDate(query, model.CampaignStatusPending, today)
}

// ListActiveExpired returns active campaigns whose end date has passed.
func (r *CampaignRepository) ListActiveExpired(today time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND is_active=true AND end_date < $2`
	return r.listByDate(query, model.CampaignStatusActive, today)
}

func (r *CampaignRepository) listByDate(query, status string, date time.Time) ([]*model.Campaign, error) {
	rows, err := r.DB.Query(query, status, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
