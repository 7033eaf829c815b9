package repository

import (
	"database/sql"
	"time"

	"github.com/postpilot/postpilot-backend/internal/model"
)

type ScheduleRepositoryInterface interface {
	Create(s *model.CampaignSchedule) error
	GetByCampaign(campaignID int) (*model.CampaignSchedule, error)
	ListDue(now time.Time) ([]*model.CampaignSchedule, error)
	Advance(scheduleID int, next, ranAt time.Time) error
	Disable(scheduleID int, ranAt time.Time) error
	ClaimPeriod(campaignID int, periodStart time.Time) (bool, error)
}

type ScheduleRepository struct {
	DB *sql.DB
}

// Create is idempotent per campaign: a second call for the same campaign
// returns the existing schedule untouched.
func (r *ScheduleRepository) Create(s *model.CampaignSchedule) error {
	existing, err := r.GetByCampaign(s.CampaignID)
	if err != nil {
		return err
	}
	if existing != nil {
		*s = *existing
		return nil
	}

	s.CreatedAt = time.Now()
	s.IsEnabled = true
	query := `
        INSERT INTO campaign_schedules (campaign_id, next_run_at, last_run_at, is_enabled, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, s.CampaignID, s.NextRunAt, s.LastRunAt, s.IsEnabled, s.CreatedAt).Scan(&s.ID)
}

func (r *ScheduleRepository) GetByCampaign(campaignID int) (*model.CampaignSchedule, error) {
	query := `
        SELECT id, campaign_id, next_run_at, last_run_at, is_enabled, created_at
        FROM campaign_schedules
        WHERE campaign_id=$1
    `
	var s model.CampaignSchedule
	err := r.DB.QueryRow(query, campaignID).Scan(&s.ID, &s.CampaignID, &s.NextRunAt, &s.LastRunAt, &s.IsEnabled, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListDue selects enabled schedules whose next_run_at has arrived.
// Disabled schedules are never returned, so re-running one is impossible
// from the sweep path.
func (r *ScheduleRepository) ListDue(now time.Time) ([]*model.CampaignSchedule, error) {
	query := `
        SELECT id, campaign_id, next_run_at, last_run_at, is_enabled, created_at
        FROM campaign_schedules
        WHERE is_enabled=true AND next_run_at IS NOT NULL AND next_run_at <= $1
        ORDER BY next_run_at
    `
	rows, err := r.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*model.CampaignSchedule{}
	for rows.Next() {
		var s model.CampaignSchedule
		if err := rows.Scan(&s.ID, &s.CampaignID, &s.NextRunAt, &s.LastRunAt, &s.IsEnabled, &s.CreatedAt); err != nil {
			return nil, err
		}
		schedules = append(schedules, &s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) Advance(scheduleID int, next, ranAt time.Time) error {
	query := `UPDATE campaign_schedules SET next_run_at=$1, last_run_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, next, ranAt, scheduleID)
	return err
}

func (r *ScheduleRepository) Disable(scheduleID int, ranAt time.Time) error {
	query := `UPDATE campaign_schedules SET is_enabled=false, next_run_at=NULL, last_run_at=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, ranAt, scheduleID)
	return err
}

// ClaimPeriod inserts a (campaign, period) marker. Returns false when another
// run already claimed the period, which makes redelivered sweeps skip
// duplicate generation instead of creating duplicate posts.
func (r *ScheduleRepository) ClaimPeriod(campaignID int, periodStart time.Time) (bool, error) {
	query := `
        INSERT INTO generation_runs (campaign_id, period_start, created_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (campaign_id, period_start) DO NOTHING
    `
	res, err := r.DB.Exec(query, campaignID, periodStart)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ ScheduleRepositoryInterface = (*ScheduleRepository)(nil)
