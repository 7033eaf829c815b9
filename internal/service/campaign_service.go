// internal/service/campaign_service.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/queue"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ScheduleRepo repository.ScheduleRepositoryInterface
	AssetRepo    repository.AssetRepositoryInterface
	PostRepo     repository.PostRepositoryInterface
	Advancer     *ScheduleAdvancer
	Scanner      *DueScheduleScanner
	Generator    *PostGenerator
	Queue        queue.Queue
	Log          *logrus.Entry
	Now          func() time.Time
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type CreateCampaignInput struct {
	UserID          int    `json:"user_id"`
	Title           string `json:"title"`
	StartDate       string `json:"start_date"` // YYYY-MM-DD
	EndDate         string `json:"end_date"`
	ExecutionPeriod string `json:"execution_period"`
	AssetLibraryID  int    `json:"asset_library_id"`
	Prompt          string `json:"prompt"`
}

// CreateCampaign persists a new pending campaign. It deliberately does NOT
// create the schedule or enqueue anything: schedule initialization is a
// separate explicit call so there are no hidden side effects on insert.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	start, err := time.Parse("2006-01-02", in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %v", err)
	}
	end, err := time.Parse("2006-01-02", in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date: %v", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}

	c := &model.Campaign{
		UserID:          in.UserID,
		Title:           in.Title,
		StartDate:       start,
		EndDate:         end,
		ExecutionPeriod: in.ExecutionPeriod,
		AssetLibraryID:  in.AssetLibraryID,
		Prompt:          in.Prompt,
		Status:          model.CampaignStatusPending,
		IsActive:        true,
	}
	if !start.After(dateOf(s.now())) {
		c.Status = model.CampaignStatusActive
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// InitializeSchedule creates the campaign's schedule (next_run_at at the
// campaign start) and, when generateNow is set and the schedule is already
// due, runs the first period's burst synchronously.
func (s *CampaignService) InitializeSchedule(campaignID int, generateNow bool) (*model.CampaignSchedule, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.Advancer.InitSchedule(campaign)
	if err != nil {
		return nil, err
	}

	if generateNow && schedule.IsEnabled && schedule.NextRunAt != nil && !schedule.NextRunAt.After(s.now()) {
		if err := s.Scanner.ProcessSchedule(schedule); err != nil {
			s.Log.Warnf("⚠️ initial burst for campaign %d failed: %v", campaignID, err)
		}
	}

	return schedule, nil
}

// EnqueuePostGeneration publishes count single-post generation jobs, spaced
// a second apart to stay under oracle rate limits. Posts are scheduled to
// publish an hour out.
func (s *CampaignService) EnqueuePostGeneration(campaignID, count int) (int, error) {
	if count < 1 {
		count = 1
	}

	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return 0, err
	}

	publishDate := s.now().Add(time.Hour)
	queued := 0
	for i := 0; i < count; i++ {
		job := queue.GenerationJob{CampaignID: campaignID, PublishDate: publishDate}
		if err := s.Queue.PublishWithDelay(queue.TopicPostGeneration, job, time.Duration(i)*time.Second); err != nil {
			s.Log.Warnf("⚠️ failed to enqueue generation job for campaign %d: %v", campaignID, err)
			continue
		}
		queued++
	}
	return queued, nil
}

// ResetCampaignAssets clears the usage flags of every asset linked to the
// campaign's posts, so generation can be re-run.
func (s *CampaignService) ResetCampaignAssets(campaignID int) (int, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return 0, err
	}

	ids, err := s.AssetRepo.ListUsedByCampaign(campaignID)
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, id := range ids {
		if err := s.AssetRepo.ResetUsage(id); err != nil {
			s.Log.Warnf("⚠️ failed to reset asset %d: %v", id, err)
			continue
		}
		reset++
	}
	return reset, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

type CampaignDetails struct {
	Campaign     *model.Campaign         `json:"campaign"`
	Schedule     *model.CampaignSchedule `json:"schedule,omitempty"`
	PostStats    map[string]int          `json:"post_stats"`
	AssetStats   map[string]int          `json:"asset_stats"`
	LinkedAssets int                     `json:"linked_assets"`
	Periods      []Period                `json:"periods"`
}

// GetCampaignDetails returns the campaign together with its schedule, post
// and asset usage stats, and the planned period boundaries.
func (s *CampaignService) GetCampaignDetails(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.ScheduleRepo.GetByCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	postStats, err := s.PostRepo.StatsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	assetStats, err := s.AssetRepo.UsageStats(campaign.AssetLibraryID)
	if err != nil {
		return nil, err
	}

	linked, err := s.PostRepo.LinkedAssetCount(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		Campaign:     campaign,
		Schedule:     schedule,
		PostStats:    postStats,
		AssetStats:   assetStats,
		LinkedAssets: linked,
		Periods:      PlanPeriods(campaign.StartDate, campaign.EndDate, campaign.ExecutionPeriod),
	}, nil
}
