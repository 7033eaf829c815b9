// internal/service/scanner.go
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/metrics"
	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

// DueScheduleScanner sweeps enabled schedules whose next_run_at has arrived
// and drives generation then advancement for each. Schedules are
// independent units: one failing schedule never blocks the rest.
type DueScheduleScanner struct {
	ScheduleRepo repository.ScheduleRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	Generator    *PostGenerator
	Advancer     *ScheduleAdvancer
	Log          *logrus.Entry
	Now          func() time.Time
}

func (s *DueScheduleScanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Scan runs one sweep pass.
func (s *DueScheduleScanner) Scan() error {
	now := s.now()
	due, err := s.ScheduleRepo.ListDue(now)
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("due_schedules", "error").Inc()
		return err
	}

	s.Log.Infof("due sweep: %d schedule(s) to process", len(due))
	for _, schedule := range due {
		if err := s.ProcessSchedule(schedule); err != nil {
			// Isolation: log and continue with the other schedules.
			s.Log.Warnf("⚠️ schedule %d (campaign %d) failed: %v", schedule.ID, schedule.CampaignID, err)
		}
	}

	metrics.SweepsTotal.WithLabelValues("due_schedules", "ok").Inc()
	return nil
}

// ProcessSchedule generates the current period's posts and advances the
// schedule exactly once. The advance happens whether or not generation
// succeeded.
func (s *DueScheduleScanner) ProcessSchedule(schedule *model.CampaignSchedule) error {
	if !schedule.IsEnabled || schedule.NextRunAt == nil {
		return nil
	}

	campaign, err := s.CampaignRepo.GetByID(schedule.CampaignID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			s.Log.Warnf("⚠️ campaign %d gone, skipping schedule %d", schedule.CampaignID, schedule.ID)
			return nil
		}
		return err
	}

	periodStart := dateOf(*schedule.NextRunAt)

	// Dedup guard: at-least-once delivery means this pass may run twice for
	// the same period. Only the claim winner generates; the advance below
	// is an idempotent no-op on a redelivery that also lost the claim race
	// after the winner advanced.
	claimed, err := s.ScheduleRepo.ClaimPeriod(campaign.ID, periodStart)
	if err != nil {
		return err
	}

	if claimed {
		posts, genErr := s.Generator.GeneratePeriodPosts(campaign, periodStart, PostsPerPeriod(PeriodDays(campaign.ExecutionPeriod)))
		switch {
		case genErr == nil:
			s.Log.Infof("campaign %d period %s: %d post(s) created", campaign.ID, periodStart.Format("2006-01-02"), len(posts))
		case appErrors.IsNotReady(genErr):
			// Fail fast, no retry; the schedule still advances.
			s.Log.Infof("campaign %d not ready, skipping period %s: %v", campaign.ID, periodStart.Format("2006-01-02"), genErr)
		default:
			s.Log.Warnf("⚠️ generation for campaign %d period %s failed: %v", campaign.ID, periodStart.Format("2006-01-02"), genErr)
		}
	} else {
		s.Log.Infof("period %s of campaign %d already claimed, skipping generation", periodStart.Format("2006-01-02"), campaign.ID)
	}

	return s.Advancer.Advance(schedule, campaign)
}
