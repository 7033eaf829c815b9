// internal/service/advancer.go
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postpilot/postpilot-backend/internal/metrics"
	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

// ScheduleAdvancer owns the next_run_at / is_enabled transitions of a
// campaign schedule. Nothing else mutates schedules.
type ScheduleAdvancer struct {
	ScheduleRepo repository.ScheduleRepositoryInterface
	Log          *logrus.Entry
	Now          func() time.Time
}

func (a *ScheduleAdvancer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// InitSchedule creates the campaign's schedule with next_run_at at the
// campaign start (or now when the start date is absent). Idempotent: an
// existing schedule is returned untouched.
func (a *ScheduleAdvancer) InitSchedule(campaign *model.Campaign) (*model.CampaignSchedule, error) {
	first := campaign.StartDate
	if first.IsZero() {
		first = a.now()
	}

	s := &model.CampaignSchedule{
		CampaignID: campaign.ID,
		NextRunAt:  &first,
		IsEnabled:  true,
	}
	if err := a.ScheduleRepo.Create(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Advance moves the schedule forward one execution period, or disables it
// when the next run would fall past the campaign end. Called exactly once
// per due pass, after generation was attempted; generation failure never
// blocks the advance, otherwise a permanently-failing campaign would
// re-trigger forever.
func (a *ScheduleAdvancer) Advance(schedule *model.CampaignSchedule, campaign *model.Campaign) error {
	if !schedule.IsEnabled || schedule.NextRunAt == nil {
		return nil // disabled is terminal
	}

	days := PeriodDays(campaign.ExecutionPeriod)
	ranAt := a.now()
	next := schedule.NextRunAt.AddDate(0, 0, days)

	if !campaign.EndDate.IsZero() && next.After(campaign.EndDate) {
		if err := a.ScheduleRepo.Disable(schedule.ID, ranAt); err != nil {
			return err
		}
		schedule.IsEnabled = false
		schedule.NextRunAt = nil
		schedule.LastRunAt = &ranAt
		metrics.SchedulesDisabledTotal.Inc()
		a.Log.Infof("schedule %d disabled, campaign %d passed its end date", schedule.ID, campaign.ID)
		return nil
	}

	if err := a.ScheduleRepo.Advance(schedule.ID, next, ranAt); err != nil {
		return err
	}
	schedule.NextRunAt = &next
	schedule.LastRunAt = &ranAt
	a.Log.Infof("schedule %d advanced to %s", schedule.ID, next.Format(time.RFC3339))
	return nil
}
