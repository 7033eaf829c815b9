// internal/service/lifecycle.go
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

// CampaignLifecycleManager runs the two status sweeps: activate campaigns
// whose start date arrived, complete campaigns whose end date passed. Both
// sweeps are idempotent and safe to re-run within the same day.
type CampaignLifecycleManager struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Log          *logrus.Entry
	Now          func() time.Time
}

func (m *CampaignLifecycleManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// ActivatePending flips pending campaigns starting today to active.
func (m *CampaignLifecycleManager) ActivatePending() (int, error) {
	today := dateOf(m.now())
	campaigns, err := m.CampaignRepo.ListPendingToActivate(today)
	if err != nil {
		return 0, err
	}

	activated := 0
	for _, c := range campaigns {
		if err := m.CampaignRepo.UpdateStatus(c.ID, model.CampaignStatusActive); err != nil {
			m.Log.Warnf("⚠️ failed to activate campaign %d: %v", c.ID, err)
			continue
		}
		m.Log.Infof("🚀 campaign %d (%s) activated", c.ID, c.Title)
		activated++
	}
	return activated, nil
}

// CompleteExpired marks active campaigns past their end date completed and
// inactive. Terminal: this system never reactivates a completed campaign.
func (m *CampaignLifecycleManager) CompleteExpired() (int, error) {
	today := dateOf(m.now())
	campaigns, err := m.CampaignRepo.ListActiveExpired(today)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, c := range campaigns {
		if err := m.CampaignRepo.Complete(c.ID); err != nil {
			m.Log.Warnf("⚠️ failed to complete campaign %d: %v", c.ID, err)
			continue
		}
		m.Log.Infof("campaign %d (%s) completed", c.ID, c.Title)
		completed++
	}
	return completed, nil
}

// Run executes both sweeps; a failure in one does not stop the other.
func (m *CampaignLifecycleManager) Run() error {
	var firstErr error
	if _, err := m.ActivatePending(); err != nil {
		m.Log.Warnf("⚠️ activation sweep failed: %v", err)
		firstErr = err
	}
	if _, err := m.CompleteExpired(); err != nil {
		m.Log.Warnf("⚠️ completion sweep failed: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
