// internal/service/generator.go
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/postpilot/postpilot-backend/internal/ai"
	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/metrics"
	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

const oracleMaxTokens = 200

// PostGenerator materializes posts for a campaign period: one asset plus one
// oracle call per post, with per-post failure isolation.
type PostGenerator struct {
	CampaignRepo repository.CampaignRepositoryInterface
	AssetRepo    repository.AssetRepositoryInterface
	PostRepo     repository.PostRepositoryInterface
	Selector     *AssetSelector
	Oracle       ai.Generator
	Log          *logrus.Entry
	Now          func() time.Time
}

func (g *PostGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Readiness is the result of the pre-generation validation.
type Readiness struct {
	CampaignID   int      `json:"campaign_id"`
	HasPrompt    bool     `json:"has_prompt"`
	UnusedAssets int      `json:"unused_assets_count"`
	IsActive     bool     `json:"is_active"`
	Ready        bool     `json:"ready_for_generation"`
	Missing      []string `json:"missing_requirements"`
}

// ValidateForGeneration checks prompt, unused assets and active flag.
func (g *PostGenerator) ValidateForGeneration(campaign *model.Campaign) (*Readiness, error) {
	unused, err := g.AssetRepo.CountUnusedByLibrary(campaign.AssetLibraryID)
	if err != nil {
		return nil, err
	}

	r := &Readiness{
		CampaignID:   campaign.ID,
		HasPrompt:    strings.TrimSpace(campaign.Prompt) != "",
		UnusedAssets: unused,
		IsActive:     campaign.IsActive,
		Missing:      []string{},
	}
	if !r.HasPrompt {
		r.Missing = append(r.Missing, "prompt")
	}
	if r.UnusedAssets == 0 {
		r.Missing = append(r.Missing, "unused_assets")
	}
	if !r.IsActive {
		r.Missing = append(r.Missing, "active_campaign")
	}
	r.Ready = len(r.Missing) == 0
	return r, nil
}

// GeneratePeriodPosts creates up to postsPerPeriod posts for the period
// starting at periodStart. Slots whose date already passed are dropped, a
// failing slot never aborts its siblings, and the result may be shorter
// than requested.
func (g *PostGenerator) GeneratePeriodPosts(campaign *model.Campaign, periodStart time.Time, postsPerPeriod int) ([]*model.CampaignPost, error) {
	readiness, err := g.ValidateForGeneration(campaign)
	if err != nil {
		return nil, err
	}
	if !readiness.Ready {
		return nil, appErrors.NewCampaignNotReady(campaign.ID, readiness.Missing)
	}

	today := dateOf(g.now())
	if today.Before(dateOf(campaign.StartDate)) || today.After(dateOf(campaign.EndDate)) {
		return nil, appErrors.NewCampaignNotReady(campaign.ID, []string{"campaign_window"})
	}

	periodDays := PeriodDays(campaign.ExecutionPeriod)
	// Integer spacing; 0 for short periods puts all posts on the same date.
	spacing := periodDays / postsPerPeriod

	created := []*model.CampaignPost{}
	for i := 0; i < postsPerPeriod; i++ {
		postDate := dateOf(periodStart).AddDate(0, 0, i*spacing)
		if postDate.Before(today) {
			g.Log.Debugf("slot %d for campaign %d is in the past (%s), skipping", i, campaign.ID, postDate.Format("2006-01-02"))
			continue
		}

		post, err := g.generateOne(campaign, postDate)
		if err != nil {
			g.Log.Warnf("⚠️ post %d/%d for campaign %d failed: %v", i+1, postsPerPeriod, campaign.ID, err)
			continue
		}
		created = append(created, post)
	}

	return created, nil
}

// GenerateSinglePost is the unit of work behind the queue task and the
// on-demand HTTP endpoint.
func (g *PostGenerator) GenerateSinglePost(campaignID int, publishDate time.Time) (*model.CampaignPost, error) {
	campaign, err := g.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	readiness, err := g.ValidateForGeneration(campaign)
	if err != nil {
		return nil, err
	}
	if !readiness.Ready {
		return nil, appErrors.NewCampaignNotReady(campaign.ID, readiness.Missing)
	}

	return g.generateOne(campaign, publishDate)
}

// generateOne selects an asset, calls the oracle and persists the post, the
// asset link and the log entry. Failures before a post exists are logged
// with a null post reference.
func (g *PostGenerator) generateOne(campaign *model.Campaign, publishDate time.Time) (*model.CampaignPost, error) {
	asset, err := g.Selector.SelectUnused(campaign.AssetLibraryID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		metrics.GenerationFailuresTotal.WithLabelValues("asset_exhausted").Inc()
		if err := g.PostRepo.CreateLog(nil, model.LogStatusFailed, appErrors.ErrAssetExhausted.Error()); err != nil {
			g.Log.Warnf("⚠️ failed to write post log: %v", err)
		}
		return nil, appErrors.ErrAssetExhausted
	}

	prompt := ai.BuildAssetPrompt(campaign.Prompt, asset)
	content, err := g.Oracle.GenerateContent(prompt, oracleMaxTokens)
	if err != nil || content == "" {
		if err == nil {
			err = appErrors.NewGenerationError("provider returned empty content")
		}
		metrics.GenerationFailuresTotal.WithLabelValues("oracle").Inc()
		if logErr := g.PostRepo.CreateLog(nil, model.LogStatusFailed, err.Error()); logErr != nil {
			g.Log.Warnf("⚠️ failed to write post log: %v", logErr)
		}
		return nil, err
	}

	post := &model.CampaignPost{
		CampaignID:  campaign.ID,
		Content:     content,
		PublishDate: publishDate,
		Status:      model.PostStatusPending,
	}
	if err := g.PostRepo.CreatePost(post); err != nil {
		metrics.GenerationFailuresTotal.WithLabelValues("other").Inc()
		return nil, err
	}

	if err := g.PostRepo.LinkAsset(campaign.ID, post.ID, asset.ID); err != nil {
		reason := "other"
		if appErrors.IsAssetAlreadyUsed(err) {
			reason = "conflict"
		}
		metrics.GenerationFailuresTotal.WithLabelValues(reason).Inc()
		if logErr := g.PostRepo.CreateLog(&post.ID, model.LogStatusFailed, err.Error()); logErr != nil {
			g.Log.Warnf("⚠️ failed to write post log: %v", logErr)
		}
		return nil, err
	}

	if err := g.Selector.MarkUsed(asset.ID); err != nil {
		g.Log.Warnf("⚠️ failed to mark asset %d used: %v", asset.ID, err)
	}

	if err := g.PostRepo.CreateLog(&post.ID, model.LogStatusGenerated, ""); err != nil {
		g.Log.Warnf("⚠️ failed to write post log: %v", err)
	}

	metrics.PostsGeneratedTotal.Inc()
	g.Log.Infof("✅ created post %d for campaign %d (publish %s, asset %d)",
		post.ID, campaign.ID, publishDate.Format("2006-01-02"), asset.ID)
	return post, nil
}

// IsSkippableGenerationError reports whether a single-post task error should
// be swallowed instead of retried: not-ready and not-found end the task
// cleanly, and an exhausted library will not refill by retrying.
func IsSkippableGenerationError(err error) bool {
	return appErrors.IsNotReady(err) || appErrors.IsNotFound(err) || errors.Is(err, appErrors.ErrAssetExhausted)
}
