package service_test

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
	"github.com/postpilot/postpilot-backend/internal/model"
	"github.com/postpilot/postpilot-backend/internal/repository"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("service", "test")
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixedPicker always picks the first candidate, for deterministic selection.
type fixedPicker struct{}

func (fixedPicker) Pick(n int) int { return 0 }

// ---------------- asset repo ----------------

type memAssetRepo struct {
	mu             sync.Mutex
	assets         map[int]*model.Asset
	usedByCampaign map[int][]int
	nextID         int
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{assets: map[int]*model.Asset{}, usedByCampaign: map[int][]int{}}
}

func (m *memAssetRepo) addAsset(libraryID int, name string) *model.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a := &model.Asset{ID: m.nextID, LibraryID: libraryID, Name: name, FileType: model.FileTypeImage, FilePath: "assets/" + name}
	m.assets[a.ID] = a
	return a
}

func (m *memAssetRepo) CreateLibrary(lib *model.AssetLibrary) error { lib.ID = 1; return nil }

func (m *memAssetRepo) Create(a *model.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	m.assets[a.ID] = a
	return nil
}

func (m *memAssetRepo) GetByID(id int) (*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, appErrors.NewAssetNotFound(id)
	}
	return a, nil
}

func (m *memAssetRepo) ListByLibrary(libraryID int) ([]*model.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Asset{}
	for id := 1; id <= m.nextID; id++ {
		if a, ok := m.assets[id]; ok && a.LibraryID == libraryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssetRepo) ListUnusedByLibrary(libraryID int) ([]*model.Asset, error) {
	all, _ := m.ListByLibrary(libraryID)
	out := []*model.Asset{}
	for _, a := range all {
		if !a.IsUsedByAI && a.FilePath != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssetRepo) CountUnusedByLibrary(libraryID int) (int, error) {
	unused, _ := m.ListUnusedByLibrary(libraryID)
	return len(unused), nil
}

func (m *memAssetRepo) MarkUsed(assetID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetID]
	if !ok {
		return appErrors.NewAssetNotFound(assetID)
	}
	now := time.Now()
	a.IsUsedByAI = true
	a.UsedAt = &now
	a.UsageCount++
	return nil
}

func (m *memAssetRepo) ResetUsage(assetID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetID]
	if !ok {
		return appErrors.NewAssetNotFound(assetID)
	}
	a.IsUsedByAI = false
	a.UsedAt = nil
	a.UsageCount = 0
	return nil
}

func (m *memAssetRepo) ListUsedByCampaign(campaignID int) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usedByCampaign[campaignID], nil
}

func (m *memAssetRepo) UsageStats(libraryID int) (map[string]int, error) {
	all, _ := m.ListByLibrary(libraryID)
	used := 0
	for _, a := range all {
		if a.IsUsedByAI {
			used++
		}
	}
	return map[string]int{"total_assets": len(all), "used_assets": used, "unused_assets": len(all) - used}, nil
}

var _ repository.AssetRepositoryInterface = (*memAssetRepo)(nil)

// ---------------- campaign repo ----------------

type memCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[int]*model.Campaign
	nextID    int
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{campaigns: map[int]*model.Campaign{}}
}

func (m *memCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	if c.Status == "" {
		c.Status = model.CampaignStatusPending
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *memCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *memCampaignRepo) Update(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	return nil
}

func (m *memCampaignRepo) UpdateStatus(campaignID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = status
	return nil
}

func (m *memCampaignRepo) Complete(campaignID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	c.Status = model.CampaignStatusCompleted
	c.IsActive = false
	return nil
}

func (m *memCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for id := 1; id <= m.nextID; id++ {
		if c, ok := m.campaigns[id]; ok && (status == "" || c.Status == status) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *memCampaignRepo) ListPendingToActivate(today time.Time) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for id := 1; id <= m.nextID; id++ {
		c, ok := m.campaigns[id]
		if ok && c.Status == model.CampaignStatusPending && c.IsActive && c.StartDate.Equal(today) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCampaignRepo) ListActiveExpired(today time.Time) ([]*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Campaign{}
	for id := 1; id <= m.nextID; id++ {
		c, ok := m.campaigns[id]
		if ok && c.Status == model.CampaignStatusActive && c.IsActive && c.EndDate.Before(today) {
			out = append(out, c)
		}
	}
	return out, nil
}

var _ repository.CampaignRepositoryInterface = (*memCampaignRepo)(nil)

// ---------------- schedule repo ----------------

type memScheduleRepo struct {
	mu        sync.Mutex
	schedules map[int]*model.CampaignSchedule
	claims    map[string]bool
	nextID    int
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{schedules: map[int]*model.CampaignSchedule{}, claims: map[string]bool{}}
}

func (m *memScheduleRepo) Create(s *model.CampaignSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.schedules {
		if existing.CampaignID == s.CampaignID {
			*s = *existing
			return nil
		}
	}
	m.nextID++
	s.ID = m.nextID
	s.IsEnabled = true
	s.CreatedAt = time.Now()
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *memScheduleRepo) GetByCampaign(campaignID int) (*model.CampaignSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.schedules {
		if s.CampaignID == campaignID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memScheduleRepo) ListDue(now time.Time) ([]*model.CampaignSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.CampaignSchedule{}
	for id := 1; id <= m.nextID; id++ {
		s, ok := m.schedules[id]
		if ok && s.IsEnabled && s.NextRunAt != nil && !s.NextRunAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memScheduleRepo) Advance(scheduleID int, next, ranAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok {
		return fmt.Errorf("schedule %d not found", scheduleID)
	}
	n, r := next, ranAt
	s.NextRunAt = &n
	s.LastRunAt = &r
	return nil
}

func (m *memScheduleRepo) Disable(scheduleID int, ranAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok {
		return fmt.Errorf("schedule %d not found", scheduleID)
	}
	r := ranAt
	s.IsEnabled = false
	s.NextRunAt = nil
	s.LastRunAt = &r
	return nil
}

func (m *memScheduleRepo) ClaimPeriod(campaignID int, periodStart time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%s", campaignID, periodStart.Format("2006-01-02"))
	if m.claims[key] {
		return false, nil
	}
	m.claims[key] = true
	return true, nil
}

var _ repository.ScheduleRepositoryInterface = (*memScheduleRepo)(nil)

// ---------------- post repo ----------------

type logEntry struct {
	PostID  *int
	Status  string
	Message string
}

type memPostRepo struct {
	mu     sync.Mutex
	posts  map[int]*model.CampaignPost
	links  map[string]bool // campaignID|assetID
	logs   []logEntry
	nextID int
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: map[int]*model.CampaignPost{}, links: map[string]bool{}}
}

func (m *memPostRepo) CreatePost(p *model.CampaignPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	if p.Status == "" {
		p.Status = model.PostStatusPending
	}
	m.posts[p.ID] = p
	return nil
}

func (m *memPostRepo) GetByID(id int) (*model.CampaignPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id], nil
}

func (m *memPostRepo) ListByCampaign(campaignID int) ([]*model.CampaignPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.CampaignPost{}
	for id := 1; id <= m.nextID; id++ {
		if p, ok := m.posts[id]; ok && p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPostRepo) UpdateStatus(postID int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[postID]; ok {
		p.Status = status
	}
	return nil
}

func (m *memPostRepo) LinkAsset(campaignID, postID, assetID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%d|%d", campaignID, assetID)
	if m.links[key] {
		return appErrors.NewAssetAlreadyUsed(campaignID, assetID)
	}
	m.links[key] = true
	return nil
}

func (m *memPostRepo) CreateLog(postID *int, status, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logEntry{PostID: postID, Status: status, Message: errorMessage})
	return nil
}

func (m *memPostRepo) StatsByCampaign(campaignID int) (map[string]int, error) {
	posts, _ := m.ListByCampaign(campaignID)
	stats := map[string]int{"total": len(posts)}
	for _, p := range posts {
		stats[p.Status]++
	}
	return stats, nil
}

func (m *memPostRepo) LinkedAssetCount(campaignID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	prefix := fmt.Sprintf("%d|", campaignID)
	for key := range m.links {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			count++
		}
	}
	return count, nil
}

var _ repository.PostRepositoryInterface = (*memPostRepo)(nil)

// ---------------- oracle ----------------

type stubOracle struct {
	mu       sync.Mutex
	reply    string
	err      error
	calls    int
	failOnce bool
}

func (o *stubOracle) GenerateContent(prompt string, maxTokens int) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if o.failOnce && o.calls == 1 {
		return "", o.err
	}
	if !o.failOnce && o.err != nil {
		return "", o.err
	}
	if o.reply == "" {
		return "generated content", nil
	}
	return o.reply, nil
}
