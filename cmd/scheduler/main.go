// cmd/scheduler/main.go
package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/postpilot/postpilot-backend/internal/ai"
	"github.com/postpilot/postpilot-backend/internal/db"
	"github.com/postpilot/postpilot-backend/internal/logger"
	"github.com/postpilot/postpilot-backend/internal/metrics"
	"github.com/postpilot/postpilot-backend/internal/repository"
	"github.com/postpilot/postpilot-backend/internal/service"
)

func main() {
	log := logger.New("scheduler")

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init(log)

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	scheduleRepo := &repository.ScheduleRepository{DB: db.DB}
	assetRepo := &repository.AssetRepository{DB: db.DB}
	postRepo := &repository.PostRepository{DB: db.DB}

	var oracle ai.Generator
	if os.Getenv("OPENROUTER_API_KEY") != "" {
		oracle = ai.NewOpenRouterClient()
	} else {
		log.Println("⚠️ OPENROUTER_API_KEY not set, using stub generator")
		oracle = &ai.StubGenerator{}
	}

	generator := &service.PostGenerator{
		CampaignRepo: campaignRepo,
		AssetRepo:    assetRepo,
		PostRepo:     postRepo,
		Selector:     &service.AssetSelector{AssetRepo: assetRepo, Picker: service.NewRandomPicker()},
		Oracle:       oracle,
		Log:          log,
	}
	advancer := &service.ScheduleAdvancer{ScheduleRepo: scheduleRepo, Log: log}
	scanner := &service.DueScheduleScanner{
		ScheduleRepo: scheduleRepo,
		CampaignRepo: campaignRepo,
		Generator:    generator,
		Advancer:     advancer,
		Log:          log,
	}
	lifecycle := &service.CampaignLifecycleManager{CampaignRepo: campaignRepo, Log: log}

	scanCron := os.Getenv("SCAN_CRON")
	if scanCron == "" {
		scanCron = "@every 1m"
	}
	lifecycleCron := os.Getenv("LIFECYCLE_CRON")
	if lifecycleCron == "" {
		lifecycleCron = "@every 10m"
	}

	c := cron.New()
	if _, err := c.AddFunc(scanCron, func() {
		if err := scanner.Scan(); err != nil {
			log.Warnf("⚠️ due sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid SCAN_CRON %q: %v", scanCron, err)
	}
	if _, err := c.AddFunc(lifecycleCron, func() {
		if err := lifecycle.Run(); err != nil {
			metrics.SweepsTotal.WithLabelValues("lifecycle", "error").Inc()
			return
		}
		metrics.SweepsTotal.WithLabelValues("lifecycle", "ok").Inc()
	}); err != nil {
		log.Fatalf("invalid LIFECYCLE_CRON %q: %v", lifecycleCron, err)
	}

	c.Start()
	log.Printf("📅 Scheduler running (scan %s, lifecycle %s)", scanCron, lifecycleCron)

	metricsAddr := os.Getenv("METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9100"
	}
	http.Handle("/metrics", promhttp.Handler())
	log.Fatal(http.ListenAndServe(metricsAddr, nil))
}
