// cmd/server/main.go
package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/postpilot/postpilot-backend/internal/ai"
	"github.com/postpilot/postpilot-backend/internal/controller"
	"github.com/postpilot/postpilot-backend/internal/db"
	"github.com/postpilot/postpilot-backend/internal/handler"
	"github.com/postpilot/postpilot-backend/internal/logger"
	"github.com/postpilot/postpilot-backend/internal/queue"
	"github.com/postpilot/postpilot-backend/internal/repository"
	"github.com/postpilot/postpilot-backend/internal/service"
)

func main() {
	log := logger.New("server")

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
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

	selector := &service.AssetSelector{AssetRepo: assetRepo, Picker: service.NewRandomPicker()}
	generator := &service.PostGenerator{
		CampaignRepo: campaignRepo,
		AssetRepo:    assetRepo,
		PostRepo:     postRepo,
		Selector:     selector,
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

	// RabbitMQ when configured, in-process queue otherwise.
	var q queue.Queue
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		amqpQueue, err := queue.NewAMQPQueue(url, log)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer amqpQueue.Close()
		q = amqpQueue
	} else {
		log.Println("⚠️ RABBITMQ_URL not set, using in-memory queue")
		memQueue := queue.NewInMemoryQueue(log)
		queue.StartPostGenerationSubscriber(memQueue, log, func(job queue.GenerationJob) error {
			_, err := generator.GenerateSinglePost(job.CampaignID, job.PublishDate)
			if err != nil {
				if service.IsSkippableGenerationError(err) {
					log.Infof("generation job for campaign %d skipped: %v", job.CampaignID, err)
					return nil
				}
				return err
			}
			return nil
		})
		q = memQueue
	}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ScheduleRepo: scheduleRepo,
		AssetRepo:    assetRepo,
		PostRepo:     postRepo,
		Advancer:     advancer,
		Scanner:      scanner,
		Generator:    generator,
		Queue:        q,
		Log:          log,
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}

	assetHandler := &handler.AssetHandler{
		Repo:     assetRepo,
		Selector: selector,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Post("/campaigns/{id}/schedule", campaignController.InitializeSchedule)
	r.Post("/campaigns/{id}/generate-posts", campaignController.GeneratePosts)
	r.Post("/campaigns/{id}/reset-assets", campaignController.ResetAssets)

	// Library/asset routes
	r.Post("/libraries", assetHandler.CreateLibrary)
	r.Post("/libraries/{id}/assets", assetHandler.CreateAsset)
	r.Get("/libraries/{id}/assets", assetHandler.ListAssets)
	r.Get("/libraries/{id}/asset-stats", assetHandler.AssetStats)
	r.Post("/assets/{id}/reset", assetHandler.ResetAsset)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("🚀 Server running on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
