package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mailflow-io/mailflow/internal/config"
	"github.com/mailflow-io/mailflow/internal/controller"
	"github.com/mailflow-io/mailflow/internal/db"
	"github.com/mailflow-io/mailflow/internal/logging"
	"github.com/mailflow-io/mailflow/internal/queue"
	"github.com/mailflow-io/mailflow/internal/repository"
	"github.com/mailflow-io/mailflow/internal/service"
)

func main() {
	ctx := context.Background()

	// .env is optional; OS environment wins either way.
	godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.App.LogLevel, cfg.App.Environment)

	pg, err := db.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pg.Close()

	var q queue.Queue
	amqpQueue, err := queue.DialAMQP(cfg.Queue.URL)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, manual sends will stay local")
		q = queue.NewInMemoryQueue()
	} else {
		defer amqpQueue.Close()
		q = amqpQueue
	}

	campaignRepo := &repository.CampaignRepository{DB: pg}
	scheduleRepo := &repository.ScheduleRepository{DB: pg}
	recipientRepo := &repository.RecipientRepository{DB: pg}
	logRepo := &repository.AttemptLogRepository{DB: pg}

	campaignService := &service.CampaignService{
		Campaigns: campaignRepo,
		Schedules: scheduleRepo,
		Queue:     q,
		SendTopic: cfg.Queue.SendQueue,
		Log:       log,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	recipientController := &controller.RecipientController{Recipients: recipientRepo}
	logController := &controller.LogController{Logs: logRepo}

	r := chi.NewRouter()

	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Post("/campaigns/{id}/publish", campaignController.SetPublished)
	r.Post("/campaigns/{id}/send", campaignController.SendNow)

	r.Post("/recipients", recipientController.CreateRecipient)
	r.Get("/recipients", recipientController.ListRecipients)
	r.Get("/recipients/{id}", recipientController.GetRecipient)
	r.Put("/recipients/{id}", recipientController.UpdateRecipient)
	r.Delete("/recipients/{id}", recipientController.DeleteRecipient)

	r.Get("/logs", logController.ListLogs)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	log.Info().Str("addr", cfg.Server.Addr()).Msg("server running")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
