package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/mailflow-io/mailflow/internal/config"
	"github.com/mailflow-io/mailflow/internal/db"
	"github.com/mailflow-io/mailflow/internal/logging"
	"github.com/mailflow-io/mailflow/internal/mail"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/queue"
	"github.com/mailflow-io/mailflow/internal/repository"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

// The worker drains the manual-send queue: each job is one ad-hoc dispatch
// of a campaign, recorded in the same attempt log the scheduled engine
// writes to.
func main() {
	ctx := context.Background()

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

	campaignRepo := &repository.CampaignRepository{DB: pg}
	logRepo := &repository.AttemptLogRepository{DB: pg}

	dispatcher := &scheduler.Dispatcher{
		Campaigns: campaignRepo,
		Transport: mail.NewSMTPTransport(&cfg.SMTP),
		From:      cfg.SMTP.From,
		Limiter:   rate.NewLimiter(rate.Limit(cfg.Scheduler.SendRatePerSec), 1),
		Log:       log,
	}

	q, err := queue.DialAMQP(cfg.Queue.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("RabbitMQ connection failed")
	}
	defer q.Close()

	log.Info().Str("queue", cfg.Queue.SendQueue).Msg("worker running")

	err = q.Subscribe(cfg.Queue.SendQueue, func(job queue.SendJob) error {
		campaign, err := campaignRepo.GetByID(job.CampaignID)
		if err != nil {
			log.Error().Err(err).Int("campaign_id", job.CampaignID).Msg("send job dropped")
			return nil // campaign gone, no point in redelivery
		}

		outcome, err := dispatcher.Dispatch(ctx, campaign)
		if err != nil {
			log.Error().Err(err).Int("campaign_id", campaign.ID).Msg("dispatch could not run")
			return err
		}

		campaignID := campaign.ID
		entry := &model.AttemptLog{
			CampaignID:  &campaignID,
			Status:      outcome.Status,
			Message:     outcome.Message,
			AttemptedAt: time.Now().UTC(),
		}
		if err := logRepo.Create(entry); err != nil {
			// the redelivered job dispatches again, so recipients who
			// already got the mail receive it twice; the duplicate is
			// the cost of not losing the attempt record
			log.Error().Err(err).Int("campaign_id", campaign.ID).Msg("attempt log write failed")
			return err
		}

		log.Info().Int("campaign_id", campaign.ID).
			Str("status", string(outcome.Status)).Msg("manual send processed")
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}
