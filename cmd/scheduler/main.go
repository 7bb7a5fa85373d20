package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/mailflow-io/mailflow/internal/config"
	"github.com/mailflow-io/mailflow/internal/db"
	"github.com/mailflow-io/mailflow/internal/logging"
	"github.com/mailflow-io/mailflow/internal/mail"
	"github.com/mailflow-io/mailflow/internal/repository"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single tick and exit")
	flag.Parse()

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
	scheduleRepo := &repository.ScheduleRepository{DB: pg}
	logRepo := &repository.AttemptLogRepository{DB: pg}

	driver := &scheduler.Driver{
		Selector: &scheduler.Selector{
			Campaigns: campaignRepo,
			Schedules: scheduleRepo,
			Log:       log,
		},
		Dispatcher: &scheduler.Dispatcher{
			Campaigns: campaignRepo,
			Transport: mail.NewSMTPTransport(&cfg.SMTP),
			From:      cfg.SMTP.From,
			Limiter:   rate.NewLimiter(rate.Limit(cfg.Scheduler.SendRatePerSec), 1),
			Log:       log,
		},
		Logs:      logRepo,
		Schedules: scheduleRepo,
		Log:       log,
	}

	if *once {
		if err := driver.RunOnce(ctx); err != nil {
			log.Fatal().Err(err).Msg("tick failed")
		}
		return
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Scheduler.Timezone).Msg("invalid timezone")
	}

	// The engine does not serialize ticks itself; the mutex here is the
	// single-flight guarantee. If a tick overruns into the next trigger,
	// the overlapping one is dropped rather than double-sending.
	var tickMu sync.Mutex
	runTick := func() {
		if !tickMu.TryLock() {
			log.Warn().Msg("previous tick still running, skipping trigger")
			return
		}
		defer tickMu.Unlock()
		if err := driver.RunOnce(ctx); err != nil {
			log.Error().Err(err).Msg("tick failed")
		}
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.Scheduler.CronSpec, runTick); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Scheduler.CronSpec).Msg("invalid cron spec")
	}
	c.Start()
	log.Info().Str("spec", cfg.Scheduler.CronSpec).Str("tz", cfg.Scheduler.Timezone).Msg("scheduler running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Info().Msg("scheduler stopped")
}
