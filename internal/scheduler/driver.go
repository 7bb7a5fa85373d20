package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mailflow-io/mailflow/internal/metrics"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
)

// Driver is the run-once entry point invoked by the external tick trigger.
// One tick: select the due-set (with lazy status promotion), dispatch each
// due campaign, append an attempt log row, then advance every schedule's
// next sending date. The driver holds no state across ticks and provides no
// mutual exclusion between them; the trigger must serialize invocations.
type Driver struct {
	Selector   *Selector
	Dispatcher *Dispatcher
	Logs       repository.AttemptLogRepositoryInterface
	Schedules  repository.ScheduleRepositoryInterface
	Log        zerolog.Logger

	// Now supplies wall-clock time for RunOnce. Defaults to time.Now.
	Now func() time.Time
}

// RunOnce executes one tick anchored to the current wall-clock date.
func (d *Driver) RunOnce(ctx context.Context) error {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return d.RunAsOf(ctx, now())
}

// RunAsOf executes one tick anchored to an explicit as-of date. Failures of
// individual campaigns are contained: they are logged and the tick moves on
// to the next due campaign. There is no engine-level retry; a failed
// occurrence gets its next chance at the next natural occurrence.
func (d *Driver) RunAsOf(ctx context.Context, asOf time.Time) error {
	started := time.Now()
	defer func() {
		metrics.TickDuration.Observe(time.Since(started).Seconds())
	}()

	asOf = DateOnly(asOf)
	tickID := uuid.NewString()
	log := d.Log.With().Str("tick_id", tickID).Time("as_of", asOf).Logger()

	set, err := d.Selector.SelectDue(asOf)
	if err != nil {
		log.Error().Err(err).Msg("tick aborted: due-set selection failed")
		return err
	}
	log.Info().
		Int("activated", len(set.Activated)).
		Int("completed", len(set.Completed)).
		Int("due", len(set.Due)).
		Msg("tick selection done")
	metrics.DueCampaigns.Set(float64(len(set.Due)))

	for _, campaign := range set.Due {
		d.processCampaign(ctx, log, asOf, campaign)
	}
	return nil
}

// processCampaign runs dispatch, log and reschedule for one due campaign.
// The next sending date only moves after the attempt is logged, so a rerun
// of an interrupted tick cannot skip an occurrence that was never recorded.
func (d *Driver) processCampaign(ctx context.Context, log zerolog.Logger, asOf time.Time, campaign *model.Campaign) {
	outcome, err := d.Dispatcher.Dispatch(ctx, campaign)
	if err != nil {
		log.Error().Err(err).Int("campaign_id", campaign.ID).
			Msg("campaign skipped: dispatch could not run")
		return
	}
	metrics.RecordDispatch(string(outcome.Status))

	campaignID := campaign.ID
	entry := &model.AttemptLog{
		CampaignID:  &campaignID,
		Status:      outcome.Status,
		Message:     outcome.Message,
		AttemptedAt: time.Now().UTC(),
	}
	if err := d.Logs.Create(entry); err != nil {
		log.Error().Err(err).Int("campaign_id", campaign.ID).
			Msg("campaign skipped: attempt log write failed")
		return
	}
	log.Info().Int("campaign_id", campaign.ID).
		Str("status", string(outcome.Status)).Msg("occurrence dispatched")

	d.reschedule(log, asOf, campaign.ID)
}

// reschedule advances next_sending_date on every schedule row of the
// campaign. Daily and weekly advance from the prior occurrence; monthly
// recomputes from asOf so month-length clamping never accumulates drift.
// Schedules without a frequency are left alone and will simply stop
// matching the due filter.
func (d *Driver) reschedule(log zerolog.Logger, asOf time.Time, campaignID int) {
	schedules, err := d.Schedules.ListByCampaign(campaignID)
	if err != nil {
		log.Error().Err(err).Int("campaign_id", campaignID).Msg("reschedule failed: schedules unavailable")
		return
	}

	for _, sched := range schedules {
		if sched.Frequency == "" || sched.NextSendingDate == nil {
			continue
		}

		var next time.Time
		if sched.Frequency == model.FrequencyMonthly {
			next = NextDate(asOf, sched.Frequency)
		} else {
			next = NextDate(DateOnly(*sched.NextSendingDate), sched.Frequency)
		}

		if err := d.Schedules.SetNextSendingDate(sched.ID, next); err != nil {
			log.Error().Err(err).Int("schedule_id", sched.ID).
				Int("campaign_id", campaignID).Msg("reschedule failed: date not advanced")
			continue
		}
	}
}
