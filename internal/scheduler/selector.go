package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
)

// DueSet is the result of one selection pass: the schedules that changed
// state during the pass and the campaigns actually due for dispatch.
type DueSet struct {
	Activated []model.Schedule
	Completed []model.Schedule
	Due       []*model.Campaign
}

// Selector computes the due-set for a given as-of date. Selection is not a
// pure read: schedules entering their window are promoted to running and
// schedules past their window are promoted to completed as part of the same
// pass, so the due-set is consistent within one tick.
type Selector struct {
	Campaigns repository.CampaignRepositoryInterface
	Schedules repository.ScheduleRepositoryInterface
	Log       zerolog.Logger
}

// SelectDue promotes schedule states for asOf and returns the campaigns due
// for dispatch: published, at least one running schedule, next occurrence
// exactly on asOf. Campaigns without a schedule row are dormant and never
// show up here. A failed promotion of one schedule is logged and skipped so
// the rest of the pass still runs.
func (s *Selector) SelectDue(asOf time.Time) (*DueSet, error) {
	asOf = DateOnly(asOf)
	set := &DueSet{}

	activatable, err := s.Schedules.ListActivatable(asOf)
	if err != nil {
		return nil, fmt.Errorf("selecting schedules to activate: %w", err)
	}
	for _, sched := range activatable {
		if err := s.activate(sched); err != nil {
			s.Log.Error().Err(err).Int("schedule_id", sched.ID).
				Int("campaign_id", sched.CampaignID).Msg("schedule activation failed")
			continue
		}
		sched.Status = model.StatusRunning
		set.Activated = append(set.Activated, sched)
	}

	completable, err := s.Schedules.ListCompletable(asOf)
	if err != nil {
		return nil, fmt.Errorf("selecting schedules to complete: %w", err)
	}
	for _, sched := range completable {
		if err := s.Schedules.SetStatus(sched.ID, model.StatusCompleted); err != nil {
			s.Log.Error().Err(err).Int("schedule_id", sched.ID).
				Int("campaign_id", sched.CampaignID).Msg("schedule completion failed")
			continue
		}
		sched.Status = model.StatusCompleted
		set.Completed = append(set.Completed, sched)
	}

	due, err := s.Campaigns.DueCampaigns(asOf)
	if err != nil {
		return nil, fmt.Errorf("selecting due campaigns: %w", err)
	}
	set.Due = due

	return set, nil
}

// activate promotes a created schedule to running. A schedule saved without
// a next sending date starts at its window opening.
func (s *Selector) activate(sched model.Schedule) error {
	if sched.NextSendingDate == nil {
		if err := s.Schedules.SetNextSendingDate(sched.ID, DateOnly(sched.StartDate)); err != nil {
			return err
		}
	}
	return s.Schedules.SetStatus(sched.ID, model.StatusRunning)
}
