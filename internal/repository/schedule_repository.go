package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mailflow-io/mailflow/internal/model"
)

// ScheduleRepositoryInterface is the schedule persistence surface. The
// promotion operations (SetStatus, SetNextSendingDate) only ever move a
// schedule forward; Update and Delete are the service's full-row writes and
// trust their caller.
type ScheduleRepositoryInterface interface {
	Create(s *model.Schedule) error
	Update(s *model.Schedule) error
	Delete(scheduleID int) error
	ListByCampaign(campaignID int) ([]model.Schedule, error)

	// Window scans for lazy status promotion.
	ListActivatable(asOf time.Time) ([]model.Schedule, error)
	ListCompletable(asOf time.Time) ([]model.Schedule, error)

	SetStatus(scheduleID int, status model.ScheduleStatus) error
	SetNextSendingDate(scheduleID int, next time.Time) error
}

type ScheduleRepository struct {
	DB *sqlx.DB
}

func (r *ScheduleRepository) Create(s *model.Schedule) error {
	s.Normalize()
	query := `
		INSERT INTO schedules (campaign_id, start_date, end_date, frequency, status, next_sending_date)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id
	`
	err := r.DB.Get(&s.ID, query,
		s.CampaignID, s.StartDate, s.EndDate, string(s.Frequency), s.Status, s.NextSendingDate)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) Update(s *model.Schedule) error {
	s.Normalize()
	query := `
		UPDATE schedules
		SET start_date=$1, end_date=$2, frequency=NULLIF($3, ''), status=$4, next_sending_date=$5
		WHERE id=$6
	`
	_, err := r.DB.Exec(query,
		s.StartDate, s.EndDate, string(s.Frequency), s.Status, s.NextSendingDate, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) Delete(scheduleID int) error {
	_, err := r.DB.Exec(`DELETE FROM schedules WHERE id=$1`, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) ListByCampaign(campaignID int) ([]model.Schedule, error) {
	query := `
		SELECT id, campaign_id, start_date, end_date, COALESCE(frequency, '') AS frequency,
		       status, next_sending_date
		FROM schedules
		WHERE campaign_id=$1
		ORDER BY start_date, end_date
	`
	schedules := []model.Schedule{}
	if err := r.DB.Select(&schedules, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// ListActivatable returns created schedules of published campaigns whose
// window contains asOf.
func (r *ScheduleRepository) ListActivatable(asOf time.Time) ([]model.Schedule, error) {
	query := `
		SELECT s.id, s.campaign_id, s.start_date, s.end_date,
		       COALESCE(s.frequency, '') AS frequency, s.status, s.next_sending_date
		FROM schedules s
		JOIN campaigns c ON c.id = s.campaign_id
		WHERE c.is_published
		  AND s.status = 'created'
		  AND s.start_date <= $1::date
		  AND s.end_date >= $1::date
	`
	schedules := []model.Schedule{}
	if err := r.DB.Select(&schedules, query, asOf); err != nil {
		return nil, fmt.Errorf("failed to list activatable schedules: %w", err)
	}
	return schedules, nil
}

// ListCompletable returns running schedules of published campaigns whose
// window closed before asOf.
func (r *ScheduleRepository) ListCompletable(asOf time.Time) ([]model.Schedule, error) {
	query := `
		SELECT s.id, s.campaign_id, s.start_date, s.end_date,
		       COALESCE(s.frequency, '') AS frequency, s.status, s.next_sending_date
		FROM schedules s
		JOIN campaigns c ON c.id = s.campaign_id
		WHERE c.is_published
		  AND s.status = 'running'
		  AND s.end_date < $1::date
	`
	schedules := []model.Schedule{}
	if err := r.DB.Select(&schedules, query, asOf); err != nil {
		return nil, fmt.Errorf("failed to list completable schedules: %w", err)
	}
	return schedules, nil
}

func (r *ScheduleRepository) SetStatus(scheduleID int, status model.ScheduleStatus) error {
	_, err := r.DB.Exec(`UPDATE schedules SET status=$1 WHERE id=$2`, status, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to set schedule status: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) SetNextSendingDate(scheduleID int, next time.Time) error {
	_, err := r.DB.Exec(`UPDATE schedules SET next_sending_date=$1 WHERE id=$2`, next, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to advance next sending date: %w", err)
	}
	return nil
}

var _ ScheduleRepositoryInterface = (*ScheduleRepository)(nil)
