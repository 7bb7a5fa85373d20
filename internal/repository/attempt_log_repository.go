package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mailflow-io/mailflow/internal/model"
)

// AttemptLogFilter narrows a log listing. Zero values mean "no filter".
type AttemptLogFilter struct {
	CampaignID *int
	Status     model.LogStatus
	From       *time.Time
	To         *time.Time
}

// AttemptLogRepositoryInterface is append-and-read only. The engine never
// updates or deletes a log row.
type AttemptLogRepositoryInterface interface {
	Create(l *model.AttemptLog) error
	List(filter AttemptLogFilter, offset, limit int) ([]model.AttemptLog, int, error)
}

type AttemptLogRepository struct {
	DB *sqlx.DB
}

func (r *AttemptLogRepository) Create(l *model.AttemptLog) error {
	query := `
		INSERT INTO attempt_logs (campaign_id, status, message, attempted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.DB.Get(&l.ID, query, l.CampaignID, l.Status, l.Message, l.AttemptedAt); err != nil {
		return fmt.Errorf("failed to create attempt log: %w", err)
	}
	return nil
}

func (r *AttemptLogRepository) List(filter AttemptLogFilter, offset, limit int) ([]model.AttemptLog, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if filter.CampaignID != nil {
		args = append(args, *filter.CampaignID)
		where += fmt.Sprintf(" AND campaign_id=$%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(" AND attempted_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(" AND attempted_at < $%d", len(args))
	}

	var total int
	if err := r.DB.Get(&total, `SELECT COUNT(*) FROM attempt_logs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count attempt logs: %w", err)
	}

	query := `SELECT id, campaign_id, status, message, attempted_at FROM attempt_logs` + where
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY attempted_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	logs := []model.AttemptLog{}
	if err := r.DB.Select(&logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list attempt logs: %w", err)
	}
	return logs, total, nil
}

var _ AttemptLogRepositoryInterface = (*AttemptLogRepository)(nil)
