package repository

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mailflow-io/mailflow/internal/apperr"
	"github.com/mailflow-io/mailflow/internal/model"
)

// RecipientRepositoryInterface is the recipient persistence surface.
type RecipientRepositoryInterface interface {
	Create(rec *model.Recipient) error
	GetByID(id int) (*model.Recipient, error)
	Update(rec *model.Recipient) error
	Delete(id int) error
	List(offset, limit int, ownerID *int) ([]model.Recipient, int, error)
}

type RecipientRepository struct {
	DB *sqlx.DB
}

func (r *RecipientRepository) Create(rec *model.Recipient) error {
	query := `
		INSERT INTO recipients (email, name, comment, owner_id)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING id
	`
	if err := r.DB.Get(&rec.ID, query, rec.Email, rec.Name, rec.Comment, rec.OwnerID); err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	return nil
}

func (r *RecipientRepository) GetByID(id int) (*model.Recipient, error) {
	query := `
		SELECT id, email, name, COALESCE(comment, '') AS comment, owner_id
		FROM recipients WHERE id=$1
	`
	var rec model.Recipient
	if err := r.DB.Get(&rec, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NewRecipientNotFound(id)
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	return &rec, nil
}

func (r *RecipientRepository) Update(rec *model.Recipient) error {
	query := `
		UPDATE recipients SET email=$1, name=$2, comment=NULLIF($3, '') WHERE id=$4
	`
	res, err := r.DB.Exec(query, rec.Email, rec.Name, rec.Comment, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update recipient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewRecipientNotFound(rec.ID)
	}
	return nil
}

func (r *RecipientRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM recipients WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipient: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewRecipientNotFound(id)
	}
	return nil
}

func (r *RecipientRepository) List(offset, limit int, ownerID *int) ([]model.Recipient, int, error) {
	recipients := []model.Recipient{}
	query := `SELECT id, email, name, COALESCE(comment, '') AS comment, owner_id FROM recipients`
	countQuery := `SELECT COUNT(*) FROM recipients`
	args := []interface{}{}

	if ownerID != nil {
		query += ` WHERE owner_id=$1`
		countQuery += ` WHERE owner_id=$1`
		args = append(args, *ownerID)
	}
	query += fmt.Sprintf(` ORDER BY email LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	if err := r.DB.Select(&recipients, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list recipients: %w", err)
	}

	var total int
	if err := r.DB.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipients: %w", err)
	}
	return recipients, total, nil
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
