package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mailflow-io/mailflow/internal/apperr"
	"github.com/mailflow-io/mailflow/internal/model"
)

// CampaignRepositoryInterface is the campaign persistence surface used by the
// services and the dispatch engine.
type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	Update(c *model.Campaign) error
	Delete(id int) error
	List(offset, limit int, ownerID *int) ([]*model.Campaign, int, error)
	SetPublished(id int, published bool) error

	// Recipient set (M:N through campaign_recipients)
	SetRecipients(campaignID int, recipientIDs []int) error
	ListRecipients(campaignID int) ([]model.Recipient, error)

	// DueCampaigns returns published campaigns with at least one running
	// schedule whose next occurrence falls exactly on asOf.
	DueCampaigns(asOf time.Time) ([]*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sqlx.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	query := `
		INSERT INTO campaigns (subject, body, is_published, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if err := r.DB.Get(&c.ID, query, c.Subject, c.Body, c.IsPublished, c.OwnerID, c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
		SELECT id, subject, body, is_published, owner_id, created_at, updated_at
		FROM campaigns WHERE id=$1
	`
	var c model.Campaign
	if err := r.DB.Get(&c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NewCampaignNotFound(id)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
		UPDATE campaigns
		SET subject=$1, body=$2, is_published=$3, updated_at=NOW()
		WHERE id=$4
	`
	res, err := r.DB.Exec(query, c.Subject, c.Body, c.IsPublished, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewCampaignNotFound(c.ID)
	}
	return nil
}

// Delete removes a campaign. Schedules and recipient links go with it via
// ON DELETE CASCADE; attempt logs keep their rows with a nulled campaign_id.
func (r *CampaignRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewCampaignNotFound(id)
	}
	return nil
}

func (r *CampaignRepository) List(offset, limit int, ownerID *int) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, subject, body, is_published, owner_id, created_at, updated_at FROM campaigns`
	countQuery := `SELECT COUNT(*) FROM campaigns`
	args := []interface{}{}

	if ownerID != nil {
		query += ` WHERE owner_id=$1`
		countQuery += ` WHERE owner_id=$1`
		args = append(args, *ownerID)
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	if err := r.DB.Select(&campaigns, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	var total int
	if err := r.DB.Get(&total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) SetPublished(id int, published bool) error {
	res, err := r.DB.Exec(`UPDATE campaigns SET is_published=$1, updated_at=NOW() WHERE id=$2`, published, id)
	if err != nil {
		return fmt.Errorf("failed to toggle campaign publication: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NewCampaignNotFound(id)
	}
	return nil
}

// SetRecipients replaces the campaign's recipient set.
func (r *CampaignRepository) SetRecipients(campaignID int, recipientIDs []int) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin recipient update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM campaign_recipients WHERE campaign_id=$1`, campaignID); err != nil {
		return fmt.Errorf("failed to clear recipient set: %w", err)
	}
	for _, rid := range recipientIDs {
		_, err := tx.Exec(
			`INSERT INTO campaign_recipients (campaign_id, recipient_id) VALUES ($1, $2)`,
			campaignID, rid,
		)
		if err != nil {
			return fmt.Errorf("failed to attach recipient %d: %w", rid, err)
		}
	}
	return tx.Commit()
}

func (r *CampaignRepository) ListRecipients(campaignID int) ([]model.Recipient, error) {
	query := `
		SELECT r.id, r.email, r.name, COALESCE(r.comment, '') AS comment, r.owner_id
		FROM recipients r
		JOIN campaign_recipients cr ON cr.recipient_id = r.id
		WHERE cr.campaign_id = $1
		ORDER BY r.email
	`
	recipients := []model.Recipient{}
	if err := r.DB.Select(&recipients, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list campaign recipients: %w", err)
	}
	return recipients, nil
}

func (r *CampaignRepository) DueCampaigns(asOf time.Time) ([]*model.Campaign, error) {
	query := `
		SELECT DISTINCT c.id, c.subject, c.body, c.is_published, c.owner_id, c.created_at, c.updated_at
		FROM campaigns c
		JOIN schedules s ON s.campaign_id = c.id
		WHERE c.is_published
		  AND s.status = 'running'
		  AND s.next_sending_date = $1::date
		ORDER BY c.id
	`
	campaigns := []*model.Campaign{}
	if err := r.DB.Select(&campaigns, query, asOf); err != nil {
		return nil, fmt.Errorf("failed to select due campaigns: %w", err)
	}
	return campaigns, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
