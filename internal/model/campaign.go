package model

import "time"

// Campaign is a mailing message plus its recipient set and ownership.
// Recipients are attached through the campaign_recipients join table.
type Campaign struct {
	ID          int        `db:"id" json:"id"`
	Subject     string     `db:"subject" json:"subject"`
	Body        string     `db:"body" json:"body"`
	IsPublished bool       `db:"is_published" json:"is_published"`
	OwnerID     *int       `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
