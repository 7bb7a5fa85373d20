package model

import "time"

// LogStatus classifies the outcome of one dispatch attempt.
type LogStatus string

const (
	LogSuccess LogStatus = "success"
	LogFailed  LogStatus = "failed"
)

// AttemptLog is one immutable record of a dispatch attempt. The campaign
// reference is weak: deleting a campaign nulls it out, the log row survives.
// The engine only ever appends these rows; nothing updates or deletes them.
type AttemptLog struct {
	ID          int       `db:"id" json:"id"`
	CampaignID  *int      `db:"campaign_id" json:"campaign_id,omitempty"`
	Status      LogStatus `db:"status" json:"status"`
	Message     string    `db:"message" json:"message"`
	AttemptedAt time.Time `db:"attempted_at" json:"attempted_at"`
}
