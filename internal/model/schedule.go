package model

import "time"

// Frequency is the recurrence period of a schedule. An empty frequency means
// the occurrence is never rescheduled after it fires.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ScheduleStatus is the lifecycle state of a schedule. Transitions are
// monotonic: created -> running -> completed, and completed is terminal.
type ScheduleStatus string

const (
	StatusCreated   ScheduleStatus = "created"
	StatusRunning   ScheduleStatus = "running"
	StatusCompleted ScheduleStatus = "completed"
)

// Schedule is the temporal configuration attached to a campaign: the delivery
// window, the recurrence frequency and the date of the next occurrence.
// A campaign may carry several schedule rows; the common case is one.
type Schedule struct {
	ID              int            `db:"id" json:"id"`
	CampaignID      int            `db:"campaign_id" json:"campaign_id"`
	StartDate       time.Time      `db:"start_date" json:"start_date"`
	EndDate         time.Time      `db:"end_date" json:"end_date"`
	Frequency       Frequency      `db:"frequency" json:"frequency,omitempty"`
	Status          ScheduleStatus `db:"status" json:"status"`
	NextSendingDate *time.Time     `db:"next_sending_date" json:"next_sending_date,omitempty"`
}

// Normalize fills derived defaults before the row is persisted: an unset
// next_sending_date starts at the window opening.
func (s *Schedule) Normalize() {
	if s.Status == "" {
		s.Status = StatusCreated
	}
	if s.NextSendingDate == nil {
		start := s.StartDate
		s.NextSendingDate = &start
	}
}
