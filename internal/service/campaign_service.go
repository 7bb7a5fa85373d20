package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mailflow-io/mailflow/internal/apperr"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/queue"
	"github.com/mailflow-io/mailflow/internal/repository"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

// Actor identifies the caller of a mutation. Managers hold the
// cancel-mailing capability: they may toggle publication of any campaign but
// cannot touch anything else. Owners may do everything with their own rows.
type Actor struct {
	UserID    *int
	IsManager bool
}

func (a Actor) owns(c *model.Campaign) bool {
	return a.UserID != nil && c.OwnerID != nil && *a.UserID == *c.OwnerID
}

// ScheduleInput is the schedule payload accepted on campaign writes.
type ScheduleInput struct {
	StartDate time.Time
	EndDate   time.Time
	Frequency model.Frequency
}

// CampaignDetails bundles a campaign with its schedules and recipient set.
type CampaignDetails struct {
	Campaign   *model.Campaign   `json:"campaign"`
	Schedules  []model.Schedule  `json:"schedules"`
	Recipients []model.Recipient `json:"recipients"`
}

// CampaignService owns campaign CRUD, the validation the engine relies on,
// and the manual send pipeline. The engine itself assumes every schedule
// that reaches it is structurally valid; this is where that is enforced.
type CampaignService struct {
	Campaigns repository.CampaignRepositoryInterface
	Schedules repository.ScheduleRepositoryInterface
	Queue     queue.Queue
	SendTopic string
	Log       zerolog.Logger

	// Now supplies the reference date for schedule validation. Defaults
	// to time.Now.
	Now func() time.Time
}

func (s *CampaignService) today() time.Time {
	if s.Now != nil {
		return scheduler.DateOnly(s.Now())
	}
	return scheduler.DateOnly(time.Now())
}

func validateSubject(subject string) error {
	if subject == "" {
		return apperr.NewValidation("subject must not be empty")
	}
	return nil
}

func (s *CampaignService) validateSchedule(in ScheduleInput) error {
	start := scheduler.DateOnly(in.StartDate)
	end := scheduler.DateOnly(in.EndDate)
	if start.Before(s.today()) {
		return apperr.NewValidation("mailing must not start in the past")
	}
	if start.After(end) {
		return apperr.NewValidation("mailing start date must not be after the end date")
	}
	switch in.Frequency {
	case "", model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
	default:
		return apperr.NewValidation("unknown frequency %q", in.Frequency)
	}
	return nil
}

// CreateCampaign creates a campaign together with its recipient set and
// schedule rows. The campaign is owned by the acting user and published by
// default, matching the engine's selection gate.
func (s *CampaignService) CreateCampaign(actor Actor, subject, body string, recipientIDs []int, schedules []ScheduleInput) (*model.Campaign, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	for _, in := range schedules {
		if err := s.validateSchedule(in); err != nil {
			return nil, err
		}
	}

	c := &model.Campaign{
		Subject:     subject,
		Body:        body,
		IsPublished: true,
		OwnerID:     actor.UserID,
	}
	if err := s.Campaigns.Create(c); err != nil {
		return nil, err
	}
	if len(recipientIDs) > 0 {
		if err := s.Campaigns.SetRecipients(c.ID, recipientIDs); err != nil {
			return nil, err
		}
	}
	for _, in := range schedules {
		sched := &model.Schedule{
			CampaignID: c.ID,
			StartDate:  scheduler.DateOnly(in.StartDate),
			EndDate:    scheduler.DateOnly(in.EndDate),
			Frequency:  in.Frequency,
		}
		if err := s.Schedules.Create(sched); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UpdateCampaign rewrites subject, body and recipient set. Owner only; the
// manager capability does not extend past publication toggling. Replacing
// the schedule rows resets their next sending date to the window opening.
func (s *CampaignService) UpdateCampaign(actor Actor, id int, subject, body string, recipientIDs []int, schedules []ScheduleInput) (*model.Campaign, error) {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(c) {
		return nil, apperr.NewForbidden("edit this campaign")
	}
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	for _, in := range schedules {
		if err := s.validateSchedule(in); err != nil {
			return nil, err
		}
	}

	c.Subject = subject
	c.Body = body
	if err := s.Campaigns.Update(c); err != nil {
		return nil, err
	}
	if recipientIDs != nil {
		if err := s.Campaigns.SetRecipients(id, recipientIDs); err != nil {
			return nil, err
		}
	}

	if schedules != nil {
		existing, err := s.Schedules.ListByCampaign(id)
		if err != nil {
			return nil, err
		}
		for i, in := range schedules {
			start := scheduler.DateOnly(in.StartDate)
			sched := &model.Schedule{
				CampaignID:      id,
				StartDate:       start,
				EndDate:         scheduler.DateOnly(in.EndDate),
				Frequency:       in.Frequency,
				NextSendingDate: &start,
			}
			if i < len(existing) {
				sched.ID = existing[i].ID
				sched.Status = existing[i].Status
				if err := s.Schedules.Update(sched); err != nil {
					return nil, err
				}
			} else {
				if err := s.Schedules.Create(sched); err != nil {
					return nil, err
				}
			}
		}
		// rows beyond the new list are gone, running or not; a shortened
		// schedule set must not keep dispatching on the old cadence
		for i := len(schedules); i < len(existing); i++ {
			if err := s.Schedules.Delete(existing[i].ID); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// SetPublished toggles the selection gate. Owners and managers may do this;
// it is the only mutation the manager capability grants.
func (s *CampaignService) SetPublished(actor Actor, id int, published bool) error {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return err
	}
	if !actor.owns(c) && !actor.IsManager {
		return apperr.NewForbidden("change publication of this campaign")
	}
	return s.Campaigns.SetPublished(id, published)
}

// DeleteCampaign removes the campaign. Owner only. Attempt logs survive
// with a nulled campaign reference.
func (s *CampaignService) DeleteCampaign(actor Actor, id int) error {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return err
	}
	if !actor.owns(c) {
		return apperr.NewForbidden("delete this campaign")
	}
	return s.Campaigns.Delete(id)
}

// GetDetails returns the campaign with its schedules and recipients.
func (s *CampaignService) GetDetails(id int) (*CampaignDetails, error) {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return nil, err
	}
	schedules, err := s.Schedules.ListByCampaign(id)
	if err != nil {
		return nil, err
	}
	recipients, err := s.Campaigns.ListRecipients(id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: c, Schedules: schedules, Recipients: recipients}, nil
}

// ListCampaigns pages through campaigns, optionally scoped to an owner.
func (s *CampaignService) ListCampaigns(page, pageSize int, ownerID *int) ([]*model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.Campaigns.List(offset, pageSize, ownerID)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}

// SendNow queues an ad-hoc dispatch of the campaign outside its schedule.
// The worker records the outcome in the same attempt log as the engine.
func (s *CampaignService) SendNow(id int) error {
	c, err := s.Campaigns.GetByID(id)
	if err != nil {
		return err
	}
	if !c.IsPublished {
		return apperr.NewValidation("campaign %d is not published", id)
	}
	if err := s.Queue.Publish(s.SendTopic, queue.SendJob{CampaignID: id}); err != nil {
		return err
	}
	s.Log.Info().Int("campaign_id", id).Msg("manual send queued")
	return nil
}
