package scheduler_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mailflow-io/mailflow/internal/apperr"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
	"github.com/mailflow-io/mailflow/internal/scheduler"
)

// store is an in-memory stand-in for the three repositories the engine
// touches. It mirrors the SQL queries closely enough for the selection
// semantics to be exercised without a database.
type store struct {
	mu         sync.Mutex
	campaigns  map[int]*model.Campaign
	recipients map[int][]model.Recipient // campaignID -> recipient set
	schedules  map[int]*model.Schedule
	logs       []model.AttemptLog

	nextCampaignID int
	nextScheduleID int
}

func newStore() *store {
	return &store{
		campaigns:  map[int]*model.Campaign{},
		recipients: map[int][]model.Recipient{},
		schedules:  map[int]*model.Schedule{},
	}
}

func (s *store) addCampaign(published bool, recipients ...model.Recipient) *model.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCampaignID++
	c := &model.Campaign{
		ID:          s.nextCampaignID,
		Subject:     "hello",
		Body:        "world",
		IsPublished: published,
		CreatedAt:   time.Now(),
	}
	s.campaigns[c.ID] = c
	s.recipients[c.ID] = recipients
	return c
}

func (s *store) addSchedule(campaignID int, start, end time.Time, freq model.Frequency, status model.ScheduleStatus, next *time.Time) *model.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextScheduleID++
	sched := &model.Schedule{
		ID:              s.nextScheduleID,
		CampaignID:      campaignID,
		StartDate:       start,
		EndDate:         end,
		Frequency:       freq,
		Status:          status,
		NextSendingDate: next,
	}
	s.schedules[sched.ID] = sched
	return sched
}

// ---- CampaignRepositoryInterface ----

func (s *store) Create(c *model.Campaign) error { panic("not used") }
func (s *store) Update(c *model.Campaign) error { panic("not used") }
func (s *store) Delete(id int) error            { panic("not used") }
func (s *store) List(offset, limit int, ownerID *int) ([]*model.Campaign, int, error) {
	panic("not used")
}
func (s *store) SetPublished(id int, published bool) error        { panic("not used") }
func (s *store) SetRecipients(campaignID int, ids []int) error    { panic("not used") }

func (s *store) GetByID(id int) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, apperr.NewCampaignNotFound(id)
	}
	return c, nil
}

func (s *store) ListRecipients(campaignID int) ([]model.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recipients[campaignID], nil
}

func (s *store) DueCampaigns(asOf time.Time) ([]*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int]bool{}
	due := []*model.Campaign{}
	for _, sched := range s.schedules {
		c := s.campaigns[sched.CampaignID]
		if c == nil || !c.IsPublished || seen[c.ID] {
			continue
		}
		if sched.Status != model.StatusRunning || sched.NextSendingDate == nil {
			continue
		}
		if scheduler.SameDate(*sched.NextSendingDate, asOf) {
			seen[c.ID] = true
			due = append(due, c)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

// ---- ScheduleRepositoryInterface ----

func (s *store) CreateSchedule(sched *model.Schedule) error { panic("not used") }

func (s *store) ListByCampaign(campaignID int) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Schedule{}
	for _, sched := range s.schedules {
		if sched.CampaignID == campaignID {
			out = append(out, *sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *store) ListActivatable(asOf time.Time) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Schedule{}
	for _, sched := range s.schedules {
		c := s.campaigns[sched.CampaignID]
		if c == nil || !c.IsPublished || sched.Status != model.StatusCreated {
			continue
		}
		start := scheduler.DateOnly(sched.StartDate)
		end := scheduler.DateOnly(sched.EndDate)
		day := scheduler.DateOnly(asOf)
		if !start.After(day) && !end.Before(day) {
			out = append(out, *sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *store) ListCompletable(asOf time.Time) ([]model.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Schedule{}
	for _, sched := range s.schedules {
		c := s.campaigns[sched.CampaignID]
		if c == nil || !c.IsPublished || sched.Status != model.StatusRunning {
			continue
		}
		if scheduler.DateOnly(sched.EndDate).Before(scheduler.DateOnly(asOf)) {
			out = append(out, *sched)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *store) SetStatus(scheduleID int, status model.ScheduleStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[scheduleID].Status = status
	return nil
}

func (s *store) SetNextSendingDate(scheduleID int, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := next
	s.schedules[scheduleID].NextSendingDate = &n
	return nil
}

// ---- AttemptLogRepositoryInterface ----

func (s *store) CreateLog(l *model.AttemptLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = len(s.logs) + 1
	s.logs = append(s.logs, *l)
	return nil
}

func (s *store) ListLogs(filter repository.AttemptLogFilter, offset, limit int) ([]model.AttemptLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AttemptLog{}, s.logs...), len(s.logs), nil
}

// scheduleRepo and logRepo adapt the store to the narrower interfaces whose
// method names collide with the campaign repository's.
type scheduleRepo struct{ *store }

func (r scheduleRepo) Create(sched *model.Schedule) error { return r.CreateSchedule(sched) }
func (r scheduleRepo) Update(sched *model.Schedule) error { panic("not used") }
func (r scheduleRepo) Delete(scheduleID int) error        { panic("not used") }

type logRepo struct{ *store }

func (r logRepo) Create(l *model.AttemptLog) error { return r.CreateLog(l) }
func (r logRepo) List(filter repository.AttemptLogFilter, offset, limit int) ([]model.AttemptLog, int, error) {
	return r.ListLogs(filter, offset, limit)
}

var (
	_ repository.CampaignRepositoryInterface   = (*store)(nil)
	_ repository.ScheduleRepositoryInterface   = scheduleRepo{}
	_ repository.AttemptLogRepositoryInterface = logRepo{}
)

// fakeTransport records sends and fails according to failWith.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []string // recipient addresses in send order
	failWith error    // returned on every send when set
	failTo   string   // fail only for this recipient
}

func (t *fakeTransport) Send(ctx context.Context, subject, body, from, to string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failWith != nil && (t.failTo == "" || t.failTo == to) {
		return t.failWith
	}
	t.sent = append(t.sent, to)
	return nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
