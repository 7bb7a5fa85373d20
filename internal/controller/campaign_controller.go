package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mailflow-io/mailflow/internal/apperr"
	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/service"
)

const dateLayout = "2006-01-02"

// CampaignController exposes campaign CRUD and the manual send endpoint.
type CampaignController struct {
	CampaignService *service.CampaignService
}

// actorFrom reads the caller identity from trusted gateway headers.
// Authentication itself happens upstream; these headers are its output.
func actorFrom(r *http.Request) service.Actor {
	var actor service.Actor
	if v := r.Header.Get("X-User-ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			actor.UserID = &id
		}
	}
	actor.IsManager = r.Header.Get("X-Manager") == "true"
	return actor
}

type scheduleBody struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Frequency string `json:"frequency,omitempty"`
}

func parseSchedules(bodies []scheduleBody) ([]service.ScheduleInput, error) {
	if bodies == nil {
		return nil, nil
	}
	inputs := make([]service.ScheduleInput, 0, len(bodies))
	for _, b := range bodies {
		start, err := time.Parse(dateLayout, b.StartDate)
		if err != nil {
			return nil, apperr.NewValidation("invalid start_date %q", b.StartDate)
		}
		end, err := time.Parse(dateLayout, b.EndDate)
		if err != nil {
			return nil, apperr.NewValidation("invalid end_date %q", b.EndDate)
		}
		inputs = append(inputs, service.ScheduleInput{
			StartDate: start,
			EndDate:   end,
			Frequency: model.Frequency(b.Frequency),
		})
	}
	return inputs, nil
}

// writeError maps application errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFoundC  *apperr.ErrCampaignNotFound
		notFoundR  *apperr.ErrRecipientNotFound
		validation *apperr.ErrValidation
		forbidden  *apperr.ErrForbidden
	)
	switch {
	case errors.As(err, &notFoundC), errors.As(err, &notFoundR):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &forbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject      string         `json:"subject"`
		Body         string         `json:"body"`
		RecipientIDs []int          `json:"recipient_ids"`
		Schedules    []scheduleBody `json:"schedules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	schedules, err := parseSchedules(body.Schedules)
	if err != nil {
		writeError(w, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(actorFrom(r), body.Subject, body.Body, body.RecipientIDs, schedules)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	var ownerID *int
	if v := r.URL.Query().Get("owner_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			ownerID = &id
		}
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := c.CampaignService.GetDetails(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Subject      string         `json:"subject"`
		Body         string         `json:"body"`
		RecipientIDs []int          `json:"recipient_ids"`
		Schedules    []scheduleBody `json:"schedules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	schedules, err := parseSchedules(body.Schedules)
	if err != nil {
		writeError(w, err)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(actorFrom(r), id, body.Subject, body.Body, body.RecipientIDs, schedules)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) SetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var body struct {
		Published bool `json:"published"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.SetPublished(actorFrom(r), id, body.Published); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": id,
		"published":   body.Published,
	})
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.DeleteCampaign(actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) SendNow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.SendNow(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"campaign_id": id,
		"status":      "queued",
	})
}
