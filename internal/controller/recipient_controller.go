package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
)

// RecipientController exposes recipient CRUD. Recipients are plain rows with
// no engine-side behavior, so the controller talks to the repository
// directly.
type RecipientController struct {
	Recipients repository.RecipientRepositoryInterface
}

func (c *RecipientController) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Email == "" {
		http.Error(w, "email must not be empty", http.StatusBadRequest)
		return
	}

	rec := &model.Recipient{
		Email:   body.Email,
		Name:    body.Name,
		Comment: body.Comment,
		OwnerID: actorFrom(r).UserID,
	}
	if err := c.Recipients.Create(rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (c *RecipientController) ListRecipients(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var ownerID *int
	if v := r.URL.Query().Get("owner_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			ownerID = &id
		}
	}

	recipients, total, err := c.Recipients.List((page-1)*pageSize, pageSize, ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        recipients,
		"total_count": total,
	})
}

func (c *RecipientController) GetRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	rec, err := c.Recipients.GetByID(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *RecipientController) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	var body struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rec := &model.Recipient{ID: id, Email: body.Email, Name: body.Name, Comment: body.Comment}
	if err := c.Recipients.Update(rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (c *RecipientController) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	if err := c.Recipients.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
