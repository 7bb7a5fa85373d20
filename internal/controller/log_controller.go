package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mailflow-io/mailflow/internal/model"
	"github.com/mailflow-io/mailflow/internal/repository"
)

// LogController exposes the attempt log for dashboards and admin screens.
// Read-only: the log has no mutation surface anywhere.
type LogController struct {
	Logs repository.AttemptLogRepositoryInterface
}

func (c *LogController) ListLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var filter repository.AttemptLogFilter
	if v := r.URL.Query().Get("campaign_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			filter.CampaignID = &id
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = model.LogStatus(v)
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			filter.From = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			filter.To = &t
		}
	}

	logs, total, err := c.Logs.List(filter, (page-1)*pageSize, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        logs,
		"total_count": total,
	})
}
