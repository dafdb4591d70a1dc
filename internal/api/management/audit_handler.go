package management

import (
	"net/http"
	"time"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

type AuditHandler struct {
	auditSvc *service.AuditService
}

func NewAuditHandler(auditSvc *service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := response.ParsePagination(r)
	q := r.URL.Query()

	filter := domain.AuditFilter{
		Page:      page,
		PerPage:   perPage,
		SortOrder: q.Get("order"),
	}
	if v := q.Get("actor"); v != "" {
		filter.Actor = &v
	}
	if v := q.Get("actor_type"); v != "" {
		filter.ActorType = &v
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("resource"); v != "" {
		filter.Resource = &v
	}
	if v := q.Get("resource_id"); v != "" {
		filter.ResourceID = &v
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		filter.Since = &since
	}

	entries, total, err := h.auditSvc.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}

	response.Paginated(w, http.StatusOK, entries, page, perPage, total)
}
