package portal

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/api/middleware"
	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

// RecordsHandler serves the signed-in client's own reports and invoices.
type RecordsHandler struct {
	reportSvc  *service.ReportService
	invoiceSvc *service.InvoiceService
}

func NewRecordsHandler(reportSvc *service.ReportService, invoiceSvc *service.InvoiceService) *RecordsHandler {
	return &RecordsHandler{reportSvc: reportSvc, invoiceSvc: invoiceSvc}
}

func (h *RecordsHandler) Reports(w http.ResponseWriter, r *http.Request) {
	clientID, ok := currentClient(w, r)
	if !ok {
		return
	}

	reports, err := h.reportSvc.ListForClient(r.Context(), clientID)
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	if reports == nil {
		reports = []*domain.Report{}
	}
	response.Success(w, reports)
}

func (h *RecordsHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	clientID, ok := currentClient(w, r)
	if !ok {
		return
	}

	invoices, err := h.invoiceSvc.ListForClient(r.Context(), clientID)
	if err != nil {
		response.Failure(w, http.StatusInternalServerError, "failed to load invoices")
		return
	}
	if invoices == nil {
		invoices = []*domain.Invoice{}
	}
	response.Success(w, invoices)
}

func currentClient(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.UserID(r.Context()))
	if err != nil {
		response.Failure(w, http.StatusUnauthorized, "invalid session")
		return uuid.Nil, false
	}
	return id, true
}
