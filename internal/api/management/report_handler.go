package management

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

type ReportHandler struct {
	reportSvc *service.ReportService
}

func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

type createReportRequest struct {
	ClientID       uuid.UUID  `json:"client_id"`
	DeviceModel    string     `json:"device_model"`
	SerialNumber   string     `json:"serial_number"`
	InspectionDate *time.Time `json:"inspection_date"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes"`
}

type updateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := response.ParsePagination(r)
	q := r.URL.Query()

	clientID, ok := queryID(w, r, "client_id")
	if !ok {
		return
	}

	filter := domain.ReportFilter{
		ClientID:  clientID,
		Page:      page,
		PerPage:   perPage,
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("q"); v != "" {
		filter.Search = &v
	}

	reports, total, err := h.reportSvc.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	response.Paginated(w, http.StatusOK, reports, page, perPage, total)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}

	report, err := h.reportSvc.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "failed to get report")
		return
	}

	response.JSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.reportSvc.Create(r.Context(), service.CreateReportInput{
		ClientID:       req.ClientID,
		DeviceModel:    req.DeviceModel,
		SerialNumber:   req.SerialNumber,
		InspectionDate: req.InspectionDate,
		Status:         req.Status,
		Notes:          req.Notes,
	})
	if err != nil {
		response.FromError(w, err, "failed to create report")
		return
	}

	response.JSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.reportSvc.UpdateStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		response.FromError(w, err, "failed to update report")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(r.Context(), id); err != nil {
		response.FromError(w, err, "failed to delete report")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Warranty returns every warranty window of a report as of now.
func (h *ReportHandler) Warranty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "report")
	if !ok {
		return
	}

	view, err := h.reportSvc.Warranty(r.Context(), id, time.Now())
	if err != nil {
		response.FromError(w, err, "failed to calculate warranty")
		return
	}

	response.JSON(w, http.StatusOK, view)
}
