package management

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

type InvoiceHandler struct {
	invoiceSvc *service.InvoiceService
}

func NewInvoiceHandler(invoiceSvc *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceSvc: invoiceSvc}
}

type createInvoiceRequest struct {
	ClientID      uuid.UUID       `json:"client_id"`
	ReportID      *uuid.UUID      `json:"report_id"`
	Date          *time.Time      `json:"date"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := response.ParsePagination(r)

	clientID, ok := queryID(w, r, "client_id")
	if !ok {
		return
	}
	reportID, ok := queryID(w, r, "report_id")
	if !ok {
		return
	}

	filter := domain.InvoiceFilter{
		ClientID:  clientID,
		ReportID:  reportID,
		Page:      page,
		PerPage:   perPage,
		SortOrder: r.URL.Query().Get("order"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.InvoiceStatus(v)
		filter.Status = &s
	}

	invoices, total, err := h.invoiceSvc.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}

	response.Paginated(w, http.StatusOK, invoices, page, perPage, total)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceSvc.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "failed to get invoice")
		return
	}

	response.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateInvoiceInput{
		ClientID:      req.ClientID,
		ReportID:      req.ReportID,
		PaymentMethod: req.PaymentMethod,
		Subtotal:      req.Subtotal,
		Discount:      req.Discount,
		PaidAmount:    req.PaidAmount,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}

	invoice, err := h.invoiceSvc.Create(r.Context(), input)
	if err != nil {
		response.FromError(w, err, "failed to create invoice")
		return
	}

	response.JSON(w, http.StatusCreated, invoice)
}

// RecordPayment adds a payment to the invoice and returns it with the new
// paid amount and status.
func (h *InvoiceHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invoice")
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	invoice, err := h.invoiceSvc.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		response.FromError(w, err, "failed to record payment")
		return
	}

	response.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "invoice")
	if !ok {
		return
	}

	if err := h.invoiceSvc.Delete(r.Context(), id); err != nil {
		response.FromError(w, err, "failed to delete invoice")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
