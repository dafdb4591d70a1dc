package management

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

type ClientHandler struct {
	clientSvc *service.ClientService
	exportSvc *service.ExportService
}

func NewClientHandler(clientSvc *service.ClientService, exportSvc *service.ExportService) *ClientHandler {
	return &ClientHandler{clientSvc: clientSvc, exportSvc: exportSvc}
}

type createClientRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type createClientResponse struct {
	Client          *domain.Client `json:"client"`
	InitialPassword string         `json:"initial_password,omitempty"`
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := response.ParsePagination(r)

	filter := domain.ClientFilter{Page: page, PerPage: perPage}
	if v := r.URL.Query().Get("q"); v != "" {
		filter.Search = &v
	}

	clients, total, err := h.clientSvc.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list clients")
		return
	}

	response.Paginated(w, http.StatusOK, clients, page, perPage, total)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}

	client, err := h.clientSvc.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err, "failed to get client")
		return
	}

	response.JSON(w, http.StatusOK, client)
}

// Create registers a client. When no password is supplied one is generated
// and returned once in the response.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, generated, err := h.clientSvc.Register(r.Context(), service.RegisterClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		response.FromError(w, err, "failed to create client")
		return
	}

	response.JSON(w, http.StatusCreated, createClientResponse{Client: client, InitialPassword: generated})
}

// Export streams a workbook with the client's reports and invoices.
func (h *ClientHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "client")
	if !ok {
		return
	}

	file, err := h.exportSvc.ExportClient(r.Context(), id, time.Now())
	if err != nil {
		response.FromError(w, err, "failed to export client")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	// Headers are already sent, so a failed copy cannot change the response.
	_ = h.exportSvc.Stream(w, file)
}
