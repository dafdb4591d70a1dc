package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

type AuthHandler struct {
	clientSvc *service.ClientService
	auditSvc  *service.AuditService
}

func NewAuthHandler(clientSvc *service.ClientService, auditSvc *service.AuditService) *AuthHandler {
	return &AuthHandler{clientSvc: clientSvc, auditSvc: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, expiresAt, err := h.clientSvc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.auditSvc.ClientLogin(r.Context(), req.Email, r.RemoteAddr, false)
			response.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		response.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.auditSvc.ClientLogin(r.Context(), req.Email, r.RemoteAddr, true)
	response.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
