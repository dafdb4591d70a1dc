package management

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/CaioWing/repairdesk/internal/api/middleware"
	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

// AuthHandler signs in the single staff account configured for the shop.
type AuthHandler struct {
	jwtMgr        *auth.JWTManager
	staffEmail    string
	staffPassHash []byte
}

func NewAuthHandler(jwtMgr *auth.JWTManager, staffEmail, staffPassword string) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(staffPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		jwtMgr:        jwtMgr,
		staffEmail:    strings.ToLower(strings.TrimSpace(staffEmail)),
		staffPassHash: hash,
	}, nil
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

	if strings.ToLower(strings.TrimSpace(req.Email)) != h.staffEmail {
		response.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.staffPassHash, []byte(req.Password)); err != nil {
		response.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issue(w, h.staffEmail)
}

// Refresh issues a new staff token for an already authenticated caller.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Error(w, http.StatusUnauthorized, "invalid token")
		return
	}
	h.issue(w, userID)
}

func (h *AuthHandler) issue(w http.ResponseWriter, userID string) {
	token, expiresAt, err := h.jwtMgr.Generate(userID, auth.RoleStaff)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	response.JSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
