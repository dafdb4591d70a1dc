package response

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Envelope is the client portal response shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Success writes data wrapped in a successful Envelope.
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Failure writes a failed Envelope.
func Failure(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Error: msg})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status StatusFor picks. Internal errors are
// reported as fallback so their details do not leak.
func FromError(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Error(w, status, fallback)
		return
	}
	Error(w, status, err.Error())
}

func Paginated(w http.ResponseWriter, status int, data interface{}, page, perPage, total int) {
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	JSON(w, status, PaginatedResponse{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func ParsePagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return
}
