package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CaioWing/repairdesk/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("client: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFromError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, fmt.Errorf("pq: password authentication failed"), "failed to list reports")

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusInternalServerError || body["error"] != "failed to list reports" {
		t.Errorf("unexpected response %d %v", rec.Code, body)
	}
}

func TestSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, []string{"a", "b"})

	var body struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || len(body.Data) != 2 {
		t.Errorf("unexpected envelope %+v", body)
	}
}
