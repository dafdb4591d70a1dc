package middleware

import (
	"net/http"
	"strings"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/service"
)

const managementPrefix = "/api/v1/management/"

// AuditLog records successful mutating staff requests.
func AuditLog(auditSvc *service.AuditService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)
			next.ServeHTTP(rw, r)

			if r.Method == http.MethodGet || r.Method == http.MethodOptions || rw.status >= 400 {
				return
			}

			action, resource := classifyRequest(r.Method, r.URL.Path)
			if action == "" {
				return
			}

			actor := UserID(r.Context())
			if actor == "" {
				actor = "anonymous"
			}

			entry := &domain.AuditEntry{
				Actor:     actor,
				ActorType: string(Role(r.Context())),
				Action:    action,
				Resource:  resource,
				IPAddress: r.RemoteAddr,
				Details:   map[string]interface{}{"method": r.Method, "path": r.URL.Path},
			}
			parts := strings.Split(strings.TrimPrefix(r.URL.Path, managementPrefix), "/")
			if len(parts) >= 2 {
				entry.ResourceID = parts[1]
			}

			auditSvc.Log(r.Context(), entry)
		})
	}
}

func classifyRequest(method, path string) (action, resource string) {
	p := strings.TrimPrefix(path, managementPrefix)
	segment, rest, _ := strings.Cut(p, "/")

	switch segment {
	case "clients":
		if method == http.MethodPost && rest == "" {
			return "client.create", "client"
		}
	case "reports":
		switch {
		case method == http.MethodPost && rest == "":
			return "report.create", "report"
		case method == http.MethodPut && strings.HasSuffix(rest, "/status"):
			return "report.update_status", "report"
		case method == http.MethodDelete:
			return "report.delete", "report"
		}
	case "invoices":
		switch {
		case method == http.MethodPost && rest == "":
			return "invoice.create", "invoice"
		case method == http.MethodPost && strings.HasSuffix(rest, "/payments"):
			return "invoice.payment", "invoice"
		case method == http.MethodDelete:
			return "invoice.delete", "invoice"
		}
	}
	return "", ""
}
