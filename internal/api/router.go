package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CaioWing/repairdesk/internal/api/management"
	"github.com/CaioWing/repairdesk/internal/api/middleware"
	"github.com/CaioWing/repairdesk/internal/api/portal"
	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/auth"
	"github.com/CaioWing/repairdesk/internal/service"
)

type RouterDeps struct {
	ReportSvc     *service.ReportService
	InvoiceSvc    *service.InvoiceService
	ClientSvc     *service.ClientService
	AuditSvc      *service.AuditService
	ExportSvc     *service.ExportService
	JWTManager    *auth.JWTManager
	StaffAuth     *management.AuthHandler
	ClientLimiter *middleware.RateLimiter
	StaffLimiter  *middleware.RateLimiter
	CORSOrigins   string
	Logger        *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	metrics := middleware.NewMetrics("repairdesk")

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(metrics.Middleware())

	origins := strings.Split(deps.CORSOrigins, ",")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", metrics.Handler())

	// Client portal, used by the dashboard
	clientAuthHandler := portal.NewAuthHandler(deps.ClientSvc, deps.AuditSvc)
	recordsHandler := portal.NewRecordsHandler(deps.ReportSvc, deps.InvoiceSvc)

	r.Route("/api/v1/client", func(r chi.Router) {
		if deps.ClientLimiter != nil {
			r.Use(deps.ClientLimiter.Middleware())
		}

		r.Post("/auth/login", clientAuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTManager, auth.RoleClient))
			r.Get("/reports", recordsHandler.Reports)
			r.Get("/invoices", recordsHandler.Invoices)
		})
	})

	// Management API, used by shop staff
	clientHandler := management.NewClientHandler(deps.ClientSvc, deps.ExportSvc)
	reportHandler := management.NewReportHandler(deps.ReportSvc)
	invoiceHandler := management.NewInvoiceHandler(deps.InvoiceSvc)
	auditHandler := management.NewAuditHandler(deps.AuditSvc)

	r.Route("/api/v1/management", func(r chi.Router) {
		if deps.StaffLimiter != nil {
			r.Use(deps.StaffLimiter.Middleware())
		}

		r.Post("/auth/login", deps.StaffAuth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTManager, auth.RoleStaff))
			r.Post("/auth/refresh", deps.StaffAuth.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.JWTManager, auth.RoleStaff))
			r.Use(middleware.AuditLog(deps.AuditSvc))

			// Clients
			r.Get("/clients", clientHandler.List)
			r.Post("/clients", clientHandler.Create)
			r.Get("/clients/{id}", clientHandler.Get)
			r.Get("/clients/{id}/export", clientHandler.Export)

			// Reports
			r.Get("/reports", reportHandler.List)
			r.Post("/reports", reportHandler.Create)
			r.Get("/reports/{id}", reportHandler.Get)
			r.Put("/reports/{id}/status", reportHandler.UpdateStatus)
			r.Get("/reports/{id}/warranty", reportHandler.Warranty)
			r.Delete("/reports/{id}", reportHandler.Delete)

			// Invoices
			r.Get("/invoices", invoiceHandler.List)
			r.Post("/invoices", invoiceHandler.Create)
			r.Get("/invoices/{id}", invoiceHandler.Get)
			r.Post("/invoices/{id}/payments", invoiceHandler.RecordPayment)
			r.Delete("/invoices/{id}", invoiceHandler.Delete)

			// Audit log
			r.Get("/audit", auditHandler.List)
		})
	})

	return r
}
