package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CaioWing/repairdesk/internal/api"
	"github.com/CaioWing/repairdesk/internal/api/management"
	"github.com/CaioWing/repairdesk/internal/api/middleware"
	"github.com/CaioWing/repairdesk/internal/auth"
	"github.com/CaioWing/repairdesk/internal/config"
	"github.com/CaioWing/repairdesk/internal/repository/postgres"
	"github.com/CaioWing/repairdesk/internal/service"
	"github.com/CaioWing/repairdesk/internal/storage/local"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting repairdesk",
		"listen", cfg.ListenAddr(),
		"db_host", cfg.DB.Host,
		"exports", cfg.Storage.ExportPath,
	)

	// Run migrations
	log.Info("running database migrations")
	if err := postgres.RunMigrations(cfg.DB.DSN()); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations completed")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection pool
	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	log.Info("database connected")

	// Export storage
	store, err := local.New(cfg.Storage.ExportPath)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Repositories
	clientRepo := postgres.NewClientRepo(pool)
	reportRepo := postgres.NewReportRepo(pool)
	invoiceRepo := postgres.NewInvoiceRepo(pool)
	auditRepo := postgres.NewAuditRepo(pool)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	staffAuth, err := management.NewAuthHandler(jwtMgr, cfg.Auth.StaffEmail, cfg.Auth.StaffPassword)
	if err != nil {
		return fmt.Errorf("staff credentials: %w", err)
	}

	// Services
	clientSvc := service.NewClientService(clientRepo, jwtMgr, log)
	reportSvc := service.NewReportService(reportRepo, clientRepo, log)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, reportRepo, clientRepo, log)
	auditSvc := service.NewAuditService(auditRepo, log)
	exportSvc := service.NewExportService(reportSvc, invoiceSvc, clientRepo, store, log)

	// Rate limiters, pruned in the background
	clientLimiter := middleware.NewRateLimiter(cfg.RateLimit.ClientRate, cfg.RateLimit.ClientBurst)
	staffLimiter := middleware.NewRateLimiter(cfg.RateLimit.StaffRate, cfg.RateLimit.StaffBurst)
	go clientLimiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	go staffLimiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	router := api.NewRouter(api.RouterDeps{
		ReportSvc:     reportSvc,
		InvoiceSvc:    invoiceSvc,
		ClientSvc:     clientSvc,
		AuditSvc:      auditSvc,
		ExportSvc:     exportSvc,
		JWTManager:    jwtMgr,
		StaffAuth:     staffAuth,
		ClientLimiter: clientLimiter,
		StaffLimiter:  staffLimiter,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		Logger:        log,
	})

	// HTTP Server
	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
