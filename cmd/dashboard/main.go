package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CaioWing/repairdesk/internal/apiclient"
	"github.com/CaioWing/repairdesk/internal/auth"
	"github.com/CaioWing/repairdesk/internal/config"
	"github.com/CaioWing/repairdesk/internal/dashboard"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
	"github.com/CaioWing/repairdesk/internal/export"
	"github.com/CaioWing/repairdesk/internal/render/terminal"
	"github.com/CaioWing/repairdesk/internal/state"
	"github.com/CaioWing/repairdesk/internal/storage"
	"github.com/CaioWing/repairdesk/internal/storage/local"
	"github.com/CaioWing/repairdesk/internal/storage/rediskv"
)

type flags struct {
	login    string
	password string
	search   string
	sortBy   string
	order    string
	tab      string
	export   string
	once     bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.login, "login", "", "sign in with this email and exit")
	flag.StringVar(&f.password, "password", os.Getenv("REPAIRDESK_PASSWORD"), "password for -login")
	flag.StringVar(&f.search, "search", "", "filter reports and invoices by term")
	flag.StringVar(&f.sortBy, "sort", string(domain.SortByDate), "sort by date or status")
	flag.StringVar(&f.order, "order", string(domain.SortDesc), "asc or desc")
	flag.StringVar(&f.tab, "tab", "", "switch to this tab")
	flag.StringVar(&f.export, "export", "", "write the filtered view as this .xlsx name under the export dir and exit")
	flag.BoolVar(&f.once, "once", false, "load once and exit instead of watching")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	cfg, err := config.LoadDashboard()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(cfg, f, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.DashboardConfig, f flags, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.SessionFile), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	session, err := auth.LoadSession(cfg.SessionFile)
	if err != nil {
		return err
	}
	client := apiclient.New(cfg.APIURL, session, cfg.APITimeout)

	if f.login != "" {
		return login(ctx, client, session, f, log)
	}

	cache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	out := terminal.New(os.Stdout)
	d := dashboard.New(dashboard.Deps{
		API:     client,
		Session: session,
		Cache:   cache,
		Bus:     events.NewBus(log),
		Store:   state.NewStore(),
		Toasts:  out,
		Stats:   out,
		Filter:  out,
		OnUnauthenticated: func() {
			fmt.Fprintln(os.Stderr, "not signed in: run with -login <email>")
		},
		Logger: log,
	}, options(cfg))
	defer d.Destroy()

	if err := d.Init(ctx); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return nil
		}
		return fmt.Errorf("init dashboard: %w", err)
	}

	if err := d.Filter().Sort(domain.SortBy(f.sortBy), domain.SortOrder(f.order)); err != nil {
		return err
	}
	if f.search != "" {
		d.Data().SetSearchTerm(f.search)
	}
	if f.tab != "" {
		if err := d.SwitchTab(f.tab); err != nil {
			return err
		}
	}

	if f.export != "" {
		return exportView(cfg, d.State(), f.export, log)
	}
	if f.once {
		return nil
	}

	<-ctx.Done()
	log.Info("dashboard stopped")
	return nil
}

func login(ctx context.Context, client *apiclient.Client, session *auth.Session, f flags, log *slog.Logger) error {
	if f.password == "" {
		return errors.New("-login needs -password or REPAIRDESK_PASSWORD")
	}
	token, err := client.Login(ctx, f.login, f.password)
	if err != nil {
		return err
	}
	if err := session.Save(token); err != nil {
		return err
	}
	log.Info("signed in", "email", f.login)
	return nil
}

func openCache(ctx context.Context, cfg *config.DashboardConfig) (storage.KV, func(), error) {
	switch cfg.Cache {
	case config.CacheRedis:
		s, err := rediskv.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.CacheMemory:
		return storage.NewMemory(), func() {}, nil
	default:
		s, err := local.NewKV(cfg.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func options(cfg *config.DashboardConfig) dashboard.Options {
	opts := dashboard.DefaultOptions()
	opts.RefreshInterval = cfg.RefreshInterval
	opts.ConnectivityInterval = cfg.ConnectivityInterval
	opts.TabRestoreDelay = cfg.TabRestoreDelay
	opts.SearchDebounce = cfg.SearchDebounce
	opts.ToastDuration = cfg.ToastDuration
	opts.MaxVisibleToasts = cfg.MaxVisibleToasts
	opts.FadeOut = cfg.FadeOut
	opts.ParallelFetch = cfg.ParallelFetch
	return opts
}

func exportView(cfg *config.DashboardConfig, s domain.DashboardState, target string, log *slog.Logger) error {
	store, err := local.New(cfg.ExportDir)
	if err != nil {
		return fmt.Errorf("init export dir: %w", err)
	}
	path, err := export.SaveWorkbook(store, filepath.Base(target), s.FilteredReports, s.FilteredInvoices, time.Now())
	if err != nil {
		return err
	}
	log.Info("workbook written", "path", path, "reports", len(s.FilteredReports), "invoices", len(s.FilteredInvoices))
	return nil
}
