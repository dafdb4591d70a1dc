// Package dashboard is the client dashboard: it loads a client's reports and
// invoices, keeps a cached copy for when the API is unreachable, filters and
// sorts them, and tells renderers what to draw.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
	"github.com/CaioWing/repairdesk/internal/state"
	"github.com/CaioWing/repairdesk/internal/storage"
)

// API is everything the dashboard needs from the portal.
type API interface {
	RecordSource
	Pinger
}

type SessionChecker interface {
	IsClientLoggedIn() bool
}

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseInitialized
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseInitialized:
		return "initialized"
	case PhaseFailed:
		return "error"
	default:
		return "uninitialized"
	}
}

// Messages are the user-facing toast texts.
type Messages struct {
	OfflineCached   string
	LoadFailed      string
	InvoicesFailed  string
	WentOffline     string
	BackOnline      string
	ShowingCached   string
	RefreshComplete string
}

func DefaultMessages() Messages {
	return Messages{
		OfflineCached:   "You are offline. Showing cached data.",
		LoadFailed:      "Failed to load data. Please try again.",
		InvoicesFailed:  "Invoices could not be loaded right now.",
		WentOffline:     "Connection lost. Working offline.",
		BackOnline:      "Connection restored.",
		ShowingCached:   "Showing the last saved copy of your records.",
		RefreshComplete: "Data updated.",
	}
}

type Deps struct {
	API     API
	Session SessionChecker
	Cache   storage.KV
	Bus     *events.Bus
	Store   *state.Store
	Toasts  ToastRenderer
	Stats   StatsRenderer
	Filter  FilterRenderer
	// OnUnauthenticated is called when Init finds no valid session.
	OnUnauthenticated func()
	Logger            *slog.Logger
}

type Options struct {
	RefreshInterval      time.Duration
	ConnectivityInterval time.Duration
	PingTimeout          time.Duration
	TabRestoreDelay      time.Duration
	SearchDebounce       time.Duration
	ToastDuration        time.Duration
	MaxVisibleToasts     int
	FadeOut              time.Duration
	ParallelFetch        bool
	Tabs                 []string
	Messages             Messages
	Now                  func() time.Time
}

func DefaultOptions() Options {
	return Options{
		RefreshInterval:      5 * time.Minute,
		ConnectivityInterval: 30 * time.Second,
		PingTimeout:          3 * time.Second,
		TabRestoreDelay:      100 * time.Millisecond,
		SearchDebounce:       DefaultSearchDebounce,
		ToastDuration:        DefaultToastDuration,
		MaxVisibleToasts:     DefaultMaxVisible,
		FadeOut:              DefaultFadeOut,
		Tabs:                 []string{domain.TabReports, domain.TabInvoices, domain.TabWarranty},
		Messages:             DefaultMessages(),
	}
}

// Dashboard wires the components together and runs the background refresh.
type Dashboard struct {
	deps Deps
	opts Options
	log  *slog.Logger

	mu            sync.Mutex
	phase         Phase
	data          *DataManager
	notifications *NotificationManager
	stats         *QuickStats
	filter        *SearchAndFilter
	conn          *ConnectivityMonitor
	cancel        context.CancelFunc
	tabTimer      *time.Timer
	unsubs        []func()
	wg            sync.WaitGroup
}

func New(deps Deps, opts Options) *Dashboard {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dashboard{deps: deps, opts: opts, log: log}
}

func (d *Dashboard) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *Dashboard) Initialized() bool {
	return d.Phase() == PhaseInitialized
}

// Init brings the dashboard up. Calling it again once initialized is a no-op.
// A failed Init leaves the dashboard uninitialized so it can be retried.
func (d *Dashboard) Init(ctx context.Context) error {
	d.mu.Lock()
	switch d.phase {
	case PhaseInitialized, PhaseInitializing:
		d.mu.Unlock()
		d.log.Warn("dashboard already initialized")
		return nil
	}
	d.phase = PhaseInitializing
	d.mu.Unlock()

	err := d.initialize(ctx)

	d.mu.Lock()
	switch {
	case err == nil:
		d.phase = PhaseInitialized
	case errors.Is(err, domain.ErrNotAuthenticated):
		d.phase = PhaseUninitialized
	default:
		d.phase = PhaseFailed
	}
	d.mu.Unlock()

	if err != nil {
		d.teardown()
		if errors.Is(err, domain.ErrNotAuthenticated) {
			return err
		}
		d.log.Error("dashboard init failed", "err", err)
		if d.deps.Bus != nil {
			d.deps.Bus.Emit(events.InitFailed{Err: err})
		}
		return err
	}

	d.log.Info("dashboard initialized")
	d.deps.Bus.Emit(events.Initialized{})
	return nil
}

func (d *Dashboard) initialize(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init panic: %v", r)
		}
	}()

	// 1. session gate
	if d.deps.Session == nil || !d.deps.Session.IsClientLoggedIn() {
		d.log.Info("no client session, redirecting")
		if d.deps.OnUnauthenticated != nil {
			d.deps.OnUnauthenticated()
		}
		return domain.ErrNotAuthenticated
	}

	if d.deps.API == nil || d.deps.Bus == nil || d.deps.Store == nil {
		return fmt.Errorf("%w: api, bus and store are required", domain.ErrInvalidInput)
	}

	// 2. data and notifications
	data := NewDataManager(d.deps.API, d.deps.Store, d.deps.Bus, d.deps.Cache, d.log, DataManagerOptions{
		ParallelFetch: d.opts.ParallelFetch,
		Now:           d.opts.Now,
	})
	notifications := NewNotificationManager(d.deps.Toasts, d.log, NotificationOptions{
		MaxVisible: d.opts.MaxVisibleToasts,
		FadeOut:    d.opts.FadeOut,
	})

	// 3. presentation components
	stats := NewQuickStats(d.deps.Store, d.deps.Stats, d.opts.Now)
	stats.Init()
	filter := NewSearchAndFilter(data, d.deps.Store, d.deps.Filter, d.opts.SearchDebounce)
	filter.Init()

	conn := NewConnectivityMonitor(d.deps.API, d.deps.Bus, d.opts.ConnectivityInterval, d.opts.PingTimeout, d.log)
	bgCtx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	d.data = data
	d.notifications = notifications
	d.stats = stats
	d.filter = filter
	d.conn = conn
	d.cancel = cancel
	d.mu.Unlock()

	// 4. bus wiring
	d.subscribe(notifications.Attach(d.deps.Bus))
	d.subscribe(events.Subscribe(d.deps.Bus, d.onDataError))
	d.subscribe(events.Subscribe(d.deps.Bus, d.onLoadedFromCache))
	d.subscribe(events.Subscribe(d.deps.Bus, func(e events.Connectivity) { d.onConnectivity(bgCtx, e) }))

	// 5. connectivity watch
	online := conn.Check(ctx)
	d.deps.Store.Update(func(s *domain.DashboardState) { s.IsOffline = !online })
	d.goBackground(func() { conn.Run(bgCtx) })

	// 6. initial load
	data.LoadData(ctx)

	// 7. auto refresh
	d.goBackground(func() { d.autoRefresh(bgCtx) })

	// 8. restore last tab
	d.restoreTab(ctx)

	return nil
}

func (d *Dashboard) subscribe(unsub func()) {
	d.mu.Lock()
	d.unsubs = append(d.unsubs, unsub)
	d.mu.Unlock()
}

func (d *Dashboard) goBackground(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

func (d *Dashboard) autoRefresh(ctx context.Context) {
	if d.opts.RefreshInterval <= 0 {
		return
	}
	ticker := time.NewTicker(d.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.conn.Online() || d.data.IsLoading() {
				continue
			}
			d.log.Debug("auto refresh")
			d.data.LoadData(ctx)
		}
	}
}

func (d *Dashboard) restoreTab(ctx context.Context) {
	if d.deps.Cache == nil {
		return
	}
	tab, err := d.deps.Cache.Get(ctx, storage.KeyActiveTab)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			d.log.Warn("read last tab", "err", err)
		}
		return
	}
	if !slices.Contains(d.opts.Tabs, tab) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.TabRestoreDelay <= 0 {
		d.setTab(tab)
		return
	}

	// The timer is armed under d.mu, so the callback always sees it assigned.
	// A SwitchTab during the delay clears d.tabTimer and wins.
	var timer *time.Timer
	timer = time.AfterFunc(d.opts.TabRestoreDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.tabTimer != timer {
			d.log.Debug("tab restore skipped", "tab", tab)
			return
		}
		d.tabTimer = nil
		d.setTab(tab)
	})
	d.tabTimer = timer
}

func (d *Dashboard) onDataError(e events.DataErr) {
	msgs := d.opts.Messages
	switch e.Type {
	case events.ScopeInvoices:
		d.toast(msgs.InvoicesFailed, domain.NotificationWarning)
	case events.ScopeGeneral:
		if d.conn != nil && !d.conn.Online() {
			d.toast(msgs.OfflineCached, domain.NotificationWarning)
			return
		}
		d.toast(msgs.LoadFailed, domain.NotificationError)
	}
}

func (d *Dashboard) onLoadedFromCache(events.LoadedFromCache) {
	d.toast(d.opts.Messages.ShowingCached, domain.NotificationInfo)
}

func (d *Dashboard) onConnectivity(ctx context.Context, e events.Connectivity) {
	d.deps.Store.Update(func(s *domain.DashboardState) { s.IsOffline = !e.Online })
	if !e.Online {
		d.toast(d.opts.Messages.WentOffline, domain.NotificationWarning)
		return
	}
	d.toast(d.opts.Messages.BackOnline, domain.NotificationSuccess)

	d.mu.Lock()
	ready := d.phase == PhaseInitialized
	d.mu.Unlock()
	if ready && !d.data.IsLoading() {
		d.goBackground(func() { d.data.LoadData(ctx) })
	}
}

func (d *Dashboard) toast(msg string, typ domain.NotificationType) {
	d.deps.Bus.Emit(events.ShowNotification{Message: msg, Type: typ, Duration: d.opts.ToastDuration})
}

// Refresh reloads data on demand.
func (d *Dashboard) Refresh(ctx context.Context) (LoadResult, error) {
	d.mu.Lock()
	if d.phase != PhaseInitialized {
		d.mu.Unlock()
		return LoadResult{}, fmt.Errorf("refresh: dashboard is %s", d.phase)
	}
	data := d.data
	d.mu.Unlock()

	res := data.LoadData(ctx)
	if !res.FromCache && !res.Stale && len(res.Reports)+len(res.Invoices) > 0 {
		d.toast(d.opts.Messages.RefreshComplete, domain.NotificationSuccess)
	}
	return res, nil
}

// SwitchTab makes tab active and remembers it for the next start.
func (d *Dashboard) SwitchTab(tab string) error {
	if !slices.Contains(d.opts.Tabs, tab) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTab, tab)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tabTimer != nil {
		d.tabTimer.Stop()
		d.tabTimer = nil
	}
	d.setTab(tab)
	return nil
}

func (d *Dashboard) setTab(tab string) {
	d.deps.Store.Update(func(s *domain.DashboardState) { s.ActiveTab = tab })
	if d.deps.Cache != nil {
		if err := d.deps.Cache.Set(context.Background(), storage.KeyActiveTab, tab); err != nil {
			d.log.Warn("persist active tab", "err", err)
		}
	}
	d.deps.Bus.Emit(events.TabSwitched{Tab: tab})
}

func (d *Dashboard) State() domain.DashboardState {
	return d.deps.Store.Get()
}

func (d *Dashboard) Data() *DataManager {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

func (d *Dashboard) Notifications() *NotificationManager {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notifications
}

func (d *Dashboard) Stats() *QuickStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dashboard) Filter() *SearchAndFilter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Destroy stops background work, clears the bus and resets the state so the
// dashboard can be initialized again.
func (d *Dashboard) Destroy() {
	d.teardown()
	if d.deps.Bus != nil {
		d.deps.Bus.Clear()
	}
	if d.deps.Store != nil {
		d.deps.Store.Reset()
	}

	d.mu.Lock()
	d.phase = PhaseUninitialized
	d.mu.Unlock()
}

// teardown releases everything initialize may have started.
func (d *Dashboard) teardown() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.tabTimer != nil {
		d.tabTimer.Stop()
		d.tabTimer = nil
	}
	unsubs := d.unsubs
	d.unsubs = nil
	notifications, stats, filter := d.notifications, d.stats, d.filter
	d.mu.Unlock()

	for _, off := range unsubs {
		off()
	}
	if notifications != nil {
		notifications.Clear()
	}
	if stats != nil {
		stats.Destroy()
	}
	if filter != nil {
		filter.Destroy()
	}

	d.wg.Wait()
}
