package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CaioWing/repairdesk/internal/apiclient"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
	"github.com/CaioWing/repairdesk/internal/state"
	"github.com/CaioWing/repairdesk/internal/storage"
)

// RecordSource fetches the signed-in client's records. *apiclient.Client
// satisfies it.
type RecordSource interface {
	GetClientReports(ctx context.Context) (*apiclient.Envelope[domain.Report], error)
	GetClientInvoices(ctx context.Context) (*apiclient.Envelope[domain.Invoice], error)
}

// LoadResult is what a load ended up with.
type LoadResult struct {
	Reports   []domain.Report
	Invoices  []domain.Invoice
	FromCache bool
	// Stale is set when a newer load committed first and this one was dropped.
	Stale bool
}

type DataManagerOptions struct {
	// ParallelFetch issues the report and invoice requests concurrently.
	ParallelFetch bool
	Now           func() time.Time
}

// DataManager owns fetching, caching and filtering of reports and invoices.
type DataManager struct {
	api      RecordSource
	store    *state.Store
	bus      *events.Bus
	cache    storage.KV
	log      *slog.Logger
	parallel bool
	now      func() time.Time

	generation atomic.Uint64
	inflight   atomic.Int32

	commitMu  sync.Mutex
	committed uint64
}

func NewDataManager(api RecordSource, store *state.Store, bus *events.Bus, cache storage.KV, log *slog.Logger, opts DataManagerOptions) *DataManager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DataManager{
		api:      api,
		store:    store,
		bus:      bus,
		cache:    cache,
		log:      log,
		parallel: opts.ParallelFetch,
		now:      now,
	}
}

// IsLoading reports whether any load is in flight.
func (d *DataManager) IsLoading() bool {
	return d.inflight.Load() > 0
}

// LoadData fetches reports and invoices and installs them into the state.
// It never returns an error: failures become DataErr events and, when
// nothing is loaded yet, a fallback to the cache.
func (d *DataManager) LoadData(ctx context.Context) LoadResult {
	gen := d.generation.Add(1)
	d.inflight.Add(1)
	defer d.inflight.Add(-1)

	d.store.Update(func(s *domain.DashboardState) { s.IsLoading = true })
	d.bus.Emit(events.LoadingStarted{Generation: gen})

	reports, invoices, err := d.fetch(ctx)
	if err != nil {
		d.log.Warn("load failed", "generation", gen, "err", err)
		d.finishLoading(gen)
		d.bus.Emit(events.DataErr{Type: events.ScopeGeneral, Err: err})

		current := d.store.Get()
		if len(current.Reports) > 0 || len(current.Invoices) > 0 {
			return LoadResult{Reports: current.Reports, Invoices: current.Invoices}
		}
		return d.LoadFromCache(ctx)
	}

	if !d.commit(gen, reports, invoices) {
		d.log.Info("discarding stale load", "generation", gen)
		return LoadResult{Reports: reports, Invoices: invoices, Stale: true}
	}

	d.CacheData(ctx, reports, invoices)
	st := d.store.Get()
	d.bus.Emit(events.Filtered{Reports: len(st.FilteredReports), Invoices: len(st.FilteredInvoices)})
	d.bus.Emit(events.Loaded{Generation: gen, Reports: len(reports), Invoices: len(invoices)})

	return LoadResult{Reports: reports, Invoices: invoices}
}

// commit installs a successful load unless a newer generation already did.
func (d *DataManager) commit(gen uint64, reports []domain.Report, invoices []domain.Invoice) bool {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	if gen < d.committed {
		return false
	}
	d.committed = gen

	now := d.now()
	latest := d.generation.Load() == gen
	d.store.Update(func(s *domain.DashboardState) {
		s.Reports = reports
		s.Invoices = invoices
		s.LastUpdated = &now
		if latest {
			s.IsLoading = false
		}
		applyFilterPass(s)
	})
	return true
}

func (d *DataManager) finishLoading(gen uint64) {
	if d.generation.Load() != gen {
		return
	}
	d.store.Update(func(s *domain.DashboardState) { s.IsLoading = false })
}

func (d *DataManager) fetch(ctx context.Context) ([]domain.Report, []domain.Invoice, error) {
	if d.parallel {
		return d.fetchParallel(ctx)
	}

	reports, err := d.fetchReports(ctx)
	if err != nil {
		return nil, nil, err
	}
	invoices, err := d.fetchInvoices(ctx)
	if err != nil {
		invoices = d.invoiceFailure(err)
	}
	return reports, invoices, nil
}

func (d *DataManager) fetchParallel(ctx context.Context) ([]domain.Report, []domain.Invoice, error) {
	var (
		g          errgroup.Group
		reports    []domain.Report
		invoices   []domain.Invoice
		invoiceErr error
	)

	g.Go(func() error {
		var err error
		reports, err = d.fetchReports(ctx)
		return err
	})
	g.Go(func() error {
		invoices, invoiceErr = d.fetchInvoices(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if invoiceErr != nil {
		invoices = d.invoiceFailure(invoiceErr)
	}
	return reports, invoices, nil
}

func (d *DataManager) fetchReports(ctx context.Context) ([]domain.Report, error) {
	env, err := d.api.GetClientReports(ctx)
	if err != nil {
		return nil, err
	}
	if env == nil || !env.Success || env.Data == nil {
		return []domain.Report{}, nil
	}
	return env.Data, nil
}

func (d *DataManager) fetchInvoices(ctx context.Context) ([]domain.Invoice, error) {
	env, err := d.api.GetClientInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if env == nil || !env.Success || env.Data == nil {
		return []domain.Invoice{}, nil
	}
	return env.Data, nil
}

// invoiceFailure degrades a failed invoice fetch to an empty list.
func (d *DataManager) invoiceFailure(err error) []domain.Invoice {
	d.log.Warn("invoice fetch failed", "err", err)
	d.bus.Emit(events.DataErr{Type: events.ScopeInvoices, Err: err})
	return []domain.Invoice{}
}

// cacheSnapshot is the persisted form of one successful load.
type cacheSnapshot struct {
	Reports  []domain.Report  `json:"reports"`
	Invoices []domain.Invoice `json:"invoices"`
}

// LoadFromCache installs the last cached snapshot, if it holds anything.
func (d *DataManager) LoadFromCache(ctx context.Context) LoadResult {
	var snap cacheSnapshot
	if err := d.readCache(ctx, storage.KeySnapshotCache, &snap); err != nil {
		d.log.Warn("read cached snapshot", "err", err)
		snap = cacheSnapshot{}
	}
	reports, invoices := snap.Reports, snap.Invoices
	if reports == nil {
		reports = []domain.Report{}
	}
	if invoices == nil {
		invoices = []domain.Invoice{}
	}

	if len(reports) == 0 && len(invoices) == 0 {
		return LoadResult{Reports: reports, Invoices: invoices}
	}

	d.store.Update(func(s *domain.DashboardState) {
		s.Reports = reports
		s.Invoices = invoices
		applyFilterPass(s)
	})
	st := d.store.Get()
	d.bus.Emit(events.Filtered{Reports: len(st.FilteredReports), Invoices: len(st.FilteredInvoices)})
	d.bus.Emit(events.LoadedFromCache{Reports: len(reports), Invoices: len(invoices)})

	return LoadResult{Reports: reports, Invoices: invoices, FromCache: true}
}

func (d *DataManager) readCache(ctx context.Context, key string, dest interface{}) error {
	if d.cache == nil {
		return nil
	}
	raw, err := d.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// CacheData persists a snapshot. Failures are logged and otherwise ignored;
// the previous snapshot then stays in place whole.
func (d *DataManager) CacheData(ctx context.Context, reports []domain.Report, invoices []domain.Invoice) {
	if d.cache == nil {
		return
	}
	if err := d.writeCache(ctx, storage.KeySnapshotCache, cacheSnapshot{Reports: reports, Invoices: invoices}); err != nil {
		d.log.Warn("cache snapshot", "err", err)
		return
	}
	d.bus.Emit(events.Cached{Reports: len(reports), Invoices: len(invoices)})
}

func (d *DataManager) writeCache(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return d.cache.Set(ctx, key, string(b))
}

// ApplyFilters recomputes the filtered views from the current state.
func (d *DataManager) ApplyFilters() {
	d.refilter(func(*domain.DashboardState) {})
}

func (d *DataManager) SetSearchTerm(term string) {
	d.refilter(func(s *domain.DashboardState) { s.SearchTerm = term })
}

func (d *DataManager) SetSort(by domain.SortBy, order domain.SortOrder) error {
	if !validSort(by, order) {
		return fmt.Errorf("%w: sort %q %q", domain.ErrInvalidInput, by, order)
	}
	d.refilter(func(s *domain.DashboardState) {
		s.SortBy = by
		s.SortOrder = order
	})
	return nil
}

// refilter applies mutate and the filter pass as one state update.
func (d *DataManager) refilter(mutate func(*domain.DashboardState)) {
	var reports, invoices int
	d.store.Update(func(s *domain.DashboardState) {
		mutate(s)
		applyFilterPass(s)
		reports, invoices = len(s.FilteredReports), len(s.FilteredInvoices)
	})
	d.bus.Emit(events.Filtered{Reports: reports, Invoices: invoices})
}
