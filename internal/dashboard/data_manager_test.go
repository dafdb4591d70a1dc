package dashboard

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
	"github.com/CaioWing/repairdesk/internal/state"
	"github.com/CaioWing/repairdesk/internal/storage"
)

type dmFixture struct {
	api   *fakeAPI
	store *state.Store
	bus   *events.Bus
	cache *storage.Memory
	dm    *DataManager
	log   *eventLog
}

func newDMFixture(opts DataManagerOptions) *dmFixture {
	f := &dmFixture{
		api:   &fakeAPI{},
		store: state.NewStore(),
		bus:   events.NewBus(testLogger()),
		cache: storage.NewMemory(),
	}
	f.log = recordEvents(f.bus,
		events.DataLoadingStart, events.DataLoaded, events.DataLoadedCache,
		events.DataFiltered, events.DataError, events.DataCached)
	f.dm = NewDataManager(f.api, f.store, f.bus, f.cache, testLogger(), opts)
	return f
}

func TestLoadData_Success(t *testing.T) {
	f := newDMFixture(DataManagerOptions{Now: func() time.Time { return day(2026, time.June, 1) }})
	f.api.reports = fiveReports()
	f.api.invoices = []domain.Invoice{{ID: uuid.New(), Date: day(2026, time.May, 1)}}

	res := f.dm.LoadData(context.Background())

	assert.Len(t, res.Reports, 5)
	assert.Len(t, res.Invoices, 1)
	assert.False(t, res.FromCache)

	st := f.store.Get()
	assert.False(t, st.IsLoading)
	require.NotNil(t, st.LastUpdated)
	assert.True(t, day(2026, time.June, 1).Equal(*st.LastUpdated))
	assert.Len(t, st.FilteredReports, 5)
	assert.Len(t, st.FilteredInvoices, 1)

	assert.Equal(t, 1, f.log.count(events.DataLoadingStart))
	assert.Equal(t, 1, f.log.count(events.DataLoaded))
	assert.Equal(t, 1, f.log.count(events.DataCached))
	assert.Zero(t, f.log.count(events.DataError))
	assert.False(t, f.dm.IsLoading())
}

func TestLoadData_InvoiceFailureDegrades(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = fiveReports()
	f.api.invoicesErr = errNetwork

	res := f.dm.LoadData(context.Background())

	assert.Len(t, res.Reports, 5)
	assert.Len(t, res.Invoices, 0)
	assert.Equal(t, 1, f.log.dataErrors(events.ScopeInvoices))
	assert.Zero(t, f.log.dataErrors(events.ScopeGeneral))
	assert.Equal(t, 1, f.log.count(events.DataLoaded))
}

func TestLoadData_ParallelInvoiceFailureDegrades(t *testing.T) {
	f := newDMFixture(DataManagerOptions{ParallelFetch: true})
	f.api.reports = fiveReports()
	f.api.invoicesErr = errNetwork

	res := f.dm.LoadData(context.Background())

	assert.Len(t, res.Reports, 5)
	assert.Len(t, res.Invoices, 0)
	assert.Equal(t, 1, f.log.dataErrors(events.ScopeInvoices))
}

func TestLoadData_BothFailNoCache(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reportsErr = errNetwork
	f.api.invoicesErr = errNetwork

	res := f.dm.LoadData(context.Background())

	assert.NotNil(t, res.Reports)
	assert.NotNil(t, res.Invoices)
	assert.Len(t, res.Reports, 0)
	assert.Len(t, res.Invoices, 0)
	assert.Equal(t, 1, f.log.dataErrors(events.ScopeGeneral))
	assert.False(t, f.store.Get().IsLoading)
	assert.Zero(t, f.log.count(events.DataLoadedCache))

	// Sequential fetch never reaches invoices once reports fail.
	_, invoiceCalls := f.api.calls()
	assert.Zero(t, invoiceCalls)
}

func TestLoadData_FallsBackToCache(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	cached := fiveReports()[:2]
	f.dm.CacheData(context.Background(), cached, nil)
	f.api.reportsErr = errNetwork

	res := f.dm.LoadData(context.Background())

	assert.True(t, res.FromCache)
	assert.Len(t, res.Reports, 2)
	assert.Len(t, f.store.Get().FilteredReports, 2)
	assert.Equal(t, 1, f.log.count(events.DataLoadedCache))
}

func TestLoadData_FailureKeepsInMemoryState(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = fiveReports()
	f.dm.LoadData(context.Background())

	require.NoError(t, f.cache.Delete(context.Background(), storage.KeySnapshotCache))
	f.api.mu.Lock()
	f.api.reportsErr = errNetwork
	f.api.mu.Unlock()

	res := f.dm.LoadData(context.Background())

	assert.False(t, res.FromCache)
	assert.Len(t, res.Reports, 5)
	assert.Len(t, f.store.Get().Reports, 5)
}

func TestLoadData_StaleGenerationIsDiscarded(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	release := make(chan struct{})
	started := make(chan struct{})

	older := []domain.Report{report("old", "1", "x", nil, day(2026, time.January, 1))}
	newer := []domain.Report{report("new", "2", "x", nil, day(2026, time.January, 2))}

	f.api.reportsHook = func(ctx context.Context, call int) ([]domain.Report, error) {
		if call == 1 {
			close(started)
			<-release
			return older, nil
		}
		return newer, nil
	}

	done := make(chan LoadResult)
	go func() { done <- f.dm.LoadData(context.Background()) }()
	<-started

	res := f.dm.LoadData(context.Background())
	assert.False(t, res.Stale)
	assert.True(t, f.dm.IsLoading(), "older load still in flight")

	close(release)
	stale := <-done

	assert.True(t, stale.Stale)
	st := f.store.Get()
	require.Len(t, st.Reports, 1)
	assert.Equal(t, "new", st.Reports[0].DeviceModel)
	assert.False(t, st.IsLoading)
	assert.False(t, f.dm.IsLoading())
}

func TestCacheRoundTrip(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	ctx := context.Background()

	reports := []domain.Report{
		report("iPhone 13", "SN1", "repaired", timePtr(day(2026, time.February, 2)), day(2026, time.February, 1)),
		report("Galaxy S22", "SN2", "pending", nil, day(2026, time.February, 3)),
	}
	rid := reports[0].ID
	invoices := []domain.Invoice{{
		ID:            uuid.New(),
		ReportID:      &rid,
		Date:          day(2026, time.February, 4),
		PaymentMethod: "card",
		Total:         decimal.RequireFromString("120.75"),
		PaidAmount:    decimal.RequireFromString("20"),
		Status:        domain.InvoiceStatusPartial,
	}}

	f.dm.CacheData(ctx, reports, invoices)
	res := f.dm.LoadFromCache(ctx)

	require.True(t, res.FromCache)
	require.Len(t, res.Reports, 2)
	require.Len(t, res.Invoices, 1)
	for i := range reports {
		assert.Equal(t, reports[i].ID, res.Reports[i].ID)
		assert.Equal(t, reports[i].DeviceModel, res.Reports[i].DeviceModel)
		assert.True(t, reports[i].EffectiveDate().Equal(res.Reports[i].EffectiveDate()))
	}
	assert.True(t, invoices[0].Total.Equal(res.Invoices[0].Total))
	assert.Equal(t, rid, *res.Invoices[0].ReportID)
}

// failingSetKV accepts reads but rejects every write.
type failingSetKV struct {
	*storage.Memory
}

func (failingSetKV) Set(context.Context, string, string) error { return errNetwork }

func TestCacheData_FailedWriteKeepsPreviousPair(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	old := fiveReports()[:2]
	oldInvoices := []domain.Invoice{{ID: uuid.New(), PaymentMethod: "cash"}}

	seed := NewDataManager(&fakeAPI{}, state.NewStore(), events.NewBus(testLogger()), mem, testLogger(), DataManagerOptions{})
	seed.CacheData(ctx, old, oldInvoices)

	bus := events.NewBus(testLogger())
	cached := recordEvents(bus, events.DataCached)
	dm := NewDataManager(&fakeAPI{}, state.NewStore(), bus, failingSetKV{mem}, testLogger(), DataManagerOptions{})
	dm.CacheData(ctx, fiveReports(), []domain.Invoice{})
	assert.Zero(t, cached.count(events.DataCached))

	res := dm.LoadFromCache(ctx)
	require.True(t, res.FromCache)
	require.Len(t, res.Reports, 2)
	require.Len(t, res.Invoices, 1)
	assert.Equal(t, old[0].ID, res.Reports[0].ID)
	assert.Equal(t, oldInvoices[0].ID, res.Invoices[0].ID)
}

func TestLoadFromCache_EmptyIsNotAnError(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})

	res := f.dm.LoadFromCache(context.Background())

	assert.False(t, res.FromCache)
	assert.Empty(t, res.Reports)
	assert.Empty(t, res.Invoices)
	assert.Zero(t, f.log.count(events.DataLoadedCache))
}

func TestLoadFromCache_CorruptEntryIsIgnored(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, storage.KeySnapshotCache, "{not json"))

	res := f.dm.LoadFromCache(ctx)

	assert.False(t, res.FromCache)
	assert.Empty(t, res.Reports)
}

func TestSearch_IPhoneScenario(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = []domain.Report{
		{ID: uuid.New(), DeviceModel: "iPhone 13"},
		{ID: uuid.New(), DeviceModel: "Samsung"},
	}
	f.dm.LoadData(context.Background())

	f.dm.SetSearchTerm("iPhone")

	st := f.store.Get()
	require.Len(t, st.FilteredReports, 1)
	assert.Equal(t, "iPhone 13", st.FilteredReports[0].DeviceModel)
	assert.Len(t, st.Reports, 2)
}

func TestSearch_MatchesFields(t *testing.T) {
	reports := []domain.Report{
		{DeviceModel: "Pixel 7", SerialNumber: "ABC-1", Status: "pending", Notes: "screen cracked"},
		{DeviceModel: "Galaxy", SerialNumber: "XYZ-9", Status: "Repaired", Notes: ""},
	}
	invoiceID := uuid.MustParse("6f1c2b3a-0000-4000-8000-000000000001")
	invoices := []domain.Invoice{
		{ID: invoiceID, PaymentMethod: "Cash"},
		{ID: uuid.New(), PaymentMethod: "bank transfer"},
	}

	assert.Len(t, FilterReports(reports, "abc", "", ""), 1)
	assert.Len(t, FilterReports(reports, "REPAIRED", "", ""), 1)
	assert.Len(t, FilterReports(reports, "cracked", "", ""), 1)
	assert.Len(t, FilterReports(reports, "screen cracked", "", ""), 1)
	assert.Len(t, FilterReports(reports, " 7", "", ""), 1)
	assert.Len(t, FilterReports(reports, "  ", "", ""), 0, "whitespace is matched literally")
	assert.Len(t, FilterReports(reports, "", "", ""), 2)
	assert.Len(t, FilterReports(reports, "nothing", "", ""), 0)

	assert.Len(t, FilterInvoices(invoices, "cash", "", ""), 1)
	assert.Len(t, FilterInvoices(invoices, "6F1C2B3A", "", ""), 1)
}

func TestFilter_SubsetAndOrderProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	terms := []string{"", "a", "pho", "done", "sn-1", "zzz"}
	models := []string{"iPhone", "Pixel", "Galaxy", "Nokia", "Xperia"}
	statuses := []string{"done", "pending", "waiting parts"}

	for iter := 0; iter < 50; iter++ {
		var reports []domain.Report
		var invoices []domain.Invoice
		for i := 0; i < rng.Intn(20); i++ {
			created := day(2025, time.January, 1).Add(time.Duration(rng.Intn(5000)) * time.Hour)
			var inspected *time.Time
			if rng.Intn(2) == 0 {
				inspected = timePtr(created.Add(time.Duration(rng.Intn(100)) * time.Hour))
			}
			reports = append(reports, report(models[rng.Intn(len(models))], "sn-"+uuid.NewString()[:4],
				statuses[rng.Intn(len(statuses))], inspected, created))
			invoices = append(invoices, domain.Invoice{
				ID:            uuid.New(),
				PaymentMethod: []string{"cash", "card"}[rng.Intn(2)],
				Date:          created,
			})
		}
		term := terms[rng.Intn(len(terms))]

		for _, order := range []domain.SortOrder{domain.SortAsc, domain.SortDesc} {
			fr := FilterReports(reports, term, domain.SortByDate, order)
			fi := FilterInvoices(invoices, term, domain.SortByDate, order)

			assertReportSubset(t, reports, fr)
			assertInvoiceSubset(t, invoices, fi)

			for i := 1; i < len(fr); i++ {
				prev, cur := fr[i-1].EffectiveDate(), fr[i].EffectiveDate()
				if order == domain.SortDesc {
					assert.False(t, cur.After(prev), "reports must be non-increasing")
				} else {
					assert.False(t, cur.Before(prev), "reports must be non-decreasing")
				}
			}
			for i := 1; i < len(fi); i++ {
				if order == domain.SortDesc {
					assert.False(t, fi[i].Date.After(fi[i-1].Date))
				} else {
					assert.False(t, fi[i].Date.Before(fi[i-1].Date))
				}
			}
		}
	}
}

func assertReportSubset(t *testing.T, all, subset []domain.Report) {
	t.Helper()
	ids := make(map[uuid.UUID]bool, len(all))
	for _, r := range all {
		ids[r.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(subset))
	for _, r := range subset {
		assert.True(t, ids[r.ID], "fabricated report")
		assert.False(t, seen[r.ID], "duplicate report")
		seen[r.ID] = true
	}
}

func assertInvoiceSubset(t *testing.T, all, subset []domain.Invoice) {
	t.Helper()
	ids := make(map[uuid.UUID]bool, len(all))
	for _, inv := range all {
		ids[inv.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(subset))
	for _, inv := range subset {
		assert.True(t, ids[inv.ID], "fabricated invoice")
		assert.False(t, seen[inv.ID], "duplicate invoice")
		seen[inv.ID] = true
	}
}

func TestApplyFilters_Idempotent(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = fiveReports()
	f.api.invoices = []domain.Invoice{{ID: uuid.New(), PaymentMethod: "cash"}}
	f.dm.LoadData(context.Background())
	f.dm.SetSearchTerm("model")

	f.dm.ApplyFilters()
	first := f.store.Get()
	f.dm.ApplyFilters()
	second := f.store.Get()

	assert.Equal(t, first.FilteredReports, second.FilteredReports)
	assert.Equal(t, first.FilteredInvoices, second.FilteredInvoices)
}

func TestSetSort(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = []domain.Report{
		report("A", "1", "b-status", timePtr(day(2026, time.January, 5)), day(2026, time.January, 1)),
		report("B", "2", "a-status", nil, day(2026, time.January, 3)),
		report("C", "3", "c-status", nil, day(2026, time.January, 9)),
	}
	f.dm.LoadData(context.Background())

	// Default is newest first; A resolves to its inspection date (Jan 5).
	models := func() []string {
		var out []string
		for _, r := range f.store.Get().FilteredReports {
			out = append(out, r.DeviceModel)
		}
		return out
	}
	assert.Equal(t, []string{"C", "A", "B"}, models())

	require.NoError(t, f.dm.SetSort(domain.SortByDate, domain.SortAsc))
	assert.Equal(t, []string{"B", "A", "C"}, models())

	require.NoError(t, f.dm.SetSort(domain.SortByStatus, domain.SortAsc))
	assert.Equal(t, []string{"B", "A", "C"}, models())

	require.NoError(t, f.dm.SetSort(domain.SortByStatus, domain.SortDesc))
	assert.Equal(t, []string{"C", "A", "B"}, models())

	err := f.dm.SetSort("price", domain.SortAsc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
