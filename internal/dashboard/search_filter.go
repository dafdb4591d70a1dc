package dashboard

import (
	"sync"
	"time"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/state"
)

const DefaultSearchDebounce = 300 * time.Millisecond

// SearchAndFilter drives search and sort from user input and renders the
// filter bar whenever the state changes.
type SearchAndFilter struct {
	data     *DataManager
	store    *state.Store
	renderer FilterRenderer
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	unsub func()
}

func NewSearchAndFilter(data *DataManager, store *state.Store, renderer FilterRenderer, debounce time.Duration) *SearchAndFilter {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &SearchAndFilter{
		data:     data,
		store:    store,
		renderer: renderer,
		debounce: debounce,
	}
}

func (f *SearchAndFilter) Init() {
	f.mu.Lock()
	f.unsub = f.store.Subscribe(f.render)
	f.mu.Unlock()
	f.render(f.store.Get())
}

func (f *SearchAndFilter) render(s domain.DashboardState) {
	f.renderer.RenderFilter(FilterView{
		SearchTerm:    s.SearchTerm,
		SortBy:        s.SortBy,
		SortOrder:     s.SortOrder,
		ShownReports:  len(s.FilteredReports),
		TotalReports:  len(s.Reports),
		ShownInvoices: len(s.FilteredInvoices),
		TotalInvoices: len(s.Invoices),
		IsLoading:     s.IsLoading,
		IsOffline:     s.IsOffline,
	})
}

// Search applies term after the debounce delay. A newer call replaces a
// pending one.
func (f *SearchAndFilter) Search(term string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.debounce <= 0 {
		f.data.SetSearchTerm(term)
		return
	}
	f.timer = time.AfterFunc(f.debounce, func() { f.data.SetSearchTerm(term) })
}

// ClearSearch drops any pending search and resets the term immediately.
func (f *SearchAndFilter) ClearSearch() {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()
	f.data.SetSearchTerm("")
}

func (f *SearchAndFilter) Sort(by domain.SortBy, order domain.SortOrder) error {
	return f.data.SetSort(by, order)
}

func (f *SearchAndFilter) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.unsub != nil {
		f.unsub()
		f.unsub = nil
	}
}
