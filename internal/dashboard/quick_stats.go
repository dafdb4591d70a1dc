package dashboard

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/state"
	"github.com/CaioWing/repairdesk/internal/warranty"
)

// expiringSoonDays marks replacement warranties close to their end.
const expiringSoonDays = 3

type Stats struct {
	TotalReports              int
	TotalInvoices             int
	ActiveDefectWarranty      int
	ActiveReplacementWarranty int
	ActiveMaintenance         int
	ExpiringSoon              int
	TotalBilled               decimal.Decimal
	TotalPaid                 decimal.Decimal
	Outstanding               decimal.Decimal
	LastUpdated               *time.Time
}

// ComputeStats tallies counts, warranty windows and invoice totals.
func ComputeStats(reports []domain.Report, invoices []domain.Invoice, now time.Time) Stats {
	st := Stats{
		TotalReports:  len(reports),
		TotalInvoices: len(invoices),
		TotalBilled:   decimal.Zero,
		TotalPaid:     decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for _, r := range reports {
		windows := warranty.All(r.EffectiveDate(), now)
		if windows[warranty.ManufacturingDefect].Active {
			st.ActiveDefectWarranty++
		}
		if rep := windows[warranty.Replacement]; rep.Active {
			st.ActiveReplacementWarranty++
			if rep.DaysRemaining <= expiringSoonDays {
				st.ExpiringSoon++
			}
		}
		if windows[warranty.PeriodicMaintenance].Active {
			st.ActiveMaintenance++
		}
	}

	for _, inv := range invoices {
		st.TotalBilled = st.TotalBilled.Add(inv.Total)
		st.TotalPaid = st.TotalPaid.Add(inv.PaidAmount)
		st.Outstanding = st.Outstanding.Add(inv.Outstanding())
	}
	return st
}

// QuickStats re-renders the summary counters on every state change.
type QuickStats struct {
	store    *state.Store
	renderer StatsRenderer
	now      func() time.Time

	mu    sync.Mutex
	last  Stats
	unsub func()
}

func NewQuickStats(store *state.Store, renderer StatsRenderer, now func() time.Time) *QuickStats {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	if now == nil {
		now = time.Now
	}
	return &QuickStats{store: store, renderer: renderer, now: now}
}

func (q *QuickStats) Init() {
	q.mu.Lock()
	q.unsub = q.store.Subscribe(q.update)
	q.mu.Unlock()
	q.update(q.store.Get())
}

func (q *QuickStats) update(s domain.DashboardState) {
	st := ComputeStats(s.Reports, s.Invoices, q.now())
	st.LastUpdated = s.LastUpdated

	q.mu.Lock()
	q.last = st
	q.mu.Unlock()

	q.renderer.RenderStats(st)
}

// Stats returns the most recently rendered figures.
func (q *QuickStats) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}

func (q *QuickStats) Destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.unsub != nil {
		q.unsub()
		q.unsub = nil
	}
}
