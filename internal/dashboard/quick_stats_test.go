package dashboard

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/state"
)

func TestComputeStats(t *testing.T) {
	now := day(2026, time.June, 15)
	reports := []domain.Report{
		// 2 days into every window, replacement ends in 12 days
		report("fresh", "1", "done", timePtr(now.AddDate(0, 0, -2)), now.AddDate(0, 0, -3)),
		// replacement window ends in 2 days
		report("expiring", "2", "done", nil, now.AddDate(0, 0, -12)),
		// only maintenance is still running
		report("old", "3", "done", nil, now.AddDate(0, -8, 0)),
		// nothing is running
		report("ancient", "4", "done", nil, now.AddDate(-2, 0, 0)),
	}
	invoices := []domain.Invoice{
		{Total: decimal.RequireFromString("100"), PaidAmount: decimal.RequireFromString("40")},
		{Total: decimal.RequireFromString("50.5"), PaidAmount: decimal.RequireFromString("60")},
	}

	st := ComputeStats(reports, invoices, now)

	assert.Equal(t, 4, st.TotalReports)
	assert.Equal(t, 2, st.TotalInvoices)
	assert.Equal(t, 2, st.ActiveDefectWarranty)
	assert.Equal(t, 2, st.ActiveReplacementWarranty)
	assert.Equal(t, 3, st.ActiveMaintenance)
	assert.Equal(t, 1, st.ExpiringSoon)
	assert.True(t, decimal.RequireFromString("150.5").Equal(st.TotalBilled))
	assert.True(t, decimal.RequireFromString("100").Equal(st.TotalPaid))
	assert.True(t, decimal.RequireFromString("60").Equal(st.Outstanding))
}

func TestQuickStats_RendersOnStateChange(t *testing.T) {
	store := state.NewStore()
	r := &recordingRenderer{}
	now := day(2026, time.June, 15)
	q := NewQuickStats(store, r, func() time.Time { return now })

	q.Init()
	require.Len(t, r.stats, 1)
	assert.Zero(t, q.Stats().TotalReports)

	store.Update(func(s *domain.DashboardState) {
		s.Reports = []domain.Report{report("x", "1", "done", nil, now)}
	})
	require.Len(t, r.stats, 2)
	assert.Equal(t, 1, q.Stats().TotalReports)

	q.Destroy()
	store.Update(func(s *domain.DashboardState) { s.Reports = nil })
	assert.Len(t, r.stats, 2)
}
