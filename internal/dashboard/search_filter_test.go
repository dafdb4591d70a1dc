package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CaioWing/repairdesk/internal/domain"
)

func TestSearchAndFilter_Debounce(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = []domain.Report{
		report("iPhone 13", "1", "done", nil, day(2026, time.January, 1)),
		report("Samsung", "2", "done", nil, day(2026, time.January, 2)),
	}
	f.dm.LoadData(context.Background())

	r := &recordingRenderer{}
	sf := NewSearchAndFilter(f.dm, f.store, r, 20*time.Millisecond)
	sf.Init()
	defer sf.Destroy()

	sf.Search("i")
	sf.Search("iph")
	sf.Search("samsung")
	assert.Equal(t, "", f.store.Get().SearchTerm, "search applies only after the debounce")

	require.Eventually(t, func() bool { return f.store.Get().SearchTerm == "samsung" }, time.Second, 5*time.Millisecond)

	st := f.store.Get()
	require.Len(t, st.FilteredReports, 1)
	assert.Equal(t, "Samsung", st.FilteredReports[0].DeviceModel)

	r.mu.Lock()
	last := r.filters[len(r.filters)-1]
	r.mu.Unlock()
	assert.Equal(t, 1, last.ShownReports)
	assert.Equal(t, 2, last.TotalReports)
}

func TestSearchAndFilter_ImmediateAndClear(t *testing.T) {
	f := newDMFixture(DataManagerOptions{})
	f.api.reports = fiveReports()
	f.dm.LoadData(context.Background())

	sf := NewSearchAndFilter(f.dm, f.store, nil, 0)
	sf.Init()
	defer sf.Destroy()

	sf.Search("no-such-device")
	assert.Empty(t, f.store.Get().FilteredReports)

	sf.ClearSearch()
	assert.Len(t, f.store.Get().FilteredReports, 5)

	require.NoError(t, sf.Sort(domain.SortByDate, domain.SortAsc))
	assert.Equal(t, domain.SortAsc, f.store.Get().SortOrder)
	assert.Error(t, sf.Sort(domain.SortByDate, "sideways"))
}
