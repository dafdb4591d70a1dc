package dashboard

import "github.com/CaioWing/repairdesk/internal/domain"

// Toast is a notification that has been given a slot on screen.
type Toast struct {
	domain.NotificationItem
	// Offset is the stacking position, 0 for the topmost toast.
	Offset int
}

// ToastRenderer draws notifications. Calls are serialized by the
// NotificationManager; implementations must not call back into it.
type ToastRenderer interface {
	ShowToast(t Toast)
	HideToast(id string)
	RemoveToast(id string)
}

type StatsRenderer interface {
	RenderStats(s Stats)
}

// FilterView is what the search bar shows.
type FilterView struct {
	SearchTerm    string
	SortBy        domain.SortBy
	SortOrder     domain.SortOrder
	ShownReports  int
	TotalReports  int
	ShownInvoices int
	TotalInvoices int
	IsLoading     bool
	IsOffline     bool
}

type FilterRenderer interface {
	RenderFilter(v FilterView)
}

// NopRenderer discards everything.
type NopRenderer struct{}

func (NopRenderer) ShowToast(Toast)         {}
func (NopRenderer) HideToast(string)        {}
func (NopRenderer) RemoveToast(string)      {}
func (NopRenderer) RenderStats(Stats)       {}
func (NopRenderer) RenderFilter(FilterView) {}
