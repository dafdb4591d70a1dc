package domain

import "time"

type SortBy string

const (
	SortByDate   SortBy = "date"
	SortByStatus SortBy = "status"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Tabs the client dashboard knows how to show.
const (
	TabReports  = "reports"
	TabInvoices = "invoices"
	TabWarranty = "warranty"
)

// DashboardState is the single mutable snapshot behind the client dashboard.
// FilteredReports and FilteredInvoices are derived from Reports, Invoices,
// SearchTerm, SortBy and SortOrder and are only written by a filter pass.
type DashboardState struct {
	Reports          []Report
	Invoices         []Invoice
	FilteredReports  []Report
	FilteredInvoices []Invoice
	SearchTerm       string
	SortBy           SortBy
	SortOrder        SortOrder
	IsLoading        bool
	IsOffline        bool
	LastUpdated      *time.Time
	ActiveTab        string
}

// NewDashboardState returns the state a fresh dashboard starts from.
func NewDashboardState() DashboardState {
	return DashboardState{
		Reports:          []Report{},
		Invoices:         []Invoice{},
		FilteredReports:  []Report{},
		FilteredInvoices: []Invoice{},
		SortBy:           SortByDate,
		SortOrder:        SortDesc,
		ActiveTab:        TabReports,
	}
}

// Clone copies the slices so a snapshot can be handed out without aliasing.
func (s DashboardState) Clone() DashboardState {
	out := s
	out.Reports = append([]Report(nil), s.Reports...)
	out.Invoices = append([]Invoice(nil), s.Invoices...)
	out.FilteredReports = append([]Report(nil), s.FilteredReports...)
	out.FilteredInvoices = append([]Invoice(nil), s.FilteredInvoices...)
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

type NotificationType string

const (
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// NotificationItem is one queued toast.
type NotificationItem struct {
	ID       string
	Message  string
	Type     NotificationType
	Duration time.Duration
}
