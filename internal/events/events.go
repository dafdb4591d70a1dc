// Package events is the in-process publish/subscribe bus that connects the
// dashboard components. Event kinds are a closed set and every kind carries
// its own payload type.
package events

import (
	"time"

	"github.com/CaioWing/repairdesk/internal/domain"
)

type Kind int

const (
	DataLoadingStart Kind = iota + 1
	DataLoaded
	DataLoadedCache
	DataFiltered
	DataError
	DataCached
	NotificationShow
	DashboardInitialized
	DashboardError
	ConnectivityChanged
	TabChanged
)

var kindNames = map[Kind]string{
	DataLoadingStart:     "data:loading:start",
	DataLoaded:           "data:loaded",
	DataLoadedCache:      "data:loaded:cache",
	DataFiltered:         "data:filtered",
	DataError:            "data:error",
	DataCached:           "data:cached",
	NotificationShow:     "notification:show",
	DashboardInitialized: "dashboard:initialized",
	DashboardError:       "dashboard:error",
	ConnectivityChanged:  "connectivity:changed",
	TabChanged:           "tab:changed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is implemented by every payload type below.
type Event interface {
	Kind() Kind
}

type LoadingStarted struct {
	Generation uint64
}

type Loaded struct {
	Generation uint64
	Reports    int
	Invoices   int
}

type LoadedFromCache struct {
	Reports  int
	Invoices int
}

type Filtered struct {
	Reports  int
	Invoices int
}

// ErrorScope tells which part of a load failed.
type ErrorScope string

const (
	ScopeGeneral  ErrorScope = "general"
	ScopeInvoices ErrorScope = "invoices"
	ScopeCache    ErrorScope = "cache"
)

type DataErr struct {
	Type ErrorScope
	Err  error
}

type Cached struct {
	Reports  int
	Invoices int
}

type ShowNotification struct {
	Message  string
	Type     domain.NotificationType
	Duration time.Duration
}

type Initialized struct{}

type InitFailed struct {
	Err error
}

type Connectivity struct {
	Online bool
}

type TabSwitched struct {
	Tab string
}

func (LoadingStarted) Kind() Kind   { return DataLoadingStart }
func (Loaded) Kind() Kind           { return DataLoaded }
func (LoadedFromCache) Kind() Kind  { return DataLoadedCache }
func (Filtered) Kind() Kind         { return DataFiltered }
func (DataErr) Kind() Kind          { return DataError }
func (Cached) Kind() Kind           { return DataCached }
func (ShowNotification) Kind() Kind { return NotificationShow }
func (Initialized) Kind() Kind      { return DashboardInitialized }
func (InitFailed) Kind() Kind       { return DashboardError }
func (Connectivity) Kind() Kind     { return ConnectivityChanged }
func (TabSwitched) Kind() Kind      { return TabChanged }
