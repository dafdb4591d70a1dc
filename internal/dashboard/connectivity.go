package dashboard

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/CaioWing/repairdesk/internal/events"
)

// Pinger answers whether the API is reachable. *apiclient.Client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityMonitor polls the API and emits ConnectivityChanged whenever
// reachability flips. It starts out assuming the API is online.
type ConnectivityMonitor struct {
	pinger   Pinger
	bus      *events.Bus
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	offline  atomic.Bool
}

func NewConnectivityMonitor(pinger Pinger, bus *events.Bus, interval, timeout time.Duration, log *slog.Logger) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		pinger:   pinger,
		bus:      bus,
		interval: interval,
		timeout:  timeout,
		log:      log,
	}
}

func (m *ConnectivityMonitor) Online() bool {
	return !m.offline.Load()
}

// Check pings once and returns the resulting online state.
func (m *ConnectivityMonitor) Check(ctx context.Context) bool {
	if m.pinger == nil {
		return true
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	online := m.pinger.Ping(ctx) == nil
	if wasOffline := m.offline.Swap(!online); wasOffline == online {
		m.log.Info("connectivity changed", "online", online)
		m.bus.Emit(events.Connectivity{Online: online})
	}
	return online
}

// Run checks every interval until ctx is done.
func (m *ConnectivityMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
