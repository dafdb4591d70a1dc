package middleware

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

type requestKey struct {
	method string
	status int
}

type routeKey struct {
	method string
	route  string
}

type durationSummary struct {
	sum   float64
	count int64
}

// Metrics counts requests and their latency per route and serves them in
// the Prometheus text format.
type Metrics struct {
	prefix string
	active atomic.Int64

	mu        sync.Mutex
	requests  map[requestKey]int64
	durations map[routeKey]*durationSummary
}

func NewMetrics(prefix string) *Metrics {
	return &Metrics{
		prefix:    prefix,
		requests:  make(map[requestKey]int64),
		durations: make(map[routeKey]*durationSummary),
	}
}

func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.active.Add(1)
			defer m.active.Add(-1)

			rw := wrap(w)
			next.ServeHTTP(rw, r)

			route := routePattern(r)
			elapsed := time.Since(start).Seconds()

			m.mu.Lock()
			m.requests[requestKey{r.Method, rw.status}]++
			d, ok := m.durations[routeKey{r.Method, route}]
			if !ok {
				d = &durationSummary{}
				m.durations[routeKey{r.Method, route}] = d
			}
			d.sum += elapsed
			d.count++
			m.mu.Unlock()
		})
	}
}

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		p := m.prefix

		fmt.Fprintf(w, "# HELP %s_http_active_requests Number of active HTTP requests.\n", p)
		fmt.Fprintf(w, "# TYPE %s_http_active_requests gauge\n", p)
		fmt.Fprintf(w, "%s_http_active_requests %d\n\n", p, m.active.Load())

		m.mu.Lock()
		reqKeys := make([]requestKey, 0, len(m.requests))
		for k := range m.requests {
			reqKeys = append(reqKeys, k)
		}
		routeKeys := make([]routeKey, 0, len(m.durations))
		for k := range m.durations {
			routeKeys = append(routeKeys, k)
		}
		m.mu.Unlock()

		sort.Slice(reqKeys, func(i, j int) bool {
			if reqKeys[i].method != reqKeys[j].method {
				return reqKeys[i].method < reqKeys[j].method
			}
			return reqKeys[i].status < reqKeys[j].status
		})
		sort.Slice(routeKeys, func(i, j int) bool {
			if routeKeys[i].route != routeKeys[j].route {
				return routeKeys[i].route < routeKeys[j].route
			}
			return routeKeys[i].method < routeKeys[j].method
		})

		fmt.Fprintf(w, "# HELP %s_http_requests_total Total number of HTTP requests.\n", p)
		fmt.Fprintf(w, "# TYPE %s_http_requests_total counter\n", p)
		for _, k := range reqKeys {
			m.mu.Lock()
			n := m.requests[k]
			m.mu.Unlock()
			fmt.Fprintf(w, "%s_http_requests_total{method=%q,status=%q} %d\n", p, k.method, strconv.Itoa(k.status), n)
		}

		fmt.Fprintf(w, "\n# HELP %s_http_request_duration_seconds HTTP request duration in seconds.\n", p)
		fmt.Fprintf(w, "# TYPE %s_http_request_duration_seconds summary\n", p)
		for _, k := range routeKeys {
			m.mu.Lock()
			d := *m.durations[k]
			m.mu.Unlock()
			fmt.Fprintf(w, "%s_http_request_duration_seconds_sum{method=%q,route=%q} %.6f\n", p, k.method, k.route, d.sum)
			fmt.Fprintf(w, "%s_http_request_duration_seconds_count{method=%q,route=%q} %d\n", p, k.method, k.route, d.count)
		}
	}
}

// routePattern prefers the matched chi pattern so ids do not explode the
// label set; unmatched paths are grouped together.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
