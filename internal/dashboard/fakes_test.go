package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CaioWing/repairdesk/internal/apiclient"
	"github.com/CaioWing/repairdesk/internal/domain"
	"github.com/CaioWing/repairdesk/internal/events"
)

var errNetwork = errors.New("network unreachable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Fake API ---

type fakeAPI struct {
	mu           sync.Mutex
	reports      []domain.Report
	invoices     []domain.Invoice
	reportsErr   error
	invoicesErr  error
	pingErr      error
	reportCalls  int
	invoiceCalls int
	// reportsHook, when set, replaces the canned report response.
	reportsHook func(ctx context.Context, call int) ([]domain.Report, error)
}

func (f *fakeAPI) GetClientReports(ctx context.Context) (*apiclient.Envelope[domain.Report], error) {
	f.mu.Lock()
	f.reportCalls++
	call := f.reportCalls
	hook := f.reportsHook
	reports, err := f.reports, f.reportsErr
	f.mu.Unlock()

	if hook != nil {
		reports, err = hook(ctx, call)
	}
	if err != nil {
		return nil, err
	}
	return &apiclient.Envelope[domain.Report]{Success: true, Data: reports}, nil
}

func (f *fakeAPI) GetClientInvoices(context.Context) (*apiclient.Envelope[domain.Invoice], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoiceCalls++
	if f.invoicesErr != nil {
		return nil, f.invoicesErr
	}
	return &apiclient.Envelope[domain.Invoice]{Success: true, Data: f.invoices}, nil
}

func (f *fakeAPI) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeAPI) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reportCalls, f.invoiceCalls
}

// --- Fake session ---

type fakeSession bool

func (s fakeSession) IsClientLoggedIn() bool { return bool(s) }

// --- Recording renderer ---

type recordingRenderer struct {
	mu      sync.Mutex
	shown   []Toast
	hidden  []string
	removed []string
	stats   []Stats
	filters []FilterView
}

func (r *recordingRenderer) ShowToast(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, t)
}

func (r *recordingRenderer) HideToast(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden = append(r.hidden, id)
}

func (r *recordingRenderer) RemoveToast(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
}

func (r *recordingRenderer) RenderStats(s Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func (r *recordingRenderer) RenderFilter(v FilterView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, v)
}

func (r *recordingRenderer) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.shown))
	for _, t := range r.shown {
		out = append(out, t.Message)
	}
	return out
}

// --- Event recorder ---

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func recordEvents(bus *events.Bus, kinds ...events.Kind) *eventLog {
	l := &eventLog{}
	for _, k := range kinds {
		bus.On(k, func(e events.Event) {
			l.mu.Lock()
			l.events = append(l.events, e)
			l.mu.Unlock()
		})
	}
	return l
}

func (l *eventLog) dataErrors(scope events.ErrorScope) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if de, ok := e.(events.DataErr); ok && de.Type == scope {
			n++
		}
	}
	return n
}

func (l *eventLog) count(kind events.Kind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

// --- Fixtures ---

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func report(model, serial, status string, inspected *time.Time, created time.Time) domain.Report {
	return domain.Report{
		ID:             uuid.New(),
		DeviceModel:    model,
		SerialNumber:   serial,
		Status:         status,
		InspectionDate: inspected,
		CreatedAt:      created,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func fiveReports() []domain.Report {
	out := make([]domain.Report, 0, 5)
	for i := 0; i < 5; i++ {
		out = append(out, report("Model", uuid.NewString(), "done", nil, day(2026, time.March, i+1)))
	}
	return out
}
