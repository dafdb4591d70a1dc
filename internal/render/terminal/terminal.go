// Package terminal draws dashboard toasts, stats and the filter bar as
// styled lines on a terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/CaioWing/repairdesk/internal/dashboard"
	"github.com/CaioWing/repairdesk/internal/domain"
)

const (
	colorRed     = "#FF5555"
	colorGreen   = "#50FA7B"
	colorYellow  = "#F1FA8C"
	colorCyan    = "#8BE9FD"
	colorPurple  = "#BD93F9"
	colorComment = "#6272A4"
)

type styles struct {
	toast   map[domain.NotificationType]lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	statBox lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	box := func(color string) lipgloss.Style {
		return r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(color)).
			Foreground(lipgloss.Color(color)).
			Padding(0, 1)
	}
	return styles{
		toast: map[domain.NotificationType]lipgloss.Style{
			domain.NotificationError:   box(colorRed).Bold(true),
			domain.NotificationSuccess: box(colorGreen),
			domain.NotificationWarning: box(colorYellow),
			domain.NotificationInfo:    box(colorCyan),
		},
		label: r.NewStyle().Foreground(lipgloss.Color(colorComment)),
		value: r.NewStyle().Foreground(lipgloss.Color(colorPurple)).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		muted: r.NewStyle().Foreground(lipgloss.Color(colorComment)).Italic(true),
		statBox: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(colorPurple)).
			Padding(0, 1),
	}
}

// Renderer implements the dashboard's toast, stats and filter renderers.
// It is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles styles
}

var (
	_ dashboard.ToastRenderer  = (*Renderer)(nil)
	_ dashboard.StatsRenderer  = (*Renderer)(nil)
	_ dashboard.FilterRenderer = (*Renderer)(nil)
)

func New(out io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

func (r *Renderer) ShowToast(t dashboard.Toast) {
	style, ok := r.styles.toast[t.Type]
	if !ok {
		style = r.styles.toast[domain.NotificationInfo]
	}
	box := style.MarginLeft(t.Offset * 2).Render(t.Message)
	r.write(box)
}

func (r *Renderer) HideToast(id string) {
	r.write(r.styles.muted.Render("dismissed " + shortID(id)))
}

// RemoveToast is a no-op: a terminal cannot take lines back.
func (r *Renderer) RemoveToast(string) {}

func (r *Renderer) RenderStats(s dashboard.Stats) {
	cell := func(label string, v any) string {
		return r.styles.label.Render(label+" ") + r.styles.value.Render(fmt.Sprint(v))
	}

	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			cell("reports", s.TotalReports), "   ",
			cell("invoices", s.TotalInvoices),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			cell("defect", s.ActiveDefectWarranty), "   ",
			cell("replacement", s.ActiveReplacementWarranty), "   ",
			cell("maintenance", s.ActiveMaintenance),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			cell("billed", s.TotalBilled.StringFixed(2)), "   ",
			cell("paid", s.TotalPaid.StringFixed(2)), "   ",
			cell("outstanding", s.Outstanding.StringFixed(2)),
		),
	}
	if s.ExpiringSoon > 0 {
		rows = append(rows, r.styles.warn.Render(fmt.Sprintf("%d replacement window(s) closing soon", s.ExpiringSoon)))
	}
	if s.LastUpdated != nil {
		rows = append(rows, r.styles.muted.Render("updated "+s.LastUpdated.Format("2006-01-02 15:04")))
	}

	r.write(r.styles.statBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (r *Renderer) RenderFilter(v dashboard.FilterView) {
	var b strings.Builder
	b.WriteString(r.styles.label.Render("search "))
	if v.SearchTerm == "" {
		b.WriteString(r.styles.muted.Render("(none)"))
	} else {
		b.WriteString(r.styles.value.Render(v.SearchTerm))
	}
	fmt.Fprintf(&b, "  %s %s/%s", r.styles.label.Render("sort"), v.SortBy, v.SortOrder)
	fmt.Fprintf(&b, "  reports %d/%d  invoices %d/%d", v.ShownReports, v.TotalReports, v.ShownInvoices, v.TotalInvoices)
	if v.IsLoading {
		b.WriteString("  " + r.styles.muted.Render("loading..."))
	}
	if v.IsOffline {
		b.WriteString("  " + r.styles.warn.Render("offline"))
	}
	r.write(b.String())
}

func (r *Renderer) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
