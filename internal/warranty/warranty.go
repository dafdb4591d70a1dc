// Package warranty computes the eligibility windows that start at a report's
// date: a manufacturing-defect warranty, a short replacement warranty and a
// periodic-maintenance window.
package warranty

import (
	"math"
	"time"
)

type Window string

const (
	ManufacturingDefect Window = "manufacturing_defect"
	Replacement         Window = "replacement"
	PeriodicMaintenance Window = "periodic_maintenance"
)

// Windows lists every window in display order.
var Windows = []Window{ManufacturingDefect, Replacement, PeriodicMaintenance}

type Status struct {
	Active           bool      `json:"active"`
	EndDate          time.Time `json:"end_date"`
	DaysRemaining    int       `json:"days_remaining"`
	PercentRemaining float64   `json:"percent_remaining"`
}

const day = 24 * time.Hour

// End returns the last instant covered by w for a report dated reportDate.
func (w Window) End(reportDate time.Time) time.Time {
	switch w {
	case ManufacturingDefect:
		return reportDate.AddDate(0, 6, 0)
	case Replacement:
		return reportDate.AddDate(0, 0, 14)
	case PeriodicMaintenance:
		return reportDate.AddDate(0, 12, 0)
	default:
		return reportDate
	}
}

// TotalDays is the nominal length of w, counting months as 30 days.
func (w Window) TotalDays() int {
	switch w {
	case ManufacturingDefect:
		return 6 * 30
	case Replacement:
		return 14
	case PeriodicMaintenance:
		return 12 * 30
	default:
		return 0
	}
}

// Calculate reports where now falls inside w.
func Calculate(w Window, reportDate, now time.Time) Status {
	end := w.End(reportDate)
	st := Status{
		Active:  !now.After(end),
		EndDate: end,
	}

	if remaining := end.Sub(now); remaining > 0 {
		st.DaysRemaining = int(math.Ceil(float64(remaining) / float64(day)))
	}

	if total := w.TotalDays(); total > 0 {
		pct := float64(st.DaysRemaining) / float64(total) * 100
		st.PercentRemaining = math.Max(0, math.Min(100, pct))
	}
	return st
}

// All calculates every window for one report date.
func All(reportDate, now time.Time) map[Window]Status {
	out := make(map[Window]Status, len(Windows))
	for _, w := range Windows {
		out[w] = Calculate(w, reportDate, now)
	}
	return out
}
