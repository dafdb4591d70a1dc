package dashboard

import (
	"sort"
	"strings"

	"github.com/CaioWing/repairdesk/internal/domain"
)

// FilterReports returns the reports matching term, ordered by sortBy/order.
// The input slice is not modified.
func FilterReports(reports []domain.Report, term string, sortBy domain.SortBy, order domain.SortOrder) []domain.Report {
	needle := strings.ToLower(term)
	out := make([]domain.Report, 0, len(reports))
	for _, r := range reports {
		if needle == "" || reportMatches(r, needle) {
			out = append(out, r)
		}
	}

	desc := order == domain.SortDesc
	switch sortBy {
	case domain.SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].EffectiveDate(), out[j].EffectiveDate()
			if desc {
				return a.After(b)
			}
			return a.Before(b)
		})
	case domain.SortByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := strings.ToLower(out[i].Status), strings.ToLower(out[j].Status)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return out
}

// FilterInvoices is FilterReports for invoices.
func FilterInvoices(invoices []domain.Invoice, term string, sortBy domain.SortBy, order domain.SortOrder) []domain.Invoice {
	needle := strings.ToLower(term)
	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if needle == "" || invoiceMatches(inv, needle) {
			out = append(out, inv)
		}
	}

	desc := order == domain.SortDesc
	switch sortBy {
	case domain.SortByDate:
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].Date.Before(out[j].Date)
		})
	case domain.SortByStatus:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := string(out[i].Status), string(out[j].Status)
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return out
}

func reportMatches(r domain.Report, needle string) bool {
	for _, field := range []string{r.DeviceModel, r.SerialNumber, r.Status, r.Notes} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func invoiceMatches(inv domain.Invoice, needle string) bool {
	return strings.Contains(strings.ToLower(inv.ID.String()), needle) ||
		strings.Contains(strings.ToLower(inv.PaymentMethod), needle)
}

// applyFilterPass recomputes the derived slices in place.
func applyFilterPass(s *domain.DashboardState) {
	s.FilteredReports = FilterReports(s.Reports, s.SearchTerm, s.SortBy, s.SortOrder)
	s.FilteredInvoices = FilterInvoices(s.Invoices, s.SearchTerm, s.SortBy, s.SortOrder)
}

func validSort(by domain.SortBy, order domain.SortOrder) bool {
	return (by == domain.SortByDate || by == domain.SortByStatus) &&
		(order == domain.SortAsc || order == domain.SortDesc)
}
