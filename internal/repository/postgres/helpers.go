package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const maxPerPage = 500

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "unique constraint")
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func orderDirection(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}

// filter accumulates AND-ed conditions with numbered placeholders.
type filter struct {
	conds []string
	args  []interface{}
}

// add appends cond, with every "?" replaced by the next placeholder bound to
// arg.
func (f *filter) add(cond string, arg interface{}) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(f.args))))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders and returns them with the full
// argument list.
func (f *filter) page(page, perPage int) (string, []interface{}) {
	n := len(f.args)
	args := append(append([]interface{}{}, f.args...), perPage, (page-1)*perPage)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n+1, n+2), args
}
