// Package report prints the engagements-per-type-per-day summary.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/TheF1rstPancake/hubspot/internal/storage"
)

// Row is one line of the summary.
type Row struct {
	Type string
	// Day is the calendar day of createdAt as YYYY-MM-DD.
	Day   string
	Count int64
}

// String renders r as a tuple, e.g. ('CALL', '2019-05-01', 2).
func (r Row) String() string {
	return fmt.Sprintf("(%s, %s, %d)", quote(r.Type), quote(r.Day), r.Count)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// Run executes the dialect's aggregate over table, writes one line per row
// to w in query order (type, then day ascending) and returns the rows.
func Run(ctx context.Context, db *storage.DB, table string, w io.Writer) ([]Row, error) {
	query := db.Dialect().ReportSQL(table)
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "report query on %s", table)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			typ sql.NullString
			day any
			n   int64
		)
		if err := rows.Scan(&typ, &day, &n); err != nil {
			return nil, errors.Wrap(err, "scan report row")
		}
		r := Row{Type: typ.String, Day: formatDay(day), Count: n}
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return nil, errors.Wrap(err, "write report")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate report rows")
	}
	return out, nil
}

// formatDay normalises the day column, which drivers return as time.Time,
// []byte or string depending on the backend.
func formatDay(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.Format(time.DateOnly)
	case []byte:
		return dayPrefix(string(d))
	case string:
		return dayPrefix(d)
	}
	return fmt.Sprint(v)
}

func dayPrefix(s string) string {
	if len(s) > len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
			return s[:len(time.DateOnly)]
		}
	}
	return s
}
