package emitter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// DefaultTable is the table name used by the sql sink when none is given.
const DefaultTable = "access_log"

var sqlColumns = []string{
	"ip", "ident", "user", "month", "day", "year", "hour",
	"method", "url", "protocol", "referrer", "agent",
}

// SQLSink prints one INSERT statement per record. Date columns are NULL
// unless date enrichment ran.
type SQLSink struct {
	w      *bufio.Writer
	prefix string
}

// NewSQL creates an SQLSink inserting into table.
func NewSQL(w io.Writer, table string) *SQLSink {
	if table == "" {
		table = DefaultTable
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES (", table, strings.Join(sqlColumns, ", "))
	return &SQLSink{w: bufio.NewWriter(w), prefix: prefix}
}

// Handle prints one INSERT statement for the record.
func (s *SQLSink) Handle(rec *parser.Record) error {
	values := make([]string, len(sqlColumns))
	for i, col := range sqlColumns {
		v, ok := rec.Field(col)
		switch {
		case !ok:
			values[i] = "NULL"
		case isInt(v):
			values[i] = strconv.Itoa(v.(int))
		default:
			values[i] = quoteSQL(fmt.Sprint(v))
		}
	}
	_, err := fmt.Fprintf(s.w, "%s%s);\n", s.prefix, strings.Join(values, ", "))
	return err
}

// Close flushes buffered output.
func (s *SQLSink) Close() error {
	return s.w.Flush()
}

func isInt(v any) bool {
	_, ok := v.(int)
	return ok
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
