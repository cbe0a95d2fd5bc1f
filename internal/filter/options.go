package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/juliosaraiva/loghetti/internal/enricher"
)

// ErrInvalidOption is returned for unknown option names and malformed values.
var ErrInvalidOption = errors.New("invalid option")

type valueKind int

const (
	stringValue valueKind = iota
	intValue
	queryValue
)

// Option describes one filter option understood by Config.Apply.
type Option struct {
	Name  string
	Usage string

	field  string
	kind   valueKind
	enable func(*enricher.Flags)
}

func needsDate(f *enricher.Flags)  { f.Date = true }
func needsURL(f *enricher.Flags)   { f.URL = true }
func needsQuery(f *enricher.Flags) { f.Query = true }
func needsAgent(f *enricher.Flags) { f.Agent = true }
func needsGeo(f *enricher.Flags)   { f.Geo = true }

// Options lists every filter option in display order.
var Options = []Option{
	{Name: "code", field: "status", Usage: "HTTP response code (200, 404, 500, ...)"},
	{Name: "ip", field: "ip", Usage: "client IP address"},
	{Name: "method", field: "method", Usage: "HTTP method (GET, POST, ...)"},
	{Name: "year", field: "year", kind: intValue, enable: needsDate, Usage: "four-digit year"},
	{Name: "month", field: "month", kind: intValue, enable: needsDate, Usage: "month number (1-12)"},
	{Name: "day", field: "day", kind: intValue, enable: needsDate, Usage: "day of month (1-31)"},
	{Name: "hour", field: "hour", kind: intValue, enable: needsDate, Usage: "hour (0-23)"},
	{Name: "minute", field: "minute", kind: intValue, enable: needsDate, Usage: "minute (0-59)"},
	{Name: "second", field: "second", kind: intValue, enable: needsDate, Usage: "second (0-59)"},
	{Name: "urlbase", field: "urlbase", enable: needsURL, Usage: "first path segment, e.g. file.php for /file.php?foo=bar"},
	{Name: "urldata", kind: queryValue, enable: needsQuery, Usage: "query parameter as key:value"},
	{Name: "browser", field: "browser", enable: needsAgent, Usage: "browser name from the user agent"},
	{Name: "os", field: "os", enable: needsAgent, Usage: "operating system from the user agent"},
	{Name: "device", field: "device", enable: needsAgent, Usage: "device class: desktop, mobile, tablet or bot"},
	{Name: "country", field: "country", enable: needsGeo, Usage: "ISO country code of the client (needs a GeoIP database)"},
}

var optionsByName = func() map[string]Option {
	m := make(map[string]Option, len(Options))
	for _, o := range Options {
		m[o.Name] = o
	}
	return m
}()

// Apply adds the predicate for a named option and turns on the enrichment
// it depends on.
func (c *Config) Apply(name, value string) error {
	opt, ok := optionsByName[name]
	if !ok {
		return fmt.Errorf("%w: unknown option %q", ErrInvalidOption, name)
	}

	switch opt.kind {
	case intValue:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: --%s wants an integer, got %q", ErrInvalidOption, name, value)
		}
		c.Add(FieldPredicate{Field: opt.field, Value: n})

	case queryValue:
		key, val, ok := strings.Cut(value, ":")
		if !ok || key == "" || strings.Contains(val, ":") {
			return fmt.Errorf("%w: --%s wants key:value, got %q", ErrInvalidOption, name, value)
		}
		c.Add(QueryPredicate{Key: key, Value: val})

	default:
		c.Add(FieldPredicate{Field: opt.field, Value: value})
	}

	if opt.enable != nil {
		opt.enable(&c.Flags)
	}
	return nil
}

// EnableAll turns on date, url and query enrichment regardless of the
// predicates, so every derived field is available to the output.
func (c *Config) EnableAll() {
	needsDate(&c.Flags)
	needsURL(&c.Flags)
	needsQuery(&c.Flags)
}

// fieldGroups maps derived output fields to the enrichment that sets them.
var fieldGroups = map[string]func(*enricher.Flags){
	"year": needsDate, "month": needsDate, "day": needsDate,
	"hour": needsDate, "minute": needsDate, "second": needsDate,
	"urlbase": needsURL,
	"browser": needsAgent, "os": needsAgent, "device": needsAgent,
	"country": needsGeo,
}

// Require turns on the enrichment needed to output the named fields.
// It adds no predicates.
func (c *Config) Require(fields ...string) {
	for _, f := range fields {
		if enable, ok := fieldGroups[f]; ok {
			enable(&c.Flags)
		}
	}
}
