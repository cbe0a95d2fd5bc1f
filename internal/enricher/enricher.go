// Package enricher derives optional fields from parsed access log records.
//
// Each group of derived fields is computed only when requested and at most
// once per record. Groups are computed in a fixed order: date, url, query,
// agent, geo.
package enricher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// ErrBadTimestamp is returned when date enrichment cannot parse a record's
// timestamp. Callers treat it as fatal.
var ErrBadTimestamp = errors.New("unparsable timestamp")

// timeLayout is day/monthName/year:hour:minute:second; the day may be one or
// two digits.
const timeLayout = "2/Jan/2006:15:04:05"

// CountryResolver maps a client IP to an ISO country code.
type CountryResolver interface {
	Country(ip string) (string, bool)
}

// Flags selects which groups Enrich computes.
type Flags struct {
	Date  bool
	URL   bool
	Query bool
	Agent bool
	Geo   bool

	// GeoIP is required when Geo is set.
	GeoIP CountryResolver
}

// Any reports whether at least one group is requested.
func (f Flags) Any() bool {
	return f.Date || f.URL || f.Query || f.Agent || f.Geo
}

// Enrich computes the requested groups on rec in place. The only error is a
// timestamp that does not parse while Date is set.
func Enrich(rec *parser.Record, flags Flags) error {
	if flags.Date && !rec.Has(parser.GroupDate) {
		if err := enrichDate(rec); err != nil {
			return err
		}
	}
	if flags.URL && !rec.Has(parser.GroupURL) {
		rec.URLBase = URLBase(rec.URL)
		rec.Derived |= parser.GroupURL
	}
	if flags.Query && !rec.Has(parser.GroupQuery) {
		rec.Query = QueryParams(rec.URL)
		rec.Derived |= parser.GroupQuery
	}
	if flags.Agent && !rec.Has(parser.GroupAgent) {
		enrichAgent(rec)
	}
	if flags.Geo && !rec.Has(parser.GroupGeo) {
		if flags.GeoIP != nil {
			rec.Country, _ = flags.GeoIP.Country(rec.IP)
		}
		rec.Derived |= parser.GroupGeo
	}
	return nil
}

func enrichDate(rec *parser.Record) error {
	stamp, _, _ := strings.Cut(rec.Time, " ")
	t, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return fmt.Errorf("%w %q in line %q: %v", ErrBadTimestamp, rec.Time, rec.Raw, err)
	}

	rec.Year = t.Year()
	rec.Month = int(t.Month())
	rec.Day = t.Day()
	rec.Hour = t.Hour()
	rec.Minute = t.Minute()
	rec.Second = t.Second()
	rec.Derived |= parser.GroupDate
	return nil
}

// splitURL separates a request target into its still-escaped path and raw
// query. Targets that net/url rejects fall back to a plain split on the first
// '?'.
func splitURL(target string) (path, rawQuery string) {
	if u, err := url.Parse(target); err == nil {
		return u.EscapedPath(), u.RawQuery
	}
	path, rawQuery, _ = strings.Cut(target, "?")
	return path, rawQuery
}

// URLBase returns the first segment of the request path with surrounding
// '?' and '/' removed: "/a/b.gif?x=1" gives "a", "/file.php?foo=bar" gives
// "file.php" and "/" gives "".
func URLBase(target string) string {
	path, _ := splitURL(target)

	base := path
	if strings.HasPrefix(path, "/") {
		if i := strings.IndexAny(path[1:], "?/"); i >= 0 {
			base = path[:i+2]
		}
	}
	return strings.Trim(base, "?/")
}

// QueryParams decodes the query string of a request target. Pairs may be
// separated by '&' or ';'. Blank values and pairs that fail to decode are
// dropped, so a key is either absent or maps to at least one value, in order
// of appearance.
func QueryParams(target string) url.Values {
	_, rawQuery := splitURL(target)

	// ParseQuery keeps every pair it could decode alongside the first error.
	parsed, _ := url.ParseQuery(strings.ReplaceAll(rawQuery, ";", "&"))

	params := make(url.Values, len(parsed))
	for key, values := range parsed {
		for _, v := range values {
			if v != "" {
				params[key] = append(params[key], v)
			}
		}
	}
	return params
}

func enrichAgent(rec *parser.Record) {
	ua := useragent.Parse(rec.UserAgent)

	rec.Browser = ua.Name
	rec.OS = ua.OS
	switch {
	case ua.Bot:
		rec.Device = "bot"
	case ua.Tablet:
		rec.Device = "tablet"
	case ua.Mobile:
		rec.Device = "mobile"
	case ua.Desktop:
		rec.Device = "desktop"
	default:
		rec.Device = ""
	}
	rec.Derived |= parser.GroupAgent
}
