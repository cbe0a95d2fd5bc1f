// Package parser turns combined-format access log lines into records.
package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Common errors returned by parsers.
var (
	ErrNoMatch          = errors.New("line does not match combined log format")
	ErrMalformedRequest = errors.New("request line does not have exactly three fields")
)

// LineError reports a line that could not be parsed. It keeps the raw text
// so callers can surface it in diagnostics.
type LineError struct {
	Line string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

func (e *LineError) Unwrap() error { return e.Err }

// Parser converts one raw line into a Record.
type Parser interface {
	Parse(line string) (*Record, error)
}

// Group identifies a set of derived fields that is computed on demand.
type Group uint8

const (
	GroupDate Group = 1 << iota
	GroupURL
	GroupQuery
	GroupAgent
	GroupGeo
)

// Record is one parsed access log entry.
//
// The fields up to Protocol are always set by Parse. The remaining fields
// belong to a Group and are only meaningful once that group is marked in
// Derived.
type Record struct {
	IP        string
	Ident     string
	User      string
	Time      string // raw timestamp, e.g. 10/Oct/2000:13:55:36 -0700
	Request   string
	Status    string
	Size      string
	Referrer  string
	UserAgent string

	// Split from Request.
	Method   string
	URL      string
	Protocol string

	Year, Month, Day     int
	Hour, Minute, Second int

	URLBase string
	Query   url.Values

	Browser string
	OS      string
	Device  string

	Country string

	// Derived records which optional groups have been computed.
	Derived Group

	// Raw holds the original line.
	Raw string
}

// Has reports whether the given group of derived fields is present.
func (r *Record) Has(g Group) bool {
	return r.Derived&g == g
}

// FieldNames lists every name accepted by Field, in display order.
var FieldNames = []string{
	"ip", "ident", "user", "time", "request", "status", "size", "referrer", "agent",
	"method", "url", "protocol",
	"year", "month", "day", "hour", "minute", "second",
	"urlbase",
	"browser", "os", "device",
	"country",
}

// Field returns the value of a named field. Date parts are ints, everything
// else is a string. ok is false for unknown names and for derived fields whose
// group has not been computed.
func (r *Record) Field(name string) (value any, ok bool) {
	switch name {
	case "ip":
		return r.IP, true
	case "ident":
		return r.Ident, true
	case "user":
		return r.User, true
	case "time":
		return r.Time, true
	case "request":
		return r.Request, true
	case "status":
		return r.Status, true
	case "size":
		return r.Size, true
	case "referrer":
		return r.Referrer, true
	case "agent":
		return r.UserAgent, true
	case "method":
		return r.Method, true
	case "url":
		return r.URL, true
	case "protocol":
		return r.Protocol, true
	}

	switch name {
	case "year", "month", "day", "hour", "minute", "second":
		if !r.Has(GroupDate) {
			return nil, false
		}
		switch name {
		case "year":
			return r.Year, true
		case "month":
			return r.Month, true
		case "day":
			return r.Day, true
		case "hour":
			return r.Hour, true
		case "minute":
			return r.Minute, true
		default:
			return r.Second, true
		}
	case "urlbase":
		if !r.Has(GroupURL) {
			return nil, false
		}
		return r.URLBase, true
	case "browser", "os", "device":
		if !r.Has(GroupAgent) {
			return nil, false
		}
		switch name {
		case "browser":
			return r.Browser, true
		case "os":
			return r.OS, true
		default:
			return r.Device, true
		}
	case "country":
		if !r.Has(GroupGeo) || r.Country == "" {
			return nil, false
		}
		return r.Country, true
	}

	return nil, false
}

// Fields returns every present field keyed by name.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(FieldNames))
	for _, name := range FieldNames {
		if v, ok := r.Field(name); ok {
			out[name] = v
		}
	}
	return out
}

// String renders the entry the way it is printed by default.
func (r *Record) String() string {
	return strings.Join([]string{
		r.IP, r.Ident, r.Time, r.Request, r.Status, r.Size, r.Referrer, r.UserAgent,
	}, " ")
}
