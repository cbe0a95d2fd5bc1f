package parser

import (
	"regexp"
	"strings"
)

// CombinedParser handles the Apache/Nginx Combined Log Format.
// Example: 127.0.0.1 - frank [10/Oct/2000:13:55:36 -0700] "GET /apache_pb.gif HTTP/1.0" 200 2326 "http://www.example.com/start.html" "Mozilla/4.08 [en] (Win98; I ;Nav)"
type CombinedParser struct {
	pattern *regexp.Regexp
}

var combinedPattern = regexp.MustCompile(
	`^(\d+\.\d+\.\d+\.\d+) ` + // IPv4 client address
		`([^ ]*) ` + // ident
		`([^ ]*) ` + // auth user
		`\[([^\]]*)\] ` + // timestamp in brackets
		`"([^"]*)" ` + // request line
		`(\d+) ` + // status code
		`([^ ]*) ` + // response size (or -)
		`"([^"]*)" ` + // referrer
		`"([^"]*)"`, // user agent
)

// NewCombinedParser creates a combined log format parser.
func NewCombinedParser() *CombinedParser {
	return &CombinedParser{pattern: combinedPattern}
}

// Parse extracts the nine combined-format fields and splits the request line
// into method, URL and protocol. It performs no semantic validation.
func (p *CombinedParser) Parse(line string) (*Record, error) {
	m := p.pattern.FindStringSubmatch(line)
	if m == nil {
		return nil, &LineError{Line: line, Err: ErrNoMatch}
	}

	request := strings.Fields(m[5])
	if len(request) != 3 {
		return nil, &LineError{Line: line, Err: ErrMalformedRequest}
	}

	return &Record{
		IP:        m[1],
		Ident:     m[2],
		User:      m[3],
		Time:      m[4],
		Request:   m[5],
		Status:    m[6],
		Size:      m[7],
		Referrer:  m[8],
		UserAgent: m[9],
		Method:    request[0],
		URL:       request[1],
		Protocol:  request[2],
		Raw:       line,
	}, nil
}

var defaultParser = NewCombinedParser()

// Parse parses a line with the default combined parser.
func Parse(line string) (*Record, error) {
	return defaultParser.Parse(line)
}
