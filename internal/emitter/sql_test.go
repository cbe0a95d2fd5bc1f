package emitter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/juliosaraiva/loghetti/internal/enricher"
	"github.com/juliosaraiva/loghetti/internal/parser"
)

func TestSQLSink(t *testing.T) {
	const columns = "INSERT INTO access_log (ip, ident, user, month, day, year, hour, method, url, protocol, referrer, agent) VALUES ("

	tests := []struct {
		name  string
		flags enricher.Flags
		want  string
	}{
		{
			name:  "without date enrichment",
			flags: enricher.Flags{},
			want:  columns + `'127.0.0.1', '-', 'frank', NULL, NULL, NULL, NULL, 'GET', '/apache_pb.gif?foo=bar&baz=zip', 'HTTP/1.0', 'http://www.example.com/start.html', 'Mozilla/4.08 [en] (Win98; I ;Nav)');` + "\n",
		},
		{
			name:  "with date enrichment",
			flags: enricher.Flags{Date: true},
			want:  columns + `'127.0.0.1', '-', 'frank', 10, 5, 2000, 13, 'GET', '/apache_pb.gif?foo=bar&baz=zip', 'HTTP/1.0', 'http://www.example.com/start.html', 'Mozilla/4.08 [en] (Win98; I ;Nav)');` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := NewSQL(&buf, "")
			if err := s.Handle(fixture(t, tt.flags)); err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestSQLSink_QuotesAndTable(t *testing.T) {
	rec, err := parser.Parse(`10.0.0.1 - o'brien [5/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 1 "-" "it's a bot"`)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	s := NewSQL(&buf, "hits")
	if err := s.Handle(rec); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "INSERT INTO hits (") {
		t.Errorf("table name not used: %s", out)
	}
	for _, want := range []string{`'o''brien'`, `'it''s a bot'`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
