package filter

import (
	"errors"
	"testing"

	"github.com/juliosaraiva/loghetti/internal/enricher"
	"github.com/juliosaraiva/loghetti/internal/parser"
)

func TestConfig_Apply(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantPred  Predicate
		wantFlags enricher.Flags
	}{
		{"code", "500", FieldPredicate{Field: "status", Value: "500"}, enricher.Flags{}},
		{"ip", "10.0.0.1", FieldPredicate{Field: "ip", Value: "10.0.0.1"}, enricher.Flags{}},
		{"method", "GET", FieldPredicate{Field: "method", Value: "GET"}, enricher.Flags{}},
		{"month", "10", FieldPredicate{Field: "month", Value: 10}, enricher.Flags{Date: true}},
		{"second", "7", FieldPredicate{Field: "second", Value: 7}, enricher.Flags{Date: true}},
		{"urlbase", "file.php", FieldPredicate{Field: "urlbase", Value: "file.php"}, enricher.Flags{URL: true}},
		{"urldata", "foo:bar", QueryPredicate{Key: "foo", Value: "bar"}, enricher.Flags{Query: true}},
		{"browser", "Chrome", FieldPredicate{Field: "browser", Value: "Chrome"}, enricher.Flags{Agent: true}},
		{"device", "bot", FieldPredicate{Field: "device", Value: "bot"}, enricher.Flags{Agent: true}},
		{"country", "US", FieldPredicate{Field: "country", Value: "US"}, enricher.Flags{Geo: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if err := cfg.Apply(tt.name, tt.value); err != nil {
				t.Fatalf("Apply() unexpected error: %v", err)
			}
			if len(cfg.Predicates) != 1 {
				t.Fatalf("got %d predicates, want 1", len(cfg.Predicates))
			}
			if cfg.Predicates[0] != tt.wantPred {
				t.Errorf("predicate = %#v, want %#v", cfg.Predicates[0], tt.wantPred)
			}
			if cfg.Flags != tt.wantFlags {
				t.Errorf("flags = %+v, want %+v", cfg.Flags, tt.wantFlags)
			}
		})
	}
}

func TestConfig_ApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"bogus", "1"},
		{"month", "October"},
		{"day", ""},
		{"urldata", "novalue"},
		{"urldata", ":bar"},
		{"urldata", "a:b:c"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Apply(tt.name, tt.value)
			if !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("Apply() error = %v, want ErrInvalidOption", err)
			}
			if len(cfg.Predicates) != 0 || cfg.Flags.Any() {
				t.Errorf("failed Apply() changed config: %+v", cfg)
			}
		})
	}
}

func TestConfig_EnableAll(t *testing.T) {
	cfg := &Config{}
	cfg.EnableAll()

	want := enricher.Flags{Date: true, URL: true, Query: true}
	if cfg.Flags != want {
		t.Errorf("flags = %+v, want %+v", cfg.Flags, want)
	}
	if len(cfg.Predicates) != 0 {
		t.Errorf("EnableAll() added %d predicates", len(cfg.Predicates))
	}
}

func TestOptions_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, o := range Options {
		if seen[o.Name] {
			t.Errorf("duplicate option %q", o.Name)
		}
		seen[o.Name] = true
		if o.Usage == "" {
			t.Errorf("option %q has no usage text", o.Name)
		}
	}
}

func TestFieldPredicate_TypeMustMatch(t *testing.T) {
	rec, err := parser.Parse(fixtureLine)
	if err != nil {
		t.Fatal(err)
	}
	if err := enricher.Enrich(rec, enricher.Flags{Date: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		pred FieldPredicate
		want bool
	}{
		{"int matches int", FieldPredicate{Field: "month", Value: 10}, true},
		{"string never matches int field", FieldPredicate{Field: "month", Value: "10"}, false},
		{"int never matches string field", FieldPredicate{Field: "status", Value: 200}, false},
		{"string matches string", FieldPredicate{Field: "status", Value: "200"}, true},
		{"absent derived field", FieldPredicate{Field: "urlbase", Value: ""}, false},
		{"unknown field", FieldPredicate{Field: "nope", Value: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Match(rec); got != tt.want {
				t.Errorf("%v.Match() = %v, want %v", tt.pred, got, tt.want)
			}
		})
	}
}

func TestQueryPredicate_FirstValueOnly(t *testing.T) {
	rec, err := parser.Parse(`127.0.0.1 - - [5/Oct/2000:13:55:36 -0700] "GET /s?tag=a&tag=b HTTP/1.0" 200 1 "-" "-"`)
	if err != nil {
		t.Fatal(err)
	}

	if (QueryPredicate{Key: "tag", Value: "a"}).Match(rec) {
		t.Error("matched before query enrichment")
	}

	if err := enricher.Enrich(rec, enricher.Flags{Query: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pred QueryPredicate
		want bool
	}{
		{QueryPredicate{Key: "tag", Value: "a"}, true},
		{QueryPredicate{Key: "tag", Value: "b"}, false},
		{QueryPredicate{Key: "missing", Value: "a"}, false},
		{QueryPredicate{Key: "missing", Value: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.pred.String(), func(t *testing.T) {
			if got := tt.pred.Match(rec); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Require(t *testing.T) {
	tests := []struct {
		fields []string
		want   enricher.Flags
	}{
		{[]string{"ip", "status"}, enricher.Flags{}},
		{[]string{"ip", "hour"}, enricher.Flags{Date: true}},
		{[]string{"urlbase", "browser"}, enricher.Flags{URL: true, Agent: true}},
		{[]string{"country"}, enricher.Flags{Geo: true}},
	}

	for _, tt := range tests {
		cfg := &Config{}
		cfg.Require(tt.fields...)
		if cfg.Flags != tt.want {
			t.Errorf("Require(%v) flags = %+v, want %+v", tt.fields, cfg.Flags, tt.want)
		}
		if len(cfg.Predicates) != 0 {
			t.Errorf("Require(%v) added predicates", tt.fields)
		}
	}
}
