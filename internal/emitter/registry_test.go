package emitter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"text", Options{}, "*emitter.TextSink"},
		{"text", Options{Fields: []string{"ip"}}, "*emitter.FieldsSink"},
		{"TEXT", Options{}, "*emitter.TextSink"},
		{"count", Options{}, "*emitter.CountSink"},
		{"json", Options{}, "*emitter.JSONEmitter"},
		{"msgpack", Options{}, "*emitter.MsgpackSink"},
		{"sql", Options{}, "*emitter.SQLSink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := Lookup(tt.name, io.Discard, tt.opts)
			if err != nil {
				t.Fatalf("Lookup(%q) unexpected error: %v", tt.name, err)
			}
			if got := fmt.Sprintf("%T", sink); got != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("xml", io.Discard, Options{})
	if err == nil {
		t.Fatal("Lookup(xml) expected error")
	}
	if !strings.Contains(err.Error(), "json") {
		t.Errorf("error should list available outputs, got %v", err)
	}
}

type prefixSink struct{ w io.Writer }

func (s prefixSink) Handle(rec *parser.Record) error {
	_, err := io.WriteString(s.w, "hit "+rec.IP+"\n")
	return err
}

func (prefixSink) Close() error { return nil }

func TestRegister(t *testing.T) {
	Register("prefix", func(w io.Writer, _ Options) Sink { return prefixSink{w: w} })
	defer delete(registry, "prefix")

	var buf bytes.Buffer
	sink, err := Lookup("prefix", &buf, Options{})
	if err != nil {
		t.Fatalf("Lookup(prefix) unexpected error: %v", err)
	}
	if err := sink.Handle(&parser.Record{IP: "10.1.1.1"}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "hit 10.1.1.1\n" {
		t.Errorf("output = %q", buf.String())
	}

	found := false
	for _, n := range Names() {
		found = found || n == "prefix"
	}
	if !found {
		t.Errorf("Names() = %v, missing prefix", Names())
	}
}
