package emitter

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/juliosaraiva/loghetti/internal/enricher"
)

func TestMsgpackSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewMsgpack(&buf, Options{Fields: []string{"ip", "urlbase", "month"}})

	for i := 0; i < 2; i++ {
		if err := s.Handle(fixture(t, enricher.Flags{URL: true})); err != nil {
			t.Fatalf("Handle returned error: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	dec := msgpack.NewDecoder(&buf)
	var n int
	for {
		var m map[string]any
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		n++

		if m["ip"] != "127.0.0.1" {
			t.Errorf("ip = %v, want 127.0.0.1", m["ip"])
		}
		if m["urlbase"] != "apache_pb.gif" {
			t.Errorf("urlbase = %v, want apache_pb.gif", m["urlbase"])
		}
		if _, ok := m["month"]; ok {
			t.Error("month should be absent without date enrichment")
		}
	}
	if n != 2 {
		t.Errorf("decoded %d maps, want 2", n)
	}
}
