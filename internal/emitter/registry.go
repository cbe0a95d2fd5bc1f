package emitter

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Factory builds a sink writing to w.
type Factory func(w io.Writer, opts Options) Sink

// registry maps output names to sink factories.
var registry = map[string]Factory{
	"text": func(w io.Writer, opts Options) Sink {
		if len(opts.Fields) > 0 {
			return NewFields(w, opts.Fields)
		}
		return NewText(w)
	},
	"count":   func(w io.Writer, _ Options) Sink { return NewCount(w) },
	"json":    func(w io.Writer, opts Options) Sink { return NewJSON(w, opts) },
	"msgpack": func(w io.Writer, opts Options) Sink { return NewMsgpack(w, opts) },
	"sql":     func(w io.Writer, opts Options) Sink { return NewSQL(w, opts.Table) },
}

// Register adds or replaces a named sink. Applications embedding loghetti use
// it to plug in their own consumers.
func Register(name string, factory Factory) {
	registry[strings.ToLower(name)] = factory
}

// Lookup returns a new sink for the given output name.
func Lookup(name string, w io.Writer, opts Options) (Sink, error) {
	factory, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown output %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(w, opts), nil
}

// Names returns the registered output names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
