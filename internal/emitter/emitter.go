// Package emitter writes matching records to their final destination.
package emitter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// Sink consumes matching records one at a time.
type Sink interface {
	// Handle processes one record.
	Handle(rec *parser.Record) error

	// Close flushes buffered output and reports the final result, if any.
	Close() error
}

// Options configures the built-in sinks.
type Options struct {
	// Fields limits output to only these fields.
	// Empty means output all present fields.
	Fields []string

	// Pretty enables indented JSON output.
	// Not recommended for pipe output (breaks NDJSON).
	Pretty bool

	// AddTimestamp adds _ingestTime with current timestamp.
	AddTimestamp bool

	// AddRaw includes the original line as _raw field.
	AddRaw bool

	// Table names the SQL table for the sql sink.
	Table string
}

// ValidateFields rejects names that no record can carry.
func ValidateFields(fields []string) error {
	known := make(map[string]bool, len(parser.FieldNames))
	for _, name := range parser.FieldNames {
		known[name] = true
	}
	for _, f := range fields {
		if !known[f] {
			return fmt.Errorf("unknown field %q", f)
		}
	}
	return nil
}

// JSONEmitter serializes records as NDJSON.
type JSONEmitter struct {
	writer  *bufio.Writer
	options Options
	encoder *json.Encoder
}

// NewJSON creates a JSON emitter writing to the given output.
func NewJSON(output io.Writer, opts Options) *JSONEmitter {
	writer := bufio.NewWriter(output)
	encoder := json.NewEncoder(writer)

	if opts.Pretty {
		encoder.SetIndent("", "  ")
	}

	// Don't escape HTML characters (cleaner output)
	encoder.SetEscapeHTML(false)

	return &JSONEmitter{
		writer:  writer,
		options: opts,
		encoder: encoder,
	}
}

// Handle writes a record as a single JSON line.
func (e *JSONEmitter) Handle(rec *parser.Record) error {
	output := buildOutput(rec, e.options)

	if err := e.encoder.Encode(output); err != nil {
		return err
	}

	// Flush immediately for real-time output
	return e.writer.Flush()
}

// Close flushes any remaining data.
func (e *JSONEmitter) Close() error {
	return e.writer.Flush()
}

// buildOutput constructs the output map from a record.
func buildOutput(rec *parser.Record, opts Options) map[string]any {
	var output map[string]any

	if len(opts.Fields) > 0 {
		// Filter to only requested fields
		output = make(map[string]any, len(opts.Fields)+2)
		for _, field := range opts.Fields {
			if val, ok := rec.Field(field); ok {
				output[field] = val
			}
		}
	} else {
		output = rec.Fields()
	}

	if rec.Has(parser.GroupQuery) && len(opts.Fields) == 0 && len(rec.Query) > 0 {
		output["query"] = rec.Query
	}

	// Add metadata fields (prefixed with _)
	if opts.AddTimestamp {
		output["_ingestTime"] = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if opts.AddRaw {
		output["_raw"] = rec.Raw
	}

	return output
}
