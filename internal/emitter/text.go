package emitter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/juliosaraiva/loghetti/internal/parser"
)

// TextSink prints each record in its default one-line form.
type TextSink struct {
	w *bufio.Writer
}

// NewText creates a TextSink.
func NewText(w io.Writer) *TextSink {
	return &TextSink{w: bufio.NewWriter(w)}
}

// Handle prints the record on one line.
func (s *TextSink) Handle(rec *parser.Record) error {
	_, err := fmt.Fprintln(s.w, rec.String())
	return err
}

// Close flushes buffered output.
func (s *TextSink) Close() error {
	return s.w.Flush()
}

// FieldsSink prints the selected fields of each record separated by spaces.
// Absent fields print as empty strings.
type FieldsSink struct {
	w      *bufio.Writer
	fields []string
}

// NewFields creates a FieldsSink for the given field names.
func NewFields(w io.Writer, fields []string) *FieldsSink {
	return &FieldsSink{w: bufio.NewWriter(w), fields: fields}
}

// Handle prints the selected fields of the record.
func (s *FieldsSink) Handle(rec *parser.Record) error {
	values := make([]string, len(s.fields))
	for i, name := range s.fields {
		if v, ok := rec.Field(name); ok {
			values[i] = fmt.Sprint(v)
		}
	}
	_, err := fmt.Fprintln(s.w, strings.Join(values, " "))
	return err
}

// Close flushes buffered output.
func (s *FieldsSink) Close() error {
	return s.w.Flush()
}

// CountSink counts records and prints the total when closed.
type CountSink struct {
	w     io.Writer
	count int
}

// NewCount creates a CountSink.
func NewCount(w io.Writer) *CountSink {
	return &CountSink{w: w}
}

// Handle counts the record.
func (s *CountSink) Handle(*parser.Record) error {
	s.count++
	return nil
}

// Count returns the number of records handled so far.
func (s *CountSink) Count() int { return s.count }

// Close prints the number of records handled.
func (s *CountSink) Close() error {
	_, err := fmt.Fprintf(s.w, "Matching lines: %d\n", s.count)
	return err
}
