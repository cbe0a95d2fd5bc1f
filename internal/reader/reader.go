// Package reader provides pull-based reading of access log records from one
// or more inputs.
package reader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	log "github.com/sirupsen/logrus"

	"github.com/juliosaraiva/loghetti/internal/logging"
	"github.com/juliosaraiva/loghetti/internal/parser"
)

// Default configuration values.
const (
	DefaultMaxLineSize = 1024 * 1024 // 1MB max line size
	DefaultBufferSize  = 64 * 1024   // 64KB initial buffer
)

// StdinPath names standard input in a path list.
const StdinPath = "-"

// Common errors returned by the reader.
var (
	// ErrNoMatchingFiles is returned by Open when a glob pattern matches nothing.
	ErrNoMatchingFiles = errors.New("no files match pattern")

	// ErrLineTooLong is the reason logged for lines longer than the maximum
	// line size. Such lines are skipped like any other malformed line.
	ErrLineTooLong = errors.New("line too long")
)

// Stats counts the physical lines seen by a LogReader.
type Stats struct {
	Lines   int // lines read from all inputs
	Skipped int // lines that failed to parse
}

type source struct {
	name string
	open func() (io.ReadCloser, error)
}

// LogReader reads combined-format records from its inputs in order.
// It is single-pass: once Next returns io.EOF it keeps returning io.EOF.
// Lines that fail to parse are logged and skipped.
type LogReader struct {
	sources []source
	parser  parser.Parser
	logger  log.FieldLogger
	maxSize int
	stdin   io.Reader

	current    io.ReadCloser
	lines      *bufio.Reader
	name       string
	lineNumber int

	stats Stats
	err   error
}

// Option configures the LogReader.
type Option func(*LogReader)

// WithMaxLineSize sets the maximum allowed line size.
// Longer lines are skipped and logged with their first size bytes.
func WithMaxLineSize(size int) Option {
	return func(r *LogReader) {
		r.maxSize = size
	}
}

// WithLogger sets the logger that receives diagnostics for skipped lines.
func WithLogger(logger log.FieldLogger) Option {
	return func(r *LogReader) {
		r.logger = logger
	}
}

// WithParser replaces the combined-format parser.
func WithParser(p parser.Parser) Option {
	return func(r *LogReader) {
		r.parser = p
	}
}

// WithStdin sets the stream read for the "-" path. Defaults to os.Stdin.
func WithStdin(stdin io.Reader) Option {
	return func(r *LogReader) {
		r.stdin = stdin
	}
}

func newReader(opts []Option) *LogReader {
	r := &LogReader{
		parser:  parser.NewCombinedParser(),
		maxSize: DefaultMaxLineSize,
		stdin:   os.Stdin,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.Default(r.logger).WithField("component", "reader")
	return r
}

// New creates a LogReader over an already-open stream. Once reading has
// started, closing the LogReader also closes input if it is an io.Closer.
func New(input io.Reader, opts ...Option) *LogReader {
	r := newReader(opts)
	r.sources = []source{{
		name: "stream",
		open: func() (io.ReadCloser, error) { return asReadCloser(input), nil },
	}}
	return r
}

// Open creates a LogReader over the given paths, read in order.
//
// Paths containing glob metacharacters are expanded (doublestar syntax, so
// "**" crosses directories); matches of one pattern are read in lexical
// order. Every input is checked before Open returns, so a missing or
// unreadable file is reported before any record is produced. Files are
// opened one at a time as reading progresses.
func Open(paths []string, opts ...Option) (*LogReader, error) {
	r := newReader(opts)

	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		if path == StdinPath {
			stdin := r.stdin
			r.sources = append(r.sources, source{
				name: "stdin",
				open: func() (io.ReadCloser, error) { return io.NopCloser(stdin), nil },
			})
			continue
		}

		if err := checkFile(path); err != nil {
			return nil, err
		}
		p := path
		r.sources = append(r.sources, source{
			name: p,
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}

	return r, nil
}

// expand resolves glob patterns, preserving argument order.
func expand(paths []string) ([]string, error) {
	var result []string
	for _, p := range paths {
		if p == StdinPath || !strings.ContainsAny(p, "*?[{") || exists(p) {
			result = append(result, p)
			continue
		}

		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("expand %q: %w", p, ErrNoMatchingFiles)
		}
		sort.Strings(matches)
		result = append(result, matches...)
	}
	return result, nil
}

// exists reports whether path names an existing file, so names that merely
// contain glob metacharacters are read literally.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("open input %s: is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	return f.Close()
}

// Next returns the next record. It returns io.EOF once every input has been
// consumed, and a non-nil error if an input cannot be opened or read. Errors
// are sticky: later calls return the same error.
func (r *LogReader) Next() (*parser.Record, error) {
	for {
		if r.err != nil {
			return nil, r.err
		}

		if r.lines == nil {
			if err := r.advance(); err != nil {
				r.err = err
				continue
			}
		}

		line, truncated, err := r.readLine()
		if err != nil {
			r.closeCurrent()
			if !errors.Is(err, io.EOF) {
				r.err = fmt.Errorf("read %s: %w", r.name, err)
			}
			continue
		}
		r.lineNumber++
		r.stats.Lines++

		if truncated {
			r.skip(line, fmt.Errorf("%w (max %d bytes)", ErrLineTooLong, r.maxSize))
			continue
		}

		rec, err := r.parser.Parse(line)
		if err != nil {
			r.skip(line, reason(err))
			continue
		}
		return rec, nil
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxSize is cut to maxSize bytes and reported as truncated; the rest of it
// is consumed and discarded.
func (r *LogReader) readLine() (line string, truncated bool, err error) {
	var (
		buf  []byte
		size int
		last byte
	)
	for {
		chunk, err := r.lines.ReadSlice('\n')
		data := bytes.TrimSuffix(chunk, []byte{'\n'})
		if len(data) > 0 {
			last = data[len(data)-1]
		}
		size += len(data)
		if room := r.maxSize - len(buf); room > 0 {
			buf = append(buf, data[:min(room, len(data))]...)
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && size > 0:
			// last line has no newline
		default:
			return "", false, err
		}

		// A trailing CR belongs to the terminator.
		if last == '\r' {
			size--
		}
		if size > r.maxSize {
			return string(buf), true, nil
		}
		return strings.TrimSuffix(string(buf), "\r"), false, nil
	}
}

// skip counts and logs a malformed line.
func (r *LogReader) skip(line string, why error) {
	r.stats.Skipped++
	r.logger.WithFields(log.Fields{
		"source":      r.name,
		"line_number": r.lineNumber,
		"line":        line,
	}).Warnf("NON_COMPLIANT_FORMAT: %v", why)
}

// advance opens the next input. It returns io.EOF when none are left.
func (r *LogReader) advance() error {
	if len(r.sources) == 0 {
		return io.EOF
	}
	src := r.sources[0]
	r.sources = r.sources[1:]

	rc, err := src.open()
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	dc, err := decompress(rc, src.name)
	if err != nil {
		_ = rc.Close()
		return fmt.Errorf("open input %s: %w", src.name, err)
	}

	r.current = dc
	r.lines = bufio.NewReaderSize(dc, DefaultBufferSize)
	r.name = src.name
	r.lineNumber = 0
	r.logger.WithField("source", src.name).Debug("reading input")
	return nil
}

// reason strips the raw line from parser errors; it is logged separately.
func reason(err error) error {
	var lineErr *parser.LineError
	if errors.As(err, &lineErr) {
		return lineErr.Err
	}
	return err
}

func (r *LogReader) closeCurrent() {
	if r.current != nil {
		_ = r.current.Close()
	}
	r.current = nil
	r.lines = nil
}

// ReadAll reads every remaining record into a slice.
// Useful for testing; for production pull records with Next.
func (r *LogReader) ReadAll() ([]*parser.Record, error) {
	var records []*parser.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Stats returns the line counters accumulated so far.
func (r *LogReader) Stats() Stats {
	return r.stats
}

// Close releases the open input and ends the sequence. It is safe to call
// more than once and after an early stop.
func (r *LogReader) Close() error {
	r.closeCurrent()
	r.sources = nil
	if r.err == nil {
		r.err = io.EOF
	}
	return nil
}
