// Package filter applies a conjunction of predicates to a stream of access
// log records.
package filter

import (
	"errors"
	"fmt"
	"io"

	"github.com/juliosaraiva/loghetti/internal/enricher"
	"github.com/juliosaraiva/loghetti/internal/parser"
)

// Source yields records one at a time. Next returns io.EOF at the end.
type Source interface {
	Next() (*parser.Record, error)
}

// Config is the ordered predicate list plus the enrichment each record needs
// before the predicates run. It is built once before reading starts and is
// not modified afterwards.
type Config struct {
	Predicates []Predicate
	Flags      enricher.Flags
}

// Add appends a predicate.
func (c *Config) Add(p Predicate) {
	c.Predicates = append(c.Predicates, p)
}

// Match reports whether rec satisfies every predicate, stopping at the first
// one that fails. A config without predicates matches everything.
func (c *Config) Match(rec *parser.Record) bool {
	for _, p := range c.Predicates {
		if !p.Match(rec) {
			return false
		}
	}
	return true
}

// Filter is a Source that only yields records accepted by a Config.
// It pulls from its upstream on demand and holds no more than one record.
type Filter struct {
	src Source
	cfg *Config
	err error

	seen    int
	matched int
}

// New wraps src so that only matching records are returned.
func New(src Source, cfg *Config) *Filter {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Filter{src: src, cfg: cfg}
}

// Next returns the next matching record in input order. It returns io.EOF
// when the upstream is exhausted, and stops with an error when the upstream
// fails or a record cannot be enriched. Once Next has returned an error it
// keeps returning it.
func (f *Filter) Next() (*parser.Record, error) {
	if f.err != nil {
		return nil, f.err
	}

	for {
		rec, err := f.src.Next()
		if err != nil {
			f.err = err
			return nil, err
		}
		f.seen++

		if err := enricher.Enrich(rec, f.cfg.Flags); err != nil {
			f.err = fmt.Errorf("enrich record: %w", err)
			return nil, f.err
		}

		if f.cfg.Match(rec) {
			f.matched++
			return rec, nil
		}
	}
}

// Seen returns how many records have been pulled from the upstream.
func (f *Filter) Seen() int { return f.seen }

// Matched returns how many records have been returned.
func (f *Filter) Matched() int { return f.matched }

// Each calls fn for every record from src until src is exhausted, src fails,
// or fn returns an error. Exhaustion is not an error.
func Each(src Source, fn func(*parser.Record) error) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
