// loghetti filters Apache combined-format access logs.
// Reads the given files (or stdin for "-"), writes matching lines to stdout.
//
// Usage:
//
//	loghetti --code=404 access.log
//	loghetti --urldata=foo:bar --return=ip,urlbase access.log.1.gz
//	loghetti --month=10 --day=5 --count 'logs/**/access.log*'
//	loghetti --code=500 --output=json access.log | jq .url
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/juliosaraiva/loghetti/internal/emitter"
	"github.com/juliosaraiva/loghetti/internal/filter"
	"github.com/juliosaraiva/loghetti/internal/geoip"
	"github.com/juliosaraiva/loghetti/internal/logging"
	"github.com/juliosaraiva/loghetti/internal/reader"
)

// Version information (set via build flags)
var version = "dev"

// GeoIPEnv names the environment variable holding the default GeoIP database.
const GeoIPEnv = "LOGHETTI_GEOIP_DB"

// Filter is one filter option as given on the command line.
type Filter struct {
	Name  string
	Value string
}

// Config holds all CLI configuration options.
type Config struct {
	// Input
	Files []string

	// Filter options, in command-line order
	Filters []Filter
	NoLazy  bool   // Compute date, url and query fields for every line
	GeoIPDB string // MMDB path for --country and the country field

	// Output options
	Count        bool     // Print only the number of matching lines
	Return       []string // Only output these fields
	Output       string   // Named output sink
	Pretty       bool     // Pretty-print JSON
	AddTimestamp bool     // Add _ingestTime field
	AddRaw       bool     // Add _raw field
	Table        string   // Table name for sql output

	// General options
	Quiet   bool // Suppress warnings
	Verbose bool // Debug output
}

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// filterFlag appends every occurrence of a filter option to Config.Filters,
// so predicates keep their command-line order across different flags.
type filterFlag struct {
	name string
	cfg  *Config
}

func (f *filterFlag) String() string { return "" }
func (f *filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(value string) error {
	f.cfg.Filters = append(f.cfg.Filters, Filter{Name: f.name, Value: value})
	return nil
}

// newRootCmd builds the command with explicit I/O.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "loghetti [flags] FILE...",
		Short: "Filter Apache combined-format access logs",
		Long: `loghetti reads Apache combined-format access logs and prints the lines
matching every filter option given. Files may be plain, gzip or zstd
compressed, and may be glob patterns ("**" crosses directories).
Use "-" to read standard input.

Lines that are not in combined format are reported on stderr and skipped.`,
		Version:       version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Files = args
			return runPipeline(cfg, stdin, stdout, stderr)
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.SortFlags = false

	for _, o := range filter.Options {
		flags.Var(&filterFlag{name: o.Name, cfg: &cfg}, o.Name, o.Usage)
	}
	flags.BoolVar(&cfg.NoLazy, "nolazy", false, "compute date, url and query fields for every line")
	flags.StringVar(&cfg.GeoIPDB, "geoip-db", getEnv(GeoIPEnv, ""), "MaxMind MMDB file for --country (env "+GeoIPEnv+")")

	flags.BoolVar(&cfg.Count, "count", false, "print only the number of matching lines")
	flags.StringSliceVar(&cfg.Return, "return", nil, "only output these fields (comma-separated)")
	flags.StringVar(&cfg.Output, "output", "text", "output format: "+strings.Join(emitter.Names(), ", "))
	flags.BoolVar(&cfg.Pretty, "pretty", false, "pretty-print JSON output")
	flags.BoolVar(&cfg.AddTimestamp, "add-timestamp", false, "add _ingestTime field (json, msgpack)")
	flags.BoolVar(&cfg.AddRaw, "add-raw", false, "add _raw field with original line (json, msgpack)")
	flags.StringVar(&cfg.Table, "table", emitter.DefaultTable, "table name for sql output")

	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "suppress warnings to stderr")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "debug output to stderr")

	return cmd
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// runPipeline executes the filter pipeline with explicit I/O.
func runPipeline(cfg Config, input io.Reader, output io.Writer, errOutput io.Writer) error {
	logger := logging.New(errOutput, logging.Level(cfg.Quiet, cfg.Verbose))

	// Build the predicate chain
	fcfg := &filter.Config{}
	for _, f := range cfg.Filters {
		if err := fcfg.Apply(f.Name, f.Value); err != nil {
			return err
		}
	}
	if cfg.NoLazy {
		fcfg.EnableAll()
	}

	// Validate output fields (fail fast instead of per-line gaps)
	if err := emitter.ValidateFields(cfg.Return); err != nil {
		return fmt.Errorf("invalid --return: %w", err)
	}
	fcfg.Require(cfg.Return...)

	if fcfg.Flags.Geo {
		if cfg.GeoIPDB == "" {
			return fmt.Errorf("country lookups need a GeoIP database: set --geoip-db or %s", GeoIPEnv)
		}
		db, err := geoip.Open(cfg.GeoIPDB)
		if err != nil {
			return err
		}
		defer db.Close()

		info := db.Info()
		logger.WithFields(log.Fields{
			"path":  cfg.GeoIPDB,
			"type":  info.DatabaseType,
			"built": info.BuildTime.Format("2006-01-02"),
		}).Debug("loaded GeoIP database")
		fcfg.Flags.GeoIP = db
	}

	// Create sink
	var sink emitter.Sink
	if cfg.Count {
		sink = emitter.NewCount(output)
	} else {
		var err error
		sink, err = emitter.Lookup(cfg.Output, output, emitter.Options{
			Fields:       cfg.Return,
			Pretty:       cfg.Pretty,
			AddTimestamp: cfg.AddTimestamp,
			AddRaw:       cfg.AddRaw,
			Table:        cfg.Table,
		})
		if err != nil {
			return err
		}
	}

	// Open inputs
	r, err := reader.Open(cfg.Files, reader.WithLogger(logger), reader.WithStdin(input))
	if err != nil {
		return err
	}
	defer r.Close()

	f := filter.New(r, fcfg)
	if err := filter.Each(f, sink.Handle); err != nil {
		// Partial counts are never printed.
		if !cfg.Count {
			_ = sink.Close()
		}
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	// Print summary in verbose mode
	stats := r.Stats()
	logger.WithFields(log.Fields{
		"lines":   stats.Lines,
		"skipped": stats.Skipped,
		"matched": f.Matched(),
	}).Debug("done")

	return nil
}
