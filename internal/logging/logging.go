// Package logging builds the loggers used across loghetti.
//
// Loggers are created once in main and injected into components as a
// logrus.FieldLogger. Components that receive nil fall back to Discard and
// never touch the logrus standard logger.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// TimestampFormat matches the text formatter layout used for diagnostics.
const TimestampFormat = "2006-01-02 15:04:05.0000"

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level log.Level) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	logger.SetFormatter(&log.TextFormatter{
		TimestampFormat:  TimestampFormat,
		FullTimestamp:    true,
		DisableColors:    true,
		QuoteEmptyFields: true,
	})
	return logger
}

// Level maps the CLI verbosity switches to a logrus level. Quiet wins over
// verbose.
func Level(quiet, verbose bool) log.Level {
	switch {
	case quiet:
		return log.ErrorLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.PanicLevel)
	return logger
}

// Default returns logger if non-nil, otherwise a discard logger.
//
//	func NewComponent(logger log.FieldLogger) *Component {
//	    logger = logging.Default(logger)
//	    return &Component{logger: logger.WithField("component", "name")}
//	}
func Default(logger log.FieldLogger) log.FieldLogger {
	if logger != nil {
		return logger
	}
	return Discard()
}
