// Package logging builds the zerolog loggers used by the planner, the
// simulator and the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ErrUnknownFormat is returned for a log format other than console or json.
var ErrUnknownFormat = errors.New("logging: unknown format")

// Format values.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options selects level and encoding.
type Options struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives log output; empty means stderr.
	File string `yaml:"file,omitempty"`
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", opts.Level, err)
		}
		level = l
	}

	switch opts.Format {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(w)}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("%q: %w", opts.Format, ErrUnknownFormat)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Open creates a logger for opts, opening opts.File when set. The returned
// closer must be called once logging is done.
func Open(opts Options) (zerolog.Logger, io.Closer, error) {
	if opts.File == "" {
		l, err := New(os.Stderr, opts)
		return l, io.NopCloser(nil), err
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}
	l, err := New(f, opts)
	if err != nil {
		f.Close()
		return zerolog.Nop(), nil, err
	}
	return l, f, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
