package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls output format and level for every logger created after
// Configure is called.
type Options struct {
	// Level is a zerolog level name ("debug", "info", ...). Empty means info.
	Level string
	// Format is "json" or "console". Empty falls back to APP_ENV detection.
	Format string
	Out    io.Writer
}

var (
	optsMu sync.RWMutex
	opts   Options
)

// Configure sets the process-wide logging options.
func Configure(o Options) error {
	if o.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(o.Level))
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		zerolog.SetGlobalLevel(lvl)
	}
	if o.Format != "" && o.Format != "json" && o.Format != "console" {
		return fmt.Errorf("unknown log format %s", o.Format)
	}
	optsMu.Lock()
	opts = o
	optsMu.Unlock()
	return nil
}

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger. The output format comes from
// Configure, or from the APP_ENV environment variable ("dev" selects the
// console writer). All logs include the provided component field.
func NewZerologLogger(component string) Logger {
	optsMu.RLock()
	o := opts
	optsMu.RUnlock()

	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	format := o.Format
	if format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
