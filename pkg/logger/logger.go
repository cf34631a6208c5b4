// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main; packages that are not handed a logger use Get or
// Component.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures Init.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", ...). Empty or
	// unknown values mean info.
	Level string
	// Pretty switches to the coloured console writer. Leave it off in
	// production so every line is JSON.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is added to every line as "service".
	Service string
}

var (
	mu    sync.Mutex
	root  *zerolog.Logger
	ready sync.Once
)

// Init builds the process logger. Later calls return the logger built by the
// first one and ignore their options.
func Init(opts Options) zerolog.Logger {
	ready.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		zerolog.TimeFieldFormat = time.RFC3339Nano
		level := parseLevel(opts.Level)
		zerolog.SetGlobalLevel(level)

		l := zerolog.New(writer(opts)).Level(level).With().Timestamp().Caller()
		if opts.Service != "" {
			l = l.Str("service", opts.Service)
		}
		built := l.Logger()
		root = &built
	})
	return Get()
}

// Get returns the process logger. It panics when Init has not run.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Component returns the process logger tagged with a "component" field.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset forgets the process logger so tests can call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	root = nil
	ready = sync.Once{}
}

func writer(opts Options) io.Writer {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return out
}

// parseLevel accepts zerolog level names plus "warning".
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
