package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/samber/do/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config configures the log outputs
type Config struct {
	Level      string `yaml:"level"`
	Filename   string `yaml:"filename"`
	MaxSize    int    `yaml:"maxsize"` // in megabytes
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"` // in days
	Gelfurl    string `yaml:"gelf-url"`
	Facility   string `yaml:"facility"`
}

// Logger is a named wrapper around slog with printf style helpers
type Logger struct {
	name string
	sl   *slog.Logger
}

var (
	level   = new(slog.LevelVar)
	current = newSwitchHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	// Root the root logger, everything else is derived from it
	Root    = &Logger{sl: slog.New(current)}
	closers []io.Closer
	rlock   sync.Mutex
)

// Init configures the root logger from the injected config
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	if err := Configure(*cfg); err != nil {
		Root.Errorf("error configuring logging: %v", err)
	}
	do.ProvideValue(inj, Root)
}

// Configure (re)builds the root logger. Logs always go to stderr, stdout may carry image data.
func Configure(cfg Config) error {
	rlock.Lock()
	defer rlock.Unlock()

	level.Set(ParseLevel(cfg.Level))
	var w io.Writer = os.Stderr
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		closers = append(closers, lj)
		w = io.MultiWriter(os.Stderr, lj)
	}
	var h slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if cfg.Gelfurl != "" {
		gh, err := newGelfHandler(cfg.Gelfurl, cfg.Facility, level)
		if err != nil {
			current.swap(h)
			return err
		}
		closers = append(closers, gh)
		h = &fanoutHandler{handlers: []slog.Handler{h, gh}}
	}
	current.swap(h)
	return nil
}

// ParseLevel converts a level name into a slog level, defaults to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close closes all file and network outputs
func Close() error {
	rlock.Lock()
	defer rlock.Unlock()
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	closers = nil
	return first
}

// New returns a logger derived from the root logger
func New() *Logger {
	return &Logger{name: Root.name, sl: Root.sl}
}

// WithName returns a copy of the logger tagged with the given component name
func (l *Logger) WithName(name string) *Logger {
	return &Logger{name: name, sl: l.sl.With("logger", name)}
}

// With returns a copy of the logger with additional attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{name: l.name, sl: l.sl.With(args...)}
}

// Slog exposes the underlying slog logger
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}

func (l *Logger) Debugf(format string, va ...any) {
	l.sl.Debug(fmt.Sprintf(format, va...))
}

func (l *Logger) Infof(format string, va ...any) {
	l.sl.Info(fmt.Sprintf(format, va...))
}

func (l *Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

func (l *Logger) Warnf(format string, va ...any) {
	l.sl.Warn(fmt.Sprintf(format, va...))
}

func (l *Logger) Errorf(format string, va ...any) {
	l.sl.Error(fmt.Sprintf(format, va...))
}

func (l *Logger) Error(msg string, args ...any) {
	l.sl.Error(msg, args...)
}

// Fatalf logs the message and exits the process
func (l *Logger) Fatalf(format string, va ...any) {
	l.sl.Error(fmt.Sprintf(format, va...))
	_ = Close()
	os.Exit(1)
}
