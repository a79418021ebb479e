package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aphistic/golf"
)

// gelfHandler forwards records to a graylog server
type gelfHandler struct {
	client *golf.Client
	logger *golf.Logger
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func newGelfHandler(url, facility string, level slog.Leveler) (*gelfHandler, error) {
	c, err := golf.NewClient()
	if err != nil {
		return nil, fmt.Errorf("can't create gelf client: %w", err)
	}
	if err := c.Dial(url); err != nil {
		c.Close()
		return nil, fmt.Errorf("can't dial gelf server %s: %w", url, err)
	}
	l, err := c.NewLogger()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("can't create gelf logger: %w", err)
	}
	if facility == "" {
		facility = "tilerip"
	}
	l.SetAttr("facility", facility)
	return &gelfHandler{client: c, logger: l, level: level}, nil
}

func (g *gelfHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= g.level.Level()
}

func (g *gelfHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s%s=%v", g.prefix, a.Key, a.Value.Any())
		return true
	}
	for _, a := range g.attrs {
		write(a)
	}
	r.Attrs(write)
	msg := sb.String()
	switch {
	case r.Level >= slog.LevelError:
		return g.logger.Errf("%s", msg)
	case r.Level >= slog.LevelWarn:
		return g.logger.Warnf("%s", msg)
	case r.Level >= slog.LevelInfo:
		return g.logger.Infof("%s", msg)
	default:
		return g.logger.Dbgf("%s", msg)
	}
}

func (g *gelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *g
	n.attrs = append(append([]slog.Attr{}, g.attrs...), attrs...)
	return &n
}

func (g *gelfHandler) WithGroup(name string) slog.Handler {
	n := *g
	n.prefix = g.prefix + name + "."
	return &n
}

func (g *gelfHandler) Close() error {
	return g.client.Close()
}
