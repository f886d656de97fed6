package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the console logger of a node, prefixed with its name. When
// logPath is set, records are also written to a rotated file; the returned
// closer releases it.
func NewLogger(w io.Writer, name string, level slog.Level, logPath string) (*slog.Logger, io.Closer, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(w, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: name,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = nopCloser{}
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}).
			WithAttrs([]slog.Attr{slog.String("node", name)}))
		closer = f
	}

	logger := slog.New(
		slogmulti.Fanout(handlers...))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Run is the outer scheduler: it calls Daemon every interval until ctx is
// done, passing each tick to fn.
func Run(ctx context.Context, r *Router, interval time.Duration, fn func(Tick)) error {
	r.log.Debug("started main loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			start := time.Now()
			tick, err := r.Daemon()
			if err != nil {
				r.log.Debug("daemon", "err", err)
			}
			if fn != nil {
				fn(tick)
			}
			if elapsed := time.Since(start); elapsed > interval {
				r.log.Warn("daemon took a long time!", "elapsed", elapsed)
			}
		case <-ctx.Done():
			r.log.Debug("stopped main loop", "reason", context.Cause(ctx))
			return nil
		}
	}
}
