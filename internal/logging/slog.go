package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// Options configures SlogManager.Setup.
type Options struct {
	// File receives text logs. When nil, logs go to stdout instead.
	File  io.Writer
	Level string
	// GraylogAddress enables a GELF UDP sink when non-empty (host:port).
	GraylogAddress string
	// Session adds dynamic attributes (e.g. the current selection) to every record.
	Session SessionProvider
}

// SlogManager owns the process logger.
type SlogManager struct {
	logger *slog.Logger
	gelf   *gelf.Writer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup (re)builds the logger. A Graylog address that cannot be dialed is
// reported but does not prevent console/file logging.
func (m *SlogManager) Setup(opts Options) error {
	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, handlerOpts))
	}

	if m.gelf != nil {
		_ = m.gelf.Close()
		m.gelf = nil
	}
	var gelfErr error
	if opts.GraylogAddress != "" {
		w, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			gelfErr = fmt.Errorf("connecting to graylog at %s: %w", opts.GraylogAddress, err)
		} else {
			m.gelf = w
			handlers = append(handlers, slog.NewJSONHandler(w, handlerOpts))
		}
	}

	var h slog.Handler = newFanout(handlers...)
	if opts.Session != nil {
		h = newSessionHandler(h, opts.Session)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", opts.Level, "graylog", m.gelf != nil)
	if gelfErr != nil {
		m.logger.Warn("Graylog sink disabled", "error", gelfErr)
	}
	return gelfErr
}

// Logger returns the configured logger, or slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Close releases the Graylog connection if one was opened.
func (m *SlogManager) Close() error {
	if m.gelf == nil {
		return nil
	}
	err := m.gelf.Close()
	m.gelf = nil
	return err
}
