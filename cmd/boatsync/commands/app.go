package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/OCAP2/boatsync/internal/bus"
	"github.com/OCAP2/boatsync/internal/bus/redisbridge"
	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/internal/edit"
	"github.com/OCAP2/boatsync/internal/influx"
	"github.com/OCAP2/boatsync/internal/logging"
	intOtel "github.com/OCAP2/boatsync/internal/otel"
	"github.com/OCAP2/boatsync/internal/position"
	"github.com/OCAP2/boatsync/internal/printer"
	"github.com/OCAP2/boatsync/internal/storage"
	"github.com/OCAP2/boatsync/internal/storage/sample"
	"github.com/OCAP2/boatsync/internal/view"
	"github.com/OCAP2/boatsync/pkg/core"
)

const appName = "boatsync"

// app holds the process-wide services one command runs against.
type app struct {
	out     io.Writer
	started time.Time

	logs    *logging.SlogManager
	logger  *slog.Logger
	logFile *os.File
	metrics *os.File

	backend storage.Backend
	bus     *bus.Bus
	bridge  *redisbridge.Bridge
	influx  *influx.Manager
	otel    *intOtel.Provider

	session *view.Session
}

// newApp loads configuration and connects everything a session needs. A
// missing config file falls back to defaults. Optional sinks that cannot be
// reached are logged and skipped.
func newApp(ctx context.Context, out io.Writer) (*app, error) {
	a := &app{out: out, started: time.Now(), logs: logging.NewSlogManager()}

	cfgErr := config.Load(configDir)
	if logLevel != "" {
		viper.Set("logLevel", logLevel)
	}

	if err := a.setupLogging(); err != nil {
		return nil, err
	}
	if cfgErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", cfgErr)
	} else {
		a.logger.Info("Loaded config", "dir", configDir)
	}

	if err := a.setupOTel(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.setupStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}

	b, err := bus.New(logging.Component(a.logger, "bus"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	a.bus = b
	a.setupRedis(ctx)
	a.setupInflux(ctx)
	return a, nil
}

func (a *app) setupLogging() error {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	f, err := os.OpenFile(logging.LogFilePath(logsDir, appName, a.started), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f

	opts := logging.Options{
		File:  f,
		Level: config.GetString("logLevel"),
		Session: func() []slog.Attr {
			if a.session == nil {
				return nil
			}
			return []slog.Attr{slog.String("selected", a.session.Selection.Current().SelectedID)}
		},
	}
	if config.GetBool("graylog.enabled") {
		opts.GraylogAddress = config.GetString("graylog.address")
	}
	// A graylog failure is already logged; file logging keeps working.
	_ = a.logs.Setup(opts)
	a.logger = a.logs.Logger()
	return nil
}

// dbLogger returns the zerolog logger used by the database and influx managers.
func (a *app) dbLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(config.GetString("logLevel"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(a.logFile).Level(level).With().Timestamp().Logger()
}

func (a *app) setupOTel() error {
	cfg := config.GetOTelConfig()
	otelCfg := intOtel.Config{
		Enabled:        cfg.Enabled,
		ServiceName:    cfg.ServiceName,
		ExportInterval: cfg.ExportInterval,
	}
	if cfg.Enabled {
		path := filepath.Join(config.GetString("logsDir"), fmt.Sprintf("%s.%s.metrics.json", appName, a.started.UTC().Format("20060102_150405")))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create metrics file: %w", err)
		}
		a.metrics = f
		otelCfg.MetricWriter = f
	}

	p, err := intOtel.New(otelCfg)
	if err != nil {
		return fmt.Errorf("failed to set up otel: %w", err)
	}
	a.otel = p
	return nil
}

func (a *app) setupStorage(ctx context.Context) error {
	cfg := config.GetStorageConfig()
	dbLog := a.dbLogger()
	backend, err := storage.NewBackend(cfg, storage.Dependencies{
		Logger:   logging.NewZerologAdapter(dbLog.With().Str("component", "storage").Logger()),
		DBLogger: dbLog,
	})
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Type, err)
	}
	a.backend = backend

	seeder, ok := backend.(storage.Seeder)
	if !ok {
		return nil
	}
	existing, err := backend.SearchByType(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to inspect storage: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err := seeder.Seed(ctx, sample.Boats()); err != nil {
		return fmt.Errorf("failed to seed sample fleet: %w", err)
	}
	a.logger.Info("Seeded sample fleet", "storage", cfg.Type)
	return nil
}

func (a *app) setupRedis(ctx context.Context) {
	cfg := config.GetRedisConfig()
	if !cfg.Enabled {
		return
	}
	br, err := redisbridge.New(a.bus, &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, redisbridge.Config{ChannelPrefix: cfg.ChannelPrefix}, logging.Component(a.logger, "redis"))
	if err != nil {
		a.logger.Warn("Redis bridge disabled", "error", err)
		return
	}
	redisbridge.Register[core.SelectionMessage](br, core.TopicSelection)
	redisbridge.Register[core.BulkUpdatedMessage](br, core.TopicBulkUpdated)
	if err := br.Start(ctx); err != nil {
		a.logger.Warn("Redis bridge disabled", "address", cfg.Address, "error", err)
		_ = br.Close()
		return
	}
	a.bridge = br
}

func (a *app) setupInflux(ctx context.Context) {
	cfg := config.GetInfluxConfig()
	backup := filepath.Join(config.GetString("logsDir"), "boat_edits.lp.gz")
	m := influx.NewManager(a.dbLogger(), backup)
	if err := m.Connect(ctx, cfg); err != nil {
		if !errors.Is(err, influx.ErrDisabled) {
			a.logger.Warn("Edit audit disabled", "error", err)
		}
		return
	}
	a.influx = m
}

// newSession assembles the UI session. pos may be nil.
func (a *app) newSession(ctx context.Context, pos position.Provider) (*view.Session, error) {
	var audit edit.AuditSink
	if a.influx != nil {
		audit = a.influx
	}
	s, err := view.NewSession(ctx, view.SessionDeps{
		Backend:  a.backend,
		Bus:      a.bus,
		Position: pos,
		Map:      config.GetMapConfig(),
		Audit:    audit,
		OnToast:  func(n core.Notification) { printer.Toast(a.out, n) },
		Logger:   logging.Component(a.logger, "session"),
	})
	if err != nil {
		return nil, err
	}
	a.session = s
	return s, nil
}

// Close releases everything in reverse order of setup.
func (a *app) Close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Warn("Failed to close influx", "error", err)
		}
	}
	if a.bridge != nil {
		_ = a.bridge.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("Failed to close storage", "error", err)
		}
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otel.Shutdown(ctx)
		cancel()
	}
	if a.metrics != nil {
		_ = a.metrics.Close()
	}
	_ = a.logs.Close()
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// withSession runs fn against a fresh app and session.
func withSession(ctx context.Context, out io.Writer, pos position.Provider, fn func(*view.Session) error) error {
	a, err := newApp(ctx, out)
	if err != nil {
		return printer.Error(out, "Failed to start boatsync", err.Error(), "Check "+filepath.Join(configDir, config.FileName))
	}
	defer a.Close()

	s, err := a.newSession(ctx, pos)
	if err != nil {
		return printer.Error(out, "Invalid configuration", err.Error())
	}
	return fn(s)
}
