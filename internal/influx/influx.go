package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/OCAP2/boatsync/pkg/core"
)

// Measurement is the InfluxDB measurement edit outcomes are written to.
const Measurement = "boat_edit"

// ErrDisabled is returned by Connect when influx is switched off in config.
var ErrDisabled = errors.New("influx is disabled")

// Manager writes edit outcomes to InfluxDB, or to a gzipped line protocol
// backup file when the server is unreachable.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect(ctx context.Context, cfg config.InfluxConfig) error {
	if !cfg.Enabled {
		return ErrDisabled
	}
	m.cfg = cfg

	m.Client = influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(100).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Info().Str("backupPath", m.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.Logger.Info().Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influx unreachable and no backup path configured")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure the bucket exists with 90 day retention
	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid {
		m.Writer.WritePoint(point)
		return nil
	}
	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}

	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if !strings.HasSuffix(lineProtocol, "\n") {
		lineProtocol += "\n"
	}
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// RecordEdit writes one point per boat in the session.
func (m *Manager) RecordEdit(_ context.Context, outcome core.EditOutcome) error {
	for _, point := range EditPoints(outcome) {
		if err := m.WritePoint(point); err != nil {
			return err
		}
	}
	return nil
}

// EditPoints converts an edit outcome into line protocol points.
func EditPoints(outcome core.EditOutcome) []*influxdb2_write.Point {
	result := "error"
	if outcome.Success {
		result = "success"
	}

	points := make([]*influxdb2_write.Point, 0, len(outcome.Drafts))
	for _, d := range outcome.Drafts {
		fields := make([]string, 0, len(d.Fields))
		for name := range d.Fields {
			fields = append(fields, name)
		}
		sort.Strings(fields)

		points = append(points, influxdb2.NewPoint(
			Measurement,
			map[string]string{
				"boat_id": d.EntityID,
				"outcome": result,
			},
			map[string]interface{}{
				"fields":      strings.Join(fields, ","),
				"field_count": len(fields),
				"batch_size":  len(outcome.Drafts),
				"duration_ms": outcome.Duration.Milliseconds(),
			},
			outcome.Started,
		))
	}
	return points
}

// Close flushes pending writes and closes the client or backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	if m.BackupWriter != nil {
		if err := m.BackupWriter.Close(); err != nil {
			return err
		}
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		err := m.backupFile.Close()
		m.backupFile = nil
		return err
	}
	return nil
}
