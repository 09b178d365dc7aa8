package database

import (
	"database/sql"
	"fmt"

	"github.com/OCAP2/boatsync/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB      *gorm.DB
	SqlDB   *sql.DB
	IsValid bool
	Logger  zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens the database selected by cfg.Type. A postgres connection that
// cannot be validated falls back to SQLite at cfg.SQLite.Path.
func (m *Manager) Connect(cfg config.StorageConfig) error {
	var err error

	switch cfg.Type {
	case "postgres":
		m.DB, err = m.GetPostgresDB(cfg.DB)
		if err == nil {
			err = m.ping()
		}
		if err != nil {
			m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
			m.DB, err = m.GetSqliteDB(cfg.SQLite.Path)
		}
	case "sqlite":
		m.DB, err = m.GetSqliteDB(cfg.SQLite.Path)
	default:
		return fmt.Errorf("storage type %q has no database", cfg.Type)
	}
	if err != nil || m.DB == nil {
		m.IsValid = false
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := m.ping(); err != nil {
		m.IsValid = false
		return err
	}
	m.IsValid = true
	m.Logger.Info().Str("dialect", m.DB.Dialector.Name()).Msg("Connected to database")
	return nil
}

func (m *Manager) ping() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	m.SqlDB = sqlDB
	return nil
}

// GetPostgresDB returns a connection to the Postgres database.
func (m *Manager) GetPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	m.Logger.Debug().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connecting to Postgres DB")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path != "" {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Migrate ensures PostGIS on Postgres and migrates the given models.
func (m *Manager) Migrate(models ...any) error {
	if m.DB.Dialector.Name() == "postgres" {
		if err := m.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		m.Logger.Info().Msg("PostGIS Extension created")
	}

	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(models...); err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}
