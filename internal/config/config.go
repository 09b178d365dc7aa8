package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "boatsync.cfg.json"

// StorageConfig selects and configures the boat data backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"` // memory, sqlite or postgres
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	DB     DBConfig     `json:"db" mapstructure:"db"`
}

// SQLiteConfig holds SQLite backend settings. An empty Path means in-memory.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// DSN returns the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		c.Host, c.Port, c.Username, c.Password, c.Database)
}

// MapConfig holds map fragment settings.
type MapConfig struct {
	DefaultLatitude  float64       `json:"defaultLatitude" mapstructure:"defaultLatitude"`
	DefaultLongitude float64       `json:"defaultLongitude" mapstructure:"defaultLongitude"`
	MarkerLimit      int           `json:"markerLimit" mapstructure:"markerLimit"`
	PositionTimeout  time.Duration `json:"positionTimeout" mapstructure:"positionTimeout"`
}

// RedisConfig configures the cross-session bus bridge.
type RedisConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	Address       string `json:"address" mapstructure:"address"`
	Password      string `json:"password" mapstructure:"password"`
	DB            int    `json:"db" mapstructure:"db"`
	ChannelPrefix string `json:"channelPrefix" mapstructure:"channelPrefix"`
}

// InfluxConfig configures the edit audit sink.
type InfluxConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Token   string `json:"token" mapstructure:"token"`
	Org     string `json:"org" mapstructure:"org"`
	Bucket  string `json:"bucket" mapstructure:"bucket"`
}

// OTelConfig configures the metrics exporter.
type OTelConfig struct {
	Enabled        bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName    string        `json:"serviceName" mapstructure:"serviceName"`
	ExportInterval time.Duration `json:"exportInterval" mapstructure:"exportInterval"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./boatsynclogs")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "boats")

	viper.SetDefault("map.defaultLatitude", 50.52649475739886)
	viper.SetDefault("map.defaultLongitude", 10.02004164522074)
	viper.SetDefault("map.markerLimit", 10)
	viper.SetDefault("map.positionTimeout", "5s")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.channelPrefix", "boatsync")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.url", "http://localhost:8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "boatsync")
	viper.SetDefault("influx.bucket", "boat-edits")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "boatsync")
	viper.SetDefault("otel.exportInterval", "30s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// LoadDefaults registers defaults without reading a file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section. Postgres settings live under
// the top-level "db" key.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}

// GetMapConfig returns the map section.
func GetMapConfig() MapConfig {
	return MapConfig{
		DefaultLatitude:  viper.GetFloat64("map.defaultLatitude"),
		DefaultLongitude: viper.GetFloat64("map.defaultLongitude"),
		MarkerLimit:      viper.GetInt("map.markerLimit"),
		PositionTimeout:  viper.GetDuration("map.positionTimeout"),
	}
}

// GetRedisConfig returns the redis section.
func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:       viper.GetBool("redis.enabled"),
		Address:       viper.GetString("redis.address"),
		Password:      viper.GetString("redis.password"),
		DB:            viper.GetInt("redis.db"),
		ChannelPrefix: viper.GetString("redis.channelPrefix"),
	}
}

// GetInfluxConfig returns the influx section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL:     viper.GetString("influx.url"),
		Token:   viper.GetString("influx.token"),
		Org:     viper.GetString("influx.org"),
		Bucket:  viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
	}
}
