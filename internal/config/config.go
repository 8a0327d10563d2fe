package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// CredentialsEnv carries the base64-encoded service-account JSON.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS_JSON"

// BackupDisabled turns the snapshot schedule off when used as BACKUP_CRON_SCHEDULE.
const BackupDisabled = "off"

// ConfigError reports a missing or malformed configuration value.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrMissing indicates a required variable was not set.
var ErrMissing = errors.New("must be provided")

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Backup  BackupConfig
	MongoDB MongoDBConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StorageConfig describes the bucket and the object keys the service reads and writes.
type StorageConfig struct {
	Bucket          string
	Endpoint        string
	CredentialsJSON []byte
	HarvestFile     string
	NamesFile       string
	LocationsFile   string
	CropsFile       string
}

// BackupConfig holds snapshot scheduling settings.
type BackupConfig struct {
	CronSchedule string
	Timezone     string
	Prefix       string
}

// Enabled reports whether snapshots are scheduled.
func (b BackupConfig) Enabled() bool {
	return b.CronSchedule != "" && !strings.EqualFold(b.CronSchedule, BackupDisabled)
}

// MongoDBConfig holds settings for the optional submission audit log.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether an audit store was configured.
func (m MongoDBConfig) Enabled() bool {
	return m.URI != ""
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	creds, err := DecodeCredentials(os.Getenv(CredentialsEnv))
	if err != nil {
		return nil, &ConfigError{Key: CredentialsEnv, Err: err}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Storage: StorageConfig{
			Bucket:          getenvWithDefault("GCS_BUCKET", "harvest-data-storage1"),
			Endpoint:        os.Getenv("GCS_ENDPOINT"),
			CredentialsJSON: creds,
			HarvestFile:     getenvWithDefault("HARVEST_FILE", "harvest_data.csv"),
			NamesFile:       getenvWithDefault("NAMES_FILE", "姓名.csv"),
			LocationsFile:   getenvWithDefault("LOCATIONS_FILE", "採收位置.csv"),
			CropsFile:       getenvWithDefault("CROPS_FILE", "採收作物.csv"),
		},
		Backup: BackupConfig{
			CronSchedule: getenvWithDefault("BACKUP_CRON_SCHEDULE", "0 3 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Taipei"),
			Prefix:       getenvWithDefault("BACKUP_PREFIX", "backups/"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "harvest"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch {
	case c.Server.Port == "":
		return &ConfigError{Key: "APP_PORT", Err: ErrMissing}
	case len(c.Storage.CredentialsJSON) == 0:
		return &ConfigError{Key: CredentialsEnv, Err: ErrMissing}
	case c.Storage.Bucket == "":
		return &ConfigError{Key: "GCS_BUCKET", Err: ErrMissing}
	case c.Storage.HarvestFile == "":
		return &ConfigError{Key: "HARVEST_FILE", Err: ErrMissing}
	case c.Storage.NamesFile == "":
		return &ConfigError{Key: "NAMES_FILE", Err: ErrMissing}
	case c.Storage.LocationsFile == "":
		return &ConfigError{Key: "LOCATIONS_FILE", Err: ErrMissing}
	case c.Storage.CropsFile == "":
		return &ConfigError{Key: "CROPS_FILE", Err: ErrMissing}
	}

	if c.Backup.Enabled() && c.Backup.Timezone == "" {
		return &ConfigError{Key: "TIMEZONE", Err: ErrMissing}
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return &ConfigError{Key: "MONGODB_DB_NAME", Err: ErrMissing}
	}

	return nil
}

// DecodeCredentials turns the base64 environment value into service-account
// JSON. Stripped base64 padding is restored before decoding.
func DecodeCredentials(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, ErrMissing
	}

	if missing := len(encoded) % 4; missing != 0 {
		encoded += strings.Repeat("=", 4-missing)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse credentials json: %w", err)
	}

	return raw, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
