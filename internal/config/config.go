// Package config loads agritrace settings from an optional config file and
// AGRITRACE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/shubh1021/AgriTrace/internal/blob"
	"github.com/shubh1021/AgriTrace/internal/core"
	"github.com/shubh1021/AgriTrace/internal/logging"
)

// EnvPrefix namespaces environment overrides, e.g. AGRITRACE_STORAGE_DRIVER.
const EnvPrefix = "AGRITRACE"

// Config is the full application configuration.
type Config struct {
	BaseURL string         `mapstructure:"base_url"`
	Storage StorageConfig  `mapstructure:"storage"`
	Blob    BlobConfig     `mapstructure:"blob"`
	Log     logging.Config `mapstructure:"log"`
}

// StorageConfig selects the batch store.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// BlobConfig selects the provenance archive.
type BlobConfig struct {
	Driver string   `mapstructure:"driver"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 archive backend.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	PathStyle       bool   `mapstructure:"path_style"`
}

var defaults = map[string]any{
	"base_url":                  core.DefaultBaseURL,
	"storage.driver":            string(core.StorageSQLite),
	"storage.sqlite_path":       core.DefaultSQLitePath,
	"storage.postgres_dsn":      core.DefaultPostgresDSN,
	"blob.driver":               string(blob.DriverFilesystem),
	"blob.fs_root":              blob.DefaultFSRoot,
	"blob.s3.region":            "us-east-1",
	"blob.s3.bucket":            "",
	"blob.s3.prefix":            "",
	"blob.s3.endpoint":          "",
	"blob.s3.access_key_id":     "",
	"blob.s3.secret_access_key": "",
	"blob.s3.session_token":     "",
	"blob.s3.path_style":        false,
	"log.level":                 logging.Defaults.Level,
	"log.format":                logging.Defaults.Format,
	"log.output":                logging.Defaults.Output,
	"log.time_format":           logging.Defaults.TimeFormat,
	"log.utc":                   logging.Defaults.UTC,
	"log.file.filename":         logging.Defaults.File.Filename,
	"log.file.max_size_mb":      logging.Defaults.File.MaxSizeMB,
	"log.file.max_backups":      logging.Defaults.File.MaxBackups,
	"log.file.max_age_days":     logging.Defaults.File.MaxAgeDays,
	"log.file.compress":         logging.Defaults.File.Compress,
}

// New returns a viper instance with defaults and environment binding. When
// path is empty it looks for agritrace.{yaml,json,toml} in the working
// directory and $HOME/.agritrace.
func New(path string) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agritrace")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.agritrace")
	}
	return v
}

// Load reads configuration. A missing config file is only an error when path
// names it explicitly.
func Load(path string) (Config, error) {
	return LoadFrom(New(path))
}

// LoadFrom reads and decodes v.
func LoadFrom(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and incomplete S3 settings.
func (c Config) Validate() error {
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, sqlite, postgres", c.Storage.Driver)
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("blob.driver %q is not one of fs, s3, memory", c.Blob.Driver)
	}
	return nil
}

// StorageConfig maps the storage section onto the core store selector.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}

// BlobConfig maps the blob section onto the archive selector.
func (c Config) BlobConfig() blob.Config {
	s3 := c.Blob.S3
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          s3.Region,
			Bucket:          s3.Bucket,
			Prefix:          s3.Prefix,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			SessionToken:    s3.SessionToken,
			PathStyle:       s3.PathStyle,
		},
	}
}
