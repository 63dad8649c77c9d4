// =============================================================================
// Meter Reading Import - Configuration Module
// =============================================================================
//
// This module loads the application configuration from config.yaml.
//
// LOADING ORDER:
//   1. config.yaml (optional; a missing file means "all defaults")
//   2. Default values for every unset option
//   3. Environment overrides for secrets and endpoints:
//        METERIMPORT_LOG_LEVEL
//        METERIMPORT_DATABASE_DSN
//        METERIMPORT_REDIS_ADDR
//        METERIMPORT_REDIS_PASSWORD
//        METERIMPORT_JWT_SECRET
//        METERIMPORT_TENANT_ID
//   4. Struct validation
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/meter-reading-import/internal/mapping"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// TenantID scopes every database and cache access.
	// Default: "default"
	TenantID string `yaml:"tenant_id" validate:"required"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Import   ImportConfig   `yaml:"import"`
	Auth     AuthConfig     `yaml:"auth"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Report   ReportConfig   `yaml:"report"`
}

// DatabaseConfig configures the Postgres reading store and meter directory.
type DatabaseConfig struct {
	// DSN is a libpq style connection string or URL.
	// Empty means no database: "validate" checks against an empty meter
	// directory and "import" refuses to run.
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the optional meter directory cache.
type RedisConfig struct {
	// Addr is host:port. Empty disables the cache.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`

	// TTL is how long a cached directory snapshot is used.
	// Default: 5m
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ImportConfig holds the upload and import settings.
type ImportConfig struct {
	// MaxFileSizeBytes is the upload size cap.
	// Default: 5242880 (5 MB)
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" validate:"gt=0"`

	// TextExtensions are accepted as delimited text besides the workbook
	// formats (.xlsx, .xls).
	// Default: [".csv"]
	TextExtensions []string `yaml:"text_extensions" validate:"dive,required"`

	// CSVEncoding is the charset for delimited text that is not UTF-8.
	// Default: "windows-1252"
	CSVEncoding string `yaml:"csv_encoding"`

	// OverwriteDefault is the initial value of the overwrite option.
	// Default: false
	OverwriteDefault bool `yaml:"overwrite_default"`
}

// AuthConfig configures the identity recorded on imported readings.
type AuthConfig struct {
	// User is the static identity used when no token is given.
	User string `yaml:"user"`

	// JWTSecret verifies tokens passed with --token.
	JWTSecret string `yaml:"jwt_secret"`
}

// MappingConfig replaces the built-in column mapping rules.
type MappingConfig struct {
	// Rules are evaluated in order. Empty means the built-in rules.
	Rules []mapping.Rule `yaml:"rules" validate:"dive"`
}

// ReportConfig configures the report files.
type ReportConfig struct {
	// OutputDir receives issue logs and import summaries.
	// Default: "./reports"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives a copy of every imported source file.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveByDate files archived copies under YYYY/MM/DD subdirectories.
	// Default: false
	ArchiveByDate bool `yaml:"archive_by_date"`

	// WriteFiles enables the issue log and summary files.
	// Default: false
	WriteFiles bool `yaml:"write_files"`

	// MetricsFile is a Prometheus textfile path. Empty disables metrics.
	MetricsFile string `yaml:"metrics_file"`
}

// =============================================================================
// LOADING
// =============================================================================

// LoadMainConfig loads, completes and validates the configuration.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is
//     not an error.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file exists.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.TenantID == "" {
		config.TenantID = "default"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Redis.TTL == 0 {
		config.Redis.TTL = 5 * time.Minute
	}
	if config.Import.MaxFileSizeBytes == 0 {
		config.Import.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if len(config.Import.TextExtensions) == 0 {
		config.Import.TextExtensions = []string{".csv"}
	}
	if config.Import.CSVEncoding == "" {
		config.Import.CSVEncoding = "windows-1252"
	}
	if config.Report.OutputDir == "" {
		config.Report.OutputDir = "./reports"
	}
	if config.Report.ArchiveDir == "" {
		config.Report.ArchiveDir = "./archive"
	}
}

// envPrefix prefixes every environment override, e.g. METERIMPORT_DATABASE_DSN.
const envPrefix = "METERIMPORT"

// envOverrides are the options that may be set from the environment. Only
// the prefixed names are read; an unprefixed LOG_LEVEL or TENANT_ID is ignored.
type envOverrides struct {
	TenantID      string `split_words:"true"`
	LogLevel      string `split_words:"true"`
	DatabaseDSN   string `split_words:"true"`
	RedisAddr     string `split_words:"true"`
	RedisPassword string `split_words:"true"`
	JWTSecret     string `split_words:"true"`
}

// applyEnvOverrides copies non-empty environment values over the file values.
func applyEnvOverrides(config *MainConfig) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	set := func(target *string, value string) {
		if value = strings.TrimSpace(value); value != "" {
			*target = value
		}
	}
	set(&config.TenantID, env.TenantID)
	set(&config.LogLevel, env.LogLevel)
	set(&config.Database.DSN, env.DatabaseDSN)
	set(&config.Redis.Addr, env.RedisAddr)
	set(&config.Redis.Password, env.RedisPassword)
	set(&config.Auth.JWTSecret, env.JWTSecret)
	return nil
}

// validateMainConfig validates the configuration against its struct tags.
func validateMainConfig(config *MainConfig) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}
