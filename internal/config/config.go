package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	BackgroundSourceDir = "dir"
	BackgroundSourceS3  = "s3"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Upload      UploadConfig
	Backgrounds BackgroundConfig
}

// LoadDotEnv copies the variables of the given .env files, or of ./.env without arguments, into
// the process environment. Variables that are already set win. A missing file is not an error.
func LoadDotEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case DriverMySQL, DriverSQLite:
		c.DB.Driver = strings.ToLower(c.DB.Driver)
	default:
		return fmt.Errorf("unsupported database driver %q", c.DB.Driver)
	}
	switch strings.ToLower(c.Backgrounds.Source) {
	case BackgroundSourceDir:
	case BackgroundSourceS3:
		if c.Backgrounds.S3Bucket == "" {
			return fmt.Errorf("SURF_S3_BUCKET is required when the background source is s3")
		}
	default:
		return fmt.Errorf("unsupported background source %q", c.Backgrounds.Source)
	}
	c.Backgrounds.Source = strings.ToLower(c.Backgrounds.Source)
	if c.Backgrounds.Opacity <= 0 || c.Backgrounds.Opacity > 1 {
		return fmt.Errorf("background opacity must be greater than 0 and at most 1, got %v", c.Backgrounds.Opacity)
	}
	if c.Upload.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size must be at least 1 MB")
	}
	return nil
}

type AppConfig struct {
	Env         string `envconfig:"SURF_APP_ENV" default:"dev"`
	Port        string `envconfig:"SURF_APP_PORT" default:"8080"`
	LogLevel    string `envconfig:"SURF_LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"SURF_LOG_FORMAT" default:"json"`
	LogRequests bool   `envconfig:"SURF_LOG_REQUESTS" default:"true"`
}

type DBConfig struct {
	Driver     string `envconfig:"SURF_DB_DRIVER" default:"mysql"`
	Host       string `envconfig:"SURF_DB_HOST" default:"localhost:3306"`
	User       string `envconfig:"SURF_DB_USER"`
	Password   string `envconfig:"SURF_DB_PASSWORD"`
	Name       string `envconfig:"SURF_DB_NAME" default:"contacts"`
	SQLitePath string `envconfig:"SURF_DB_SQLITE_PATH" default:"surf-contacts.db"`

	MaxOpenConns    int           `envconfig:"SURF_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SURF_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SURF_DB_CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"SURF_DB_AUTO_MIGRATE" default:"false"`
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"SURF_MAX_UPLOAD_MB" default:"50"`
}

// MaxBytes is the upload cap in bytes.
func (u UploadConfig) MaxBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

type BackgroundConfig struct {
	Source  string   `envconfig:"SURF_BACKGROUND_SOURCE" default:"dir"`
	Dir     string   `envconfig:"SURF_BACKGROUND_DIR" default:"public/backgrounds"`
	Files   []string `envconfig:"SURF_BACKGROUND_FILES" default:"kitesurf_action.png,kitesurf_sunset.png,kitesurf_beach.png,kitesurf_wave.png"`
	Opacity float64  `envconfig:"SURF_BACKGROUND_OPACITY" default:"0.3"`

	S3Bucket   string `envconfig:"SURF_S3_BUCKET"`
	S3Prefix   string `envconfig:"SURF_S3_PREFIX" default:"backgrounds/"`
	S3Region   string `envconfig:"SURF_S3_REGION" default:"eu-central-1"`
	S3Endpoint string `envconfig:"SURF_S3_ENDPOINT"`
}
