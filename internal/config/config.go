package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/zeromicro/go-zero/core/logx"
)

// Catalog sources
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port         string        `default:"8080" envconfig:"PORT"`
		ReadTimeout  time.Duration `default:"30s" envconfig:"READ_TIMEOUT"`
		WriteTimeout time.Duration `default:"30s" envconfig:"WRITE_TIMEOUT"`
	}

	Catalog struct {
		Source string `default:"embedded" envconfig:"CATALOG_SOURCE"` // embedded, file, postgres
		Path   string `default:"./data/catalog.json" envconfig:"CATALOG_PATH"`
		Watch  bool   `default:"true" envconfig:"CATALOG_WATCH"`
	}

	Database struct {
		URL      string `envconfig:"DATABASE_URL"`
		MaxConns int32  `default:"10" envconfig:"DB_MAX_CONNS"`
	}

	OpenAI struct {
		APIKey  string `envconfig:"OPENAI_API_KEY"`
		Model   string `default:"gpt-4o-mini" envconfig:"OPENAI_MODEL"`
		BaseURL string `envconfig:"OPENAI_BASE_URL"`
	}

	Session struct {
		IdleTTL       time.Duration `default:"30m" envconfig:"SESSION_IDLE_TTL"`
		SweepInterval time.Duration `default:"1m" envconfig:"SESSION_SWEEP_INTERVAL"`
	}

	Log struct {
		ServiceName string `default:"shopassist" envconfig:"SERVICE_NAME"`
		Level       string `default:"info" envconfig:"LOG_LEVEL"`
		Encoding    string `default:"plain" envconfig:"LOG_ENCODING"` // plain, json
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config load: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogFile:
		if c.Catalog.Path == "" {
			return fmt.Errorf("config: CATALOG_PATH is required for file catalog")
		}
	case CatalogPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for postgres catalog")
		}
	default:
		return fmt.Errorf("config: unknown CATALOG_SOURCE %q", c.Catalog.Source)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("config: SESSION_IDLE_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("config: SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Log.Encoding != "plain" && c.Log.Encoding != "json" {
		return fmt.Errorf("config: LOG_ENCODING must be plain or json, got %q", c.Log.Encoding)
	}
	return nil
}

// InsightEnabled reports whether an OpenAI key was configured
func (c *Config) InsightEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// LogConf maps the log settings onto logx
func (c *Config) LogConf() logx.LogConf {
	return logx.LogConf{
		ServiceName: c.Log.ServiceName,
		Mode:        "console",
		Encoding:    c.Log.Encoding,
		Level:       c.Log.Level,
	}
}
