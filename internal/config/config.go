package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for sentidash.
type Config struct {
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
	Export   Export   `yaml:"export"`
	Logging  Logging  `yaml:"logging"`
}

// Database selects the backing store and tunes its connection pool.
type Database struct {
	Driver          string        `yaml:"driver"` // "sqlite" or "postgres"
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	ConnectAttempts int           `yaml:"connect_attempts"` // startup reachability checks
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

// Server holds HTTP listener configuration.
type Server struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	StaticDir      string        `yaml:"static_dir"` // prebuilt dashboard, optional
	TopStocksLimit int           `yaml:"top_stocks_limit"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

// Export configures the Parquet snapshot tool.
type Export struct {
	DataDir     string   `yaml:"data_dir"`
	Windows     []string `yaml:"windows"` // days values, e.g. ["7", "30", "all"]
	Concurrency int      `yaml:"concurrency"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Addr returns the host:port the HTTP server listens on.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and fills defaults.
// A missing file is not an error: configuration may come entirely from the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot produce a working server.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.TopStocksLimit <= 0 {
		return fmt.Errorf("server.top_stocks_limit must be positive, got %d", c.Server.TopStocksLimit)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "data/sentidash.db"
	}
	if cfg.Database.ConnectAttempts <= 0 {
		cfg.Database.ConnectAttempts = 5
	}
	if cfg.Database.ConnectBackoff == 0 {
		cfg.Database.ConnectBackoff = time.Second
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.TopStocksLimit == 0 {
		cfg.Server.TopStocksLimit = 5
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownGrace == 0 {
		cfg.Server.ShutdownGrace = 5 * time.Second
	}
	if cfg.Export.DataDir == "" {
		cfg.Export.DataDir = "data/export"
	}
	if len(cfg.Export.Windows) == 0 {
		cfg.Export.Windows = []string{"7", "30", "all"}
	}
	if cfg.Export.Concurrency <= 0 {
		cfg.Export.Concurrency = 4
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}

	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = v
	}

	// Compose a Postgres URL from the docker-compose style variables.
	if db := os.Getenv("POSTGRES_DB"); db != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = postgresURL(
			envOr("POSTGRES_USER", "user"),
			envOr("POSTGRES_PASSWORD", "password"),
			envOr("POSTGRES_HOST", "localhost"),
			envOr("POSTGRES_PORT", "5432"),
			db,
		)
	}

	// DATABASE_URL wins over the individual variables.
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Export.DataDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func postgresURL(user, password, host, port, db string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + port,
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
