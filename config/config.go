// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kyipho/wikilynx/models"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

// DBUserConfig is one set of database credentials.
type DBUserConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type DatabaseConfig struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	DBName string `yaml:"dbname"`
	// Reader only needs SELECT privileges. It backs /api/query, /api/category
	// and the SQL registry reader.
	Reader DBUserConfig `yaml:"reader"`
	// Admin runs the refresh: DROP/CREATE/INSERT from dumps and registry updates.
	Admin DBUserConfig `yaml:"admin"`

	MaxOpenConns       int           `yaml:"max_open_conns"`
	ConnMaxLifetimeStr string        `yaml:"conn_max_lifetime"`
	ConnMaxLifetime    time.Duration `yaml:"-"` // Parsed duration
}

type DumpsConfig struct {
	BaseURL string   `yaml:"base_url"`
	Dataset string   `yaml:"dataset"`
	Tables  []string `yaml:"tables"`
}

type RegistryConfig struct {
	// QueryAPIURL, when set, makes the refresh read table_dates through a
	// /api/query endpoint instead of the reader connection.
	QueryAPIURL string `yaml:"query_api_url"`
}

type RefreshConfig struct {
	ScratchDir string `yaml:"scratch_dir"`
	// CascadeScript is the downstream SQL run after all tables are replaced.
	// Empty means the built-in script.
	CascadeScript string `yaml:"cascade_script"`
}

type HTTPConfig struct {
	ListingTimeoutStr  string        `yaml:"listing_timeout"`
	DownloadTimeoutStr string        `yaml:"download_timeout"`
	ListingTimeout     time.Duration `yaml:"-"`
	DownloadTimeout    time.Duration `yaml:"-"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Dumps    DumpsConfig    `yaml:"dumps"`
	Registry RegistryConfig `yaml:"registry"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	HTTP     HTTPConfig     `yaml:"http"`
	LogLevel string         `yaml:"log_level"`
}

const (
	DefaultDumpsBaseURL    = "https://dumps.wikimedia.org/simplewiki/latest/"
	DefaultListingTimeout  = 20 * time.Second
	DefaultDownloadTimeout = 10 * time.Minute
)

// potentialPaths are tried in order when no config path is given.
var potentialPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"../config/config.yaml",
}

// Default returns a configuration that only lacks database credentials.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:         "127.0.0.1",
			Port:         "3306",
			DBName:       "wikilynx",
			MaxOpenConns: 10,
		},
		Dumps: DumpsConfig{
			BaseURL: DefaultDumpsBaseURL,
			Dataset: models.DefaultDataset,
			Tables:  append([]string(nil), models.DefaultTables...),
		},
		Refresh:  RefreshConfig{ScratchDir: "./scratch"},
		LogLevel: "info",
	}
}

// LoadConfig reads configuration from a YAML file, a .env file in the working
// directory and WIKILYNX_* environment variables, later sources winning.
// An empty configPath searches the usual locations and falls back to defaults.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configPath == "" {
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.Port, "WIKILYNX_SERVER_PORT")
	setFromEnv(&cfg.Database.Host, "WIKILYNX_DB_HOST")
	setFromEnv(&cfg.Database.Port, "WIKILYNX_DB_PORT")
	setFromEnv(&cfg.Database.DBName, "WIKILYNX_DB_NAME")
	setFromEnv(&cfg.Database.Reader.User, "WIKILYNX_DB_READER_USER")
	setFromEnv(&cfg.Database.Reader.Password, "WIKILYNX_DB_READER_PASSWORD")
	setFromEnv(&cfg.Database.Admin.User, "WIKILYNX_DB_ADMIN_USER")
	setFromEnv(&cfg.Database.Admin.Password, "WIKILYNX_DB_ADMIN_PASSWORD")
	setFromEnv(&cfg.Dumps.BaseURL, "WIKILYNX_DUMPS_BASE_URL")
	setFromEnv(&cfg.Registry.QueryAPIURL, "WIKILYNX_QUERY_API_URL")
	setFromEnv(&cfg.Refresh.ScratchDir, "WIKILYNX_SCRATCH_DIR")
	setFromEnv(&cfg.Refresh.CascadeScript, "WIKILYNX_CASCADE_SCRIPT")
	setFromEnv(&cfg.LogLevel, "WIKILYNX_LOG_LEVEL")
}

func setFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (cfg *Config) finalize() error {
	var err error

	// Parse durations
	cfg.HTTP.ListingTimeout, err = parseDuration(cfg.HTTP.ListingTimeoutStr, DefaultListingTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse listing_timeout: %w", err)
	}
	cfg.HTTP.DownloadTimeout, err = parseDuration(cfg.HTTP.DownloadTimeoutStr, DefaultDownloadTimeout)
	if err != nil {
		return fmt.Errorf("failed to parse download_timeout: %w", err)
	}
	cfg.Database.ConnMaxLifetime, err = parseDuration(cfg.Database.ConnMaxLifetimeStr, 5*time.Minute)
	if err != nil {
		return fmt.Errorf("failed to parse conn_max_lifetime: %w", err)
	}

	if cfg.Dumps.BaseURL == "" {
		return fmt.Errorf("dumps.base_url is not configured")
	}
	// file URLs are built as base_url + file_name
	if !strings.HasSuffix(cfg.Dumps.BaseURL, "/") {
		cfg.Dumps.BaseURL += "/"
	}
	if cfg.Refresh.ScratchDir == "" {
		return fmt.Errorf("refresh.scratch_dir is not configured")
	}
	cfg.Refresh.ScratchDir = filepath.Clean(cfg.Refresh.ScratchDir)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// Catalog builds the table catalog from the dumps section.
func (cfg *Config) Catalog() (*models.Catalog, error) {
	return models.NewCatalog(cfg.Dumps.Dataset, cfg.Dumps.Tables)
}
