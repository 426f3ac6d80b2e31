// ABOUTME: Runtime configuration loaded from environment and .env files
// ABOUTME: Resolves store, paging, logging, web and export defaults
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/harperreed/nexuscrm/models"
)

// AppName is used for XDG directories.
const AppName = "nexuscrm"

type Config struct {
	// DBPath is the SQLite DSN for the contact store. The default keeps
	// everything in memory for the lifetime of the process.
	DBPath      string `env:"NEXUSCRM_DB_PATH" envDefault:":memory:"`
	SeedFixture bool   `env:"NEXUSCRM_SEED_FIXTURE" envDefault:"true"`

	PerPage         int  `env:"NEXUSCRM_PER_PAGE" envDefault:"25"`
	FuzzyMapping    bool `env:"NEXUSCRM_FUZZY_MAPPING" envDefault:"false"`
	DateRangeFilter bool `env:"NEXUSCRM_DATE_RANGE_FILTER" envDefault:"false"`

	LogLevel  string `env:"NEXUSCRM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"NEXUSCRM_LOG_FORMAT" envDefault:"text"`

	WebPort   int    `env:"NEXUSCRM_WEB_PORT" envDefault:"8080"`
	ExportDir string `env:"NEXUSCRM_EXPORT_DIR"`
}

// LoadEnv loads whichever of the given .env files exist. Missing files are skipped.
func LoadEnv(envFiles ...string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}

	if len(existing) == 0 {
		return 0, nil
	}

	return len(existing), godotenv.Load(existing...)
}

// Load reads .env files from the working directory and parses the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv(".env", ".env.local"); err != nil {
		return nil, errors.Wrap(err, "failed to load .env files")
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if !models.ValidPerPage(cfg.PerPage) {
		return nil, errors.Errorf("NEXUSCRM_PER_PAGE must be one of %v, got %d", models.PerPageOptions, cfg.PerPage)
	}
	if cfg.WebPort <= 0 || cfg.WebPort > 65535 {
		return nil, errors.Errorf("NEXUSCRM_WEB_PORT out of range: %d", cfg.WebPort)
	}

	if cfg.ExportDir == "" {
		cfg.ExportDir = DefaultExportDir()
	}

	return cfg, nil
}

// DefaultExportDir is the user's download directory, or the XDG data dir
// when no download directory is known.
func DefaultExportDir() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return filepath.Join(xdg.DataHome, AppName, "exports")
}
