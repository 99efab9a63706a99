// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/regression"
)

// Config holds application configuration. It carries no process-wide
// mutable state; multiple Configs can coexist in one process (tests build
// their own without touching the environment).
type Config struct {
	DataDir          string // Base directory for the cache database (always absolute)
	EODHDAPIToken    string // EOD Historical Data API token
	UniverseFile     string // Path to the factor universe / instrument YAML
	AnalysisSchedule string // Cron spec for scheduled analysis refresh ("" disables)
	LogLevel         string
	Port             int
	DevMode          bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check STYLESCOPE_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path and ensure it exists
	dataDir := getEnv("STYLESCOPE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("PORT", 8010),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		EODHDAPIToken:    getEnv("EODHD_API_TOKEN", ""),
		UniverseFile:     getEnv("UNIVERSE_FILE", "universe.yml"),
		AnalysisSchedule: getEnv("ANALYSIS_SCHEDULE", ""), // e.g. "0 0 7 * * MON-FRI"
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Universe is the analysis configuration loaded from the YAML universe
// file: the ordered factor universe, the instruments to analyze, the date
// range and the return frequency. Factor order in the file is the column
// order of every result table.
type Universe struct {
	Factors     domain.FactorUniverse `yaml:"factors"`
	Instruments []string              `yaml:"instruments"`
	StartDate   string                `yaml:"start_date"` // YYYY-MM-DD
	EndDate     string                `yaml:"end_date"`   // YYYY-MM-DD
	Frequency   string                `yaml:"frequency"`  // daily | monthly
}

// LoadUniverse reads and validates the universe YAML file.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file %s: %w", path, err)
	}

	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file %s: %w", path, err)
	}

	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("invalid universe file %s: %w", path, err)
	}

	return &u, nil
}

// Validate checks the universe for structural problems before any data is
// fetched.
func (u *Universe) Validate() error {
	if err := u.Factors.Validate(); err != nil {
		return err
	}
	for _, f := range u.Factors {
		if f.Name == regression.ConstColumn {
			return fmt.Errorf("factor name %q is reserved for the intercept column", f.Name)
		}
	}
	if len(u.Instruments) == 0 {
		return fmt.Errorf("no instruments configured")
	}
	if _, err := u.Start(); err != nil {
		return err
	}
	if _, err := u.End(); err != nil {
		return err
	}
	if _, err := domain.ParseFrequency(u.Frequency); err != nil {
		return err
	}
	return nil
}

// Start parses the configured start date.
func (u *Universe) Start() (time.Time, error) {
	t, err := time.Parse("2006-01-02", u.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date %q: %w", u.StartDate, err)
	}
	return t, nil
}

// End parses the configured end date.
func (u *Universe) End() (time.Time, error) {
	t, err := time.Parse("2006-01-02", u.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end_date %q: %w", u.EndDate, err)
	}
	return t, nil
}

// ReturnFrequency parses the configured frequency. Validate has already
// checked it, so errors here only happen for hand-built Universe values.
func (u *Universe) ReturnFrequency() (domain.Frequency, error) {
	return domain.ParseFrequency(u.Frequency)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
