package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists in the searched directories
var ErrConfigNotFound = errors.New("config file not found in current directory or home directory")

// DefaultSessionRRule starts a camp session every Monday through the summer
const DefaultSessionRRule = "FREQ=WEEKLY;BYDAY=MO;BYMONTH=6,7,8"

// Config represents the application configuration
type Config struct {
	// CatalogFile overrides the built-in camp catalog when set
	CatalogFile string `yaml:"catalogFile,omitempty"`

	FillPolicy           string `yaml:"fillPolicy,omitempty" validate:"omitempty,oneof=preference-first defaults-only"`
	MaxRepairRounds      int    `yaml:"maxRepairRounds,omitempty" validate:"min=0"`
	ProtectedRank        int    `yaml:"protectedRank,omitempty" validate:"min=0,max=20"`
	StaffSpreadThreshold int    `yaml:"staffSpreadThreshold,omitempty" validate:"min=0"`
	MaxForcedViolations  int    `yaml:"maxForcedViolations,omitempty" validate:"min=0"`
	MaxConcurrentRuns    int    `yaml:"maxConcurrentRuns,omitempty" validate:"min=0,max=64"`

	// SessionRRule is the recurrence of camp session start dates
	SessionRRule string `yaml:"sessionRRule,omitempty"`

	// DatabaseURL is optional; DATABASE_URL in the environment (or .env) takes precedence
	DatabaseURL string `yaml:"databaseURL,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from scheduler_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads scheduler_config_<env>.yaml, falling back to scheduler_config.yaml
func LoadWithEnv(env string) (*Config, error) {
	names := []string{"scheduler_config.yaml"}
	if env != "" {
		names = append([]string{fmt.Sprintf("scheduler_config_%s.yaml", env)}, names...)
	}

	configPath, err := findConfigFile(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists; .env and DATABASE_URL still apply
func Default() (*Config, error) {
	var cfg Config
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// applyEnv loads .env if present and lets DATABASE_URL override the file
func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	return nil
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.FillPolicy == "" {
		c.FillPolicy = "preference-first"
	}
	if c.MaxRepairRounds == 0 {
		c.MaxRepairRounds = 25
	}
	if c.ProtectedRank == 0 {
		c.ProtectedRank = 15
	}
	if c.StaffSpreadThreshold == 0 {
		c.StaffSpreadThreshold = 2
	}
	if c.MaxForcedViolations == 0 {
		c.MaxForcedViolations = 2
	}
	if c.MaxConcurrentRuns == 0 {
		c.MaxConcurrentRuns = 4
	}
	if c.SessionRRule == "" {
		c.SessionRRule = DefaultSessionRRule
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	// Run struct validation
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.SessionRRule != "" {
		if _, err := rrule.StrToRRule(cfg.SessionRRule); err != nil {
			return fmt.Errorf("invalid rrule in sessionRRule: %w", err)
		}
	}

	return nil
}

// SessionWeeks returns the start dates of the next count sessions on or after from
func (c *Config) SessionWeeks(from time.Time, count int) ([]time.Time, error) {
	rule := c.SessionRRule
	if rule == "" {
		rule = DefaultSessionRRule
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("invalid rrule in sessionRRule: %w", err)
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	r.DTStart(start)

	var weeks []time.Time
	next := r.After(start, true)
	for len(weeks) < count && !next.IsZero() {
		weeks = append(weeks, next)
		next = r.After(next, false)
	}
	return weeks, nil
}

// findConfigFile searches for the first named config file in the current directory, then the home directory
func findConfigFile(names ...string) (string, error) {
	// Check current directory
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	for _, name := range names {
		homeConfigPath := filepath.Join(homeDir, name)
		if _, err := os.Stat(homeConfigPath); err == nil {
			return homeConfigPath, nil
		}
	}

	return "", ErrConfigNotFound
}
