package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/sidesplit/internal/planner"
	"github.com/eugenenazirov/sidesplit/internal/storage"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxStoredPlans = 256
	defaultLogEncoding    = "json"

	defaultMaxDeadlineSeconds       = 10
	defaultAllocationRateLimitRPS   = 2.0
	defaultAllocationRateLimitBurst = 4
)

var (
	// ErrMissingInput is returned when the split command has no track list.
	ErrMissingInput = errors.New("input file is required")
	// ErrMissingCapacity is returned when no side capacity is configured.
	ErrMissingCapacity = errors.New("side capacity must be > 0")
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxStoredPlans       int

	// MaxDeadlineSeconds caps the search budget the API accepts. It must stay
	// below WriteTimeout because searches run inside the request.
	MaxDeadlineSeconds int
	// AllocationRateLimit* configure the bucket dedicated to POST /api/allocations.
	AllocationRateLimitRPS   float64
	AllocationRateLimitBurst int

	Debug       bool
	LogEncoding string

	// InputFile is only set by the split command.
	InputFile  string
	Allocation storage.Defaults
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	MaxStoredPlans       int            `yaml:"max_stored_plans"`
	MaxDeadlineSeconds   int            `yaml:"max_deadline_seconds"`
	RateLimit            yamlRateLimit  `yaml:"rate_limit"`
	Log                  yamlLog        `yaml:"log"`
	Allocation           yamlAllocation `yaml:"allocation"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS              *float64 `yaml:"rps"`
	Burst            *int     `yaml:"burst"`
	AllocationsRPS   *float64 `yaml:"allocations_rps"`
	AllocationsBurst *int     `yaml:"allocations_burst"`
}

type yamlLog struct {
	Debug    bool   `yaml:"debug"`
	Encoding string `yaml:"encoding"`
}

// yamlAllocation holds the default allocation settings. Capacity accepts
// "MM:SS", "HH:MM:SS" or plain seconds.
type yamlAllocation struct {
	Capacity        string   `yaml:"capacity"`
	Sides           *int     `yaml:"sides"`
	Even            *bool    `yaml:"even"`
	DeadlineSeconds *int     `yaml:"deadline_seconds"`
	Threshold       *float64 `yaml:"threshold"`
	Strategy        string   `yaml:"strategy"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	RateLimitRPS    *float64
	RateLimitBurst  *int
	MaxDeadline     *int
	AllocationRPS   *float64
	AllocationBurst *int
	Debug           *bool
	InputFile       *string
	Capacity        *string
	Sides           *int
	Even            *bool
	DeadlineSeconds *int
	Threshold       *float64
	Strategy        *string
}

// Load resolves configuration reading any YAML file from the OS filesystem.
func Load(overrides *CLIOverrides) (Config, error) {
	return LoadFs(afero.NewOsFs(), overrides)
}

// LoadFs extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func LoadFs(fs afero.Fs, overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(fs, overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	applyEnvConfig(&cfg)

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                     defaultPort,
		ShutdownGracePeriod:      10 * time.Second,
		ReadHeaderTimeout:        5 * time.Second,
		WriteTimeout:             15 * time.Second,
		IdleTimeout:              60 * time.Second,
		EnableRequestLogging:     true,
		RateLimitRPS:             defaultRateLimitRPS,
		RateLimitBurst:           defaultRateLimitBurst,
		MaxStoredPlans:           defaultMaxStoredPlans,
		MaxDeadlineSeconds:       defaultMaxDeadlineSeconds,
		AllocationRateLimitRPS:   defaultAllocationRateLimitRPS,
		AllocationRateLimitBurst: defaultAllocationRateLimitBurst,
		LogEncoding:              defaultLogEncoding,
		Allocation:               storage.DefaultSettings(),
	}
}

func loadFromFile(fs afero.Fs, path string) (*yamlConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.MaxStoredPlans > 0 {
		cfg.MaxStoredPlans = yamlCfg.MaxStoredPlans
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.RateLimit.AllocationsRPS != nil {
		cfg.AllocationRateLimitRPS = *yamlCfg.RateLimit.AllocationsRPS
	}
	if yamlCfg.RateLimit.AllocationsBurst != nil {
		cfg.AllocationRateLimitBurst = *yamlCfg.RateLimit.AllocationsBurst
	}
	if yamlCfg.MaxDeadlineSeconds > 0 {
		cfg.MaxDeadlineSeconds = yamlCfg.MaxDeadlineSeconds
	}

	if yamlCfg.Log.Debug {
		cfg.Debug = true
	}
	if yamlCfg.Log.Encoding != "" {
		cfg.LogEncoding = yamlCfg.Log.Encoding
	}

	alloc := yamlCfg.Allocation
	if alloc.Capacity != "" {
		seconds, err := track.ParseTime(alloc.Capacity)
		if err != nil {
			return fmt.Errorf("allocation capacity: %w", err)
		}
		cfg.Allocation.Capacity = seconds
	}
	if alloc.Sides != nil {
		cfg.Allocation.Sides = *alloc.Sides
	}
	if alloc.Even != nil {
		cfg.Allocation.Even = *alloc.Even
	}
	if alloc.DeadlineSeconds != nil {
		cfg.Allocation.DeadlineSeconds = *alloc.DeadlineSeconds
	}
	if alloc.Threshold != nil {
		cfg.Allocation.Threshold = *alloc.Threshold
	}
	if alloc.Strategy != "" {
		cfg.Allocation.Strategy = planner.Strategy(alloc.Strategy)
	}

	return nil
}

// applyEnvConfig applies environment variable configuration. Malformed
// values are ignored.
func applyEnvConfig(cfg *Config) {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if rps := env("ALLOCATION_RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.AllocationRateLimitRPS = value
		}
	}

	if burst := env("ALLOCATION_RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.AllocationRateLimitBurst = value
		}
	}

	if maxDeadline := env("SIDESPLIT_MAX_DEADLINE"); maxDeadline != "" {
		if value, err := strconv.Atoi(maxDeadline); err == nil && value > 0 {
			cfg.MaxDeadlineSeconds = value
		}
	}

	if debug := env("SIDESPLIT_DEBUG"); debug != "" {
		if value, err := strconv.ParseBool(debug); err == nil {
			cfg.Debug = value
		}
	}

	if capacity := env("SIDESPLIT_CAPACITY"); capacity != "" {
		if seconds, err := track.ParseTime(capacity); err == nil {
			cfg.Allocation.Capacity = seconds
		}
	}

	if sides := env("SIDESPLIT_SIDES"); sides != "" {
		if value, err := strconv.Atoi(sides); err == nil && value >= 0 {
			cfg.Allocation.Sides = value
		}
	}

	if even := env("SIDESPLIT_EVEN"); even != "" {
		if value, err := strconv.ParseBool(even); err == nil {
			cfg.Allocation.Even = value
		}
	}

	if deadline := env("SIDESPLIT_DEADLINE"); deadline != "" {
		if value, err := strconv.Atoi(deadline); err == nil && value >= 0 {
			cfg.Allocation.DeadlineSeconds = value
		}
	}

	if threshold := env("SIDESPLIT_THRESHOLD"); threshold != "" {
		if value, err := strconv.ParseFloat(threshold, 64); err == nil && value >= 0 {
			cfg.Allocation.Threshold = value
		}
	}

	if strategy := env("SIDESPLIT_STRATEGY"); strategy != "" {
		cfg.Allocation.Strategy = planner.Strategy(strategy)
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.AllocationRPS != nil && *overrides.AllocationRPS >= 0 {
		cfg.AllocationRateLimitRPS = *overrides.AllocationRPS
	}
	if overrides.AllocationBurst != nil && *overrides.AllocationBurst >= 0 {
		cfg.AllocationRateLimitBurst = *overrides.AllocationBurst
	}
	if overrides.MaxDeadline != nil && *overrides.MaxDeadline > 0 {
		cfg.MaxDeadlineSeconds = *overrides.MaxDeadline
	}
	if overrides.Debug != nil && *overrides.Debug {
		cfg.Debug = true
	}
	if overrides.InputFile != nil {
		cfg.InputFile = *overrides.InputFile
	}

	if overrides.Capacity != nil && *overrides.Capacity != "" {
		seconds, err := track.ParseTime(*overrides.Capacity)
		if err != nil {
			return fmt.Errorf("parse capacity: %w", err)
		}
		cfg.Allocation.Capacity = seconds
	}
	if overrides.Sides != nil {
		cfg.Allocation.Sides = *overrides.Sides
	}
	if overrides.Even != nil && *overrides.Even {
		cfg.Allocation.Even = true
	}
	if overrides.DeadlineSeconds != nil {
		cfg.Allocation.DeadlineSeconds = *overrides.DeadlineSeconds
	}
	if overrides.Threshold != nil {
		cfg.Allocation.Threshold = *overrides.Threshold
	}
	if overrides.Strategy != nil && *overrides.Strategy != "" {
		cfg.Allocation.Strategy = planner.Strategy(*overrides.Strategy)
	}

	return nil
}

// Validate checks settings shared by every command and normalises the
// allocation strategy.
func (c *Config) Validate() error {
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if c.MaxStoredPlans <= 0 {
		return fmt.Errorf("max stored plans must be > 0")
	}
	if c.AllocationRateLimitRPS < 0 || c.AllocationRateLimitBurst < 0 {
		return fmt.Errorf("allocation rate limit must be >= 0")
	}
	if c.MaxDeadlineSeconds <= 0 {
		return fmt.Errorf("max deadline must be > 0")
	}
	if c.WriteTimeout > 0 && time.Duration(c.MaxDeadlineSeconds)*time.Second >= c.WriteTimeout {
		return fmt.Errorf("max deadline %ds must be shorter than the write timeout %s", c.MaxDeadlineSeconds, c.WriteTimeout)
	}
	switch c.LogEncoding {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log encoding %q", c.LogEncoding)
	}

	alloc, err := storage.NormalizeDefaults(c.Allocation, 0)
	if err != nil {
		return err
	}
	c.Allocation = alloc
	return nil
}

// ValidateSplit checks the preconditions of the split command.
func (c Config) ValidateSplit() error {
	if strings.TrimSpace(c.InputFile) == "" {
		return ErrMissingInput
	}
	if c.Allocation.Capacity <= 0 {
		return ErrMissingCapacity
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
