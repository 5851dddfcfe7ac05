package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	TimezoneOffsetHours int          `yaml:"timezone_offset_hours"`
	Paths               PathsConfig  `yaml:"paths"`
	LLM                 LLMConfig    `yaml:"llm"`
	Render              RenderConfig `yaml:"render"`
	Server              ServerConfig `yaml:"server"`
}

type PathsConfig struct {
	HealthDir   string `yaml:"health_dir"`
	WorkoutDir  string `yaml:"workout_dir"`
	TemplateDir string `yaml:"template_dir"` // empty: use embedded templates
	OutputDir   string `yaml:"output_dir"`
	CacheDir    string `yaml:"cache_dir"`
}

type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"` // OpenAI-compatible endpoint override
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RenderConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	GraceSeconds   int `yaml:"grace_seconds"` // wait for chart scripts before printing
}

type ServerConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	APIKey    string          `yaml:"api_key"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Timeout returns the LLM call deadline (60s ceiling).
func (l LLMConfig) Timeout() time.Duration {
	secs := l.TimeoutSeconds
	if secs <= 0 || secs > 60 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}

// Timeout returns the renderer deadline (30s ceiling).
func (r RenderConfig) Timeout() time.Duration {
	secs := r.TimeoutSeconds
	if secs <= 0 || secs > 30 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// Grace returns the post-load wait that lets chart scripts finish.
func (r RenderConfig) Grace() time.Duration {
	secs := r.GraceSeconds
	if secs <= 0 {
		secs = 5
	}
	return time.Duration(secs) * time.Second
}

// Location returns the fixed report time zone built from the configured
// offset. Every wall-clock decision (attribution window, date boundaries)
// uses this single zone.
func (c *Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TimezoneOffsetHours), c.TimezoneOffsetHours*3600)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A .env file next to the working directory is honored first.
// Env vars use the prefix PULSEREPORT_ and underscore-separated paths:
//
//	PULSEREPORT_TZ_OFFSET_HOURS,
//	PULSEREPORT_HEALTH_DIR, PULSEREPORT_WORKOUT_DIR,
//	PULSEREPORT_TEMPLATE_DIR, PULSEREPORT_OUTPUT_DIR, PULSEREPORT_CACHE_DIR,
//	PULSEREPORT_LLM_API_KEY, PULSEREPORT_LLM_MODEL, PULSEREPORT_LLM_BASE_URL,
//	PULSEREPORT_SERVER_HOST, PULSEREPORT_SERVER_PORT, PULSEREPORT_API_KEY
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No file: defaults plus env overrides.
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		TimezoneOffsetHours: 8,
		Paths: PathsConfig{
			HealthDir:  "Health Data",
			WorkoutDir: "Workout Data",
			OutputDir:  "reports",
			CacheDir:   "cache/daily",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Render: RenderConfig{
			TimeoutSeconds: 30,
			GraceSeconds:   5,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PULSEREPORT_TZ_OFFSET_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimezoneOffsetHours = n
		}
	}
	if v := os.Getenv("PULSEREPORT_HEALTH_DIR"); v != "" {
		cfg.Paths.HealthDir = v
	}
	if v := os.Getenv("PULSEREPORT_WORKOUT_DIR"); v != "" {
		cfg.Paths.WorkoutDir = v
	}
	if v := os.Getenv("PULSEREPORT_TEMPLATE_DIR"); v != "" {
		cfg.Paths.TemplateDir = v
	}
	if v := os.Getenv("PULSEREPORT_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv("PULSEREPORT_CACHE_DIR"); v != "" {
		cfg.Paths.CacheDir = v
	}
	if v := os.Getenv("PULSEREPORT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PULSEREPORT_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PULSEREPORT_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("PULSEREPORT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PULSEREPORT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PULSEREPORT_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.TimezoneOffsetHours < -12 || c.TimezoneOffsetHours > 14 {
		return fmt.Errorf("timezone_offset_hours %d out of range", c.TimezoneOffsetHours)
	}
	if c.Paths.HealthDir == "" {
		return fmt.Errorf("paths.health_dir is required")
	}
	if c.Paths.WorkoutDir == "" {
		return fmt.Errorf("paths.workout_dir is required")
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("paths.output_dir is required")
	}
	if c.Paths.CacheDir == "" {
		return fmt.Errorf("paths.cache_dir is required")
	}
	return nil
}
