package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP         HTTPConfig
	Database     DatabaseConfig
	Log          LogConfig
	Schedule     ScheduleConfig
	Assistant    AssistantConfig
	Materializer MaterializerConfig
}

type HTTPConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LogConfig struct {
	Level  string
	Format string
}

type ScheduleConfig struct {
	Timezone string
	Location *time.Location

	// MaxDays caps the horizon a client may request from generate-tasks.
	MaxDays int
}

// AssistantConfig configures the voice-assistant endpoints, which act on
// behalf of a single fixed user.
type AssistantConfig struct {
	UserID          string
	RateLimitPerMin int

	// TokenHash is a bcrypt hash of the bearer token. Empty disables the check.
	TokenHash string
}

type MaterializerConfig struct {
	Enabled     bool
	Spec        string
	HorizonDays int
}

// Load reads config.yaml from ./config, . or /etc/neuri/ if present, then
// applies NEURI_* environment overrides (e.g. NEURI_HTTP_PORT).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/neuri/")
	return load(v)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("NEURI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	cfg.HTTP.Port = v.GetInt("http.port")
	cfg.HTTP.ReadTimeout = v.GetDuration("http.read_timeout")
	cfg.HTTP.WriteTimeout = v.GetDuration("http.write_timeout")
	cfg.Database.Path = v.GetString("database.path")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Schedule.Timezone = v.GetString("schedule.timezone")
	cfg.Schedule.MaxDays = v.GetInt("schedule.max_days")
	cfg.Assistant.UserID = v.GetString("assistant.user_id")
	cfg.Assistant.TokenHash = v.GetString("assistant.token_hash")
	cfg.Assistant.RateLimitPerMin = v.GetInt("assistant.rate_limit_per_min")
	cfg.Materializer.Enabled = v.GetBool("materializer.enabled")
	cfg.Materializer.Spec = v.GetString("materializer.spec")
	cfg.Materializer.HorizonDays = v.GetInt("materializer.horizon_days")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("database.path", "neuri.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("schedule.timezone", "UTC")
	v.SetDefault("schedule.max_days", 365)
	v.SetDefault("assistant.user_id", "")
	v.SetDefault("assistant.token_hash", "")
	v.SetDefault("assistant.rate_limit_per_min", 60)
	v.SetDefault("materializer.enabled", false)
	v.SetDefault("materializer.spec", "5 0 * * *")
	v.SetDefault("materializer.horizon_days", 1)
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Schedule.MaxDays <= 0 {
		return fmt.Errorf("schedule.max_days must be positive, got %d", c.Schedule.MaxDays)
	}
	if c.Materializer.HorizonDays <= 0 {
		return fmt.Errorf("materializer.horizon_days must be positive, got %d", c.Materializer.HorizonDays)
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	c.Schedule.Location = loc
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
