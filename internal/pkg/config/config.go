package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Geocoding  GeocodingConfig  `mapstructure:"geocoding"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type GeocodingConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	APIKey          string `mapstructure:"api_key"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

func (g GeocodingConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Enabled     bool   `mapstructure:"enabled"`
}

// SimulationConfig carries the default anomaly thresholds. Callers can
// still override them per request.
type SimulationConfig struct {
	MaxPlausibleSpeedMps float64 `mapstructure:"max_plausible_speed_mps"`
	MinMovementMeters    float64 `mapstructure:"min_movement_meters"`
	StationaryGapSeconds float64 `mapstructure:"stationary_gap_seconds"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("geocoding.endpoint", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("geocoding.api_key", "")
	v.SetDefault("geocoding.timeout_seconds", 5)
	v.SetDefault("geocoding.cache_ttl_seconds", 86400)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("simulation.max_plausible_speed_mps", 340.0)
	v.SetDefault("simulation.min_movement_meters", 1.0)
	v.SetDefault("simulation.stationary_gap_seconds", 0.0)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ROUTEPULSE_GEOCODING_API_KEY → geocoding.api_key
	v.SetEnvPrefix("ROUTEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Geocoding.Endpoint == "" {
		errs = append(errs, "geocoding.endpoint is required")
	}
	if c.Geocoding.TimeoutSeconds <= 0 {
		errs = append(errs, "geocoding.timeout_seconds must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Simulation.MaxPlausibleSpeedMps <= 0 {
		errs = append(errs, "simulation.max_plausible_speed_mps must be positive")
	}
	if c.Simulation.MinMovementMeters < 0 {
		errs = append(errs, "simulation.min_movement_meters must not be negative")
	}
	if c.Simulation.StationaryGapSeconds < 0 {
		errs = append(errs, "simulation.stationary_gap_seconds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Thresholds converts the configured defaults into analyzer thresholds.
func (c *Config) Thresholds() (maxSpeed, minMovement float64, stationaryGap time.Duration) {
	return c.Simulation.MaxPlausibleSpeedMps,
		c.Simulation.MinMovementMeters,
		time.Duration(c.Simulation.StationaryGapSeconds * float64(time.Second))
}
