package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine holds all configuration for the combat simulator.
type Engine struct {
	// Logging: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// Simulation
	TickInterval time.Duration `yaml:"tick_interval"`
	// Realtime paces ticks in wall-clock time instead of running flat out.
	Realtime bool   `yaml:"realtime"`
	Seed     uint64 `yaml:"seed"`

	// Content
	ContentPath  string `yaml:"content_path"`
	ScenarioPath string `yaml:"scenario_path"`

	// Action pools
	Pools PoolConfig `yaml:"pools"`

	// Combat log persistence
	Database DatabaseConfig `yaml:"database"`

	// Spectator websocket
	Observer ObserverConfig `yaml:"observer"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PoolConfig bounds in-flight actions per actor and action kind.
type PoolConfig struct {
	EffectAssign int `yaml:"effect_assign"`
	Damage       int `yaml:"damage"`
	Cure         int `yaml:"cure"`
	AddStatus    int `yaml:"add_status"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// ObserverConfig configures the spectator event stream.
type ObserverConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
	// Linger keeps the server up after the battle ends so late spectators can
	// still connect. Zero shuts down immediately.
	Linger time.Duration `yaml:"linger"`
}

// Addr returns host:port for net/http.
func (o ObserverConfig) Addr() string {
	return fmt.Sprintf("%s:%d", o.BindAddress, o.Port)
}

// TelemetryConfig toggles OpenTelemetry tracing. The exporter itself reads
// the standard OTEL_* environment variables.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DefaultEngine returns Engine config with sensible defaults.
func DefaultEngine() Engine {
	return Engine{
		LogLevel:     "info",
		TickInterval: 50 * time.Millisecond,
		Realtime:     false,
		Seed:         1,
		ContentPath:  "config/content.yaml",
		ScenarioPath: "config/scenario.yaml",
		Pools: PoolConfig{
			EffectAssign: 16,
			Damage:       8,
			Cure:         8,
			AddStatus:    8,
		},
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "abilitycore",
			Password: "abilitycore",
			DBName:   "abilitycore",
			SSLMode:  "disable",
		},
		Observer: ObserverConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1",
			Port:        8089,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "combatsim",
		},
	}
}

// LoadEngine loads engine config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("config %s: tick_interval must be positive, got %s", path, cfg.TickInterval)
	}

	return cfg, nil
}
