package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/courierops/fieldtrack/internal/domain/types"
	"github.com/courierops/fieldtrack/pkg/configparser"
)

// Flags
var (
	modeFlag = flag.String("mode", "", "application mode")
)

// Errors
var (
	ErrModeNotProvided = errors.New("mode flag not provided")
)

// Config contains all configuration variables of the application
type (
	Config struct {
		Mode types.ServiceMode

		Database DatabaseConfig
		RabbitMQ RabbitMQConfig
		Services ServicesConfig
		Auth     Auth
		Sampler  SamplerConfig
		Agent    AgentConfig
	}

	DatabaseConfig struct {
		Host     string `env:"DATABASE_HOST" default:"localhost"`
		Port     string `env:"DATABASE_PORT" default:"5432"`
		User     string `env:"DATABASE_USER" default:"fieldtrack_user"`
		Password string `env:"DATABASE_PASSWORD" default:"fieldtrack_pass"`
		Database string `env:"DATABASE_DATABASE" default:"fieldtrack_db"`

		MaxConns        int32         `env:"DATABASE_MAXCONNS" default:"20"`
		MinConns        int32         `env:"DATABASE_MINCONNS" default:"2"`
		MaxConnLifetime time.Duration `env:"DATABASE_MAXCONNLIFETIME" default:"30m"`
		MaxConnIdleTime time.Duration `env:"DATABASE_MAXCONNIDLETIME" default:"5m"`
	}

	RabbitMQConfig struct {
		Host     string `env:"RABBITMQ_HOST" default:"localhost"`
		Port     string `env:"RABBITMQ_PORT" default:"5672"`
		User     string `env:"RABBITMQ_USER" default:"guest"`
		Password string `env:"RABBITMQ_PASSWORD" default:"guest"`
	}

	ServicesConfig struct {
		TelemetryService string `env:"SERVICES_TELEMETRY_SERVICE" default:"3000"`
		AnalyticsService string `env:"SERVICES_ANALYTICS_SERVICE" default:"3001"`
	}

	Auth struct {
		JWTSecret string `env:"AUTH_JWT_SECRET" default:"supersecretkey"`
	}

	// SamplerConfig tunes the on-device position sampler.
	SamplerConfig struct {
		BaseIntervalSeconds int           `env:"SAMPLER_BASE_INTERVAL_SECONDS" default:"30"`
		HighAccuracy        bool          `env:"SAMPLER_HIGH_ACCURACY" default:"true"`
		RequestTimeout      time.Duration `env:"SAMPLER_REQUEST_TIMEOUT" default:"10s"`
		MaxFixAge           time.Duration `env:"SAMPLER_MAX_FIX_AGE" default:"30s"`
	}

	// AgentConfig configures the field-device agent mode.
	AgentConfig struct {
		WorkerID   string `env:"AGENT_WORKER_ID"`
		APIBaseURL string `env:"AGENT_API_BASE_URL" default:"http://localhost:3000"`
		APIToken   string `env:"AGENT_API_TOKEN"`
		ReplayFile string `env:"AGENT_REPLAY_FILE"`
	}
)

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

func (c RabbitMQConfig) GetDSN() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.User,
		c.Password,
		c.Host,
		c.Port,
	)
}

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading environment variables and parsing into the config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	if modeFlag == nil || *modeFlag == "" {
		return ErrModeNotProvided
	}

	cfg.Mode = types.ServiceMode(*modeFlag)

	return nil
}
