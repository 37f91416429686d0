package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a yaml-friendly wrapper around time.Duration ("5s", "1m30s").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type BrokerConfig struct {
	Endpoint       string   `yaml:"endpoint"` // e.g. tcp://localhost:1883, ssl://..., wss://...
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	ClientIDPrefix string   `yaml:"client_id_prefix"`
	AckTimeout     Duration `yaml:"ack_timeout"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
	QueueSize      int      `yaml:"queue_size"` // outbound notification queue length
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type Config struct {
	Broker BrokerConfig `yaml:"broker"`
	HTTP   HTTPConfig   `yaml:"http"`
}

// LoadFromFile loads config from a YAML file, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Broker.Endpoint == "" {
		cfg.Broker.Endpoint = "tcp://localhost:1883"
	}
	if cfg.Broker.ClientIDPrefix == "" {
		cfg.Broker.ClientIDPrefix = "coffee-order"
	}
	if cfg.Broker.AckTimeout == 0 {
		cfg.Broker.AckTimeout = Duration(5 * time.Second)
	}
	if cfg.Broker.InitialBackoff == 0 {
		cfg.Broker.InitialBackoff = Duration(time.Second)
	}
	if cfg.Broker.MaxBackoff == 0 {
		cfg.Broker.MaxBackoff = Duration(30 * time.Second)
	}
	if cfg.Broker.QueueSize == 0 {
		cfg.Broker.QueueSize = 64
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3001
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	u, err := url.Parse(c.Broker.Endpoint)
	if err != nil {
		problems = append(problems, fmt.Sprintf("broker.endpoint is not a valid URL: %v", err))
	} else {
		switch u.Scheme {
		case "tcp", "ssl", "tls", "ws", "wss":
		default:
			problems = append(problems, fmt.Sprintf("broker.endpoint scheme %q is not supported", u.Scheme))
		}
		if u.Host == "" {
			problems = append(problems, "broker.endpoint must include a host")
		}
	}

	if c.Broker.AckTimeout.Std() <= 0 {
		problems = append(problems, "broker.ack_timeout must be positive")
	}
	if c.Broker.InitialBackoff.Std() <= 0 {
		problems = append(problems, "broker.initial_backoff must be positive")
	}
	if c.Broker.MaxBackoff.Std() < c.Broker.InitialBackoff.Std() {
		problems = append(problems, "broker.max_backoff must be >= broker.initial_backoff")
	}
	if c.Broker.QueueSize < 1 {
		problems = append(problems, "broker.queue_size must be >= 1")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
