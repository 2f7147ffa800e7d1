package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the daemon. The bind address follows the classic DNS port; the
// socket is the Docker Engine's default endpoint.
const (
	DefaultBind          = "0.0.0.0:53"
	DefaultSocket        = "/var/run/docker.sock"
	DefaultHitTimeout    = 60 * time.Second
	DefaultMissTimeout   = 5 * time.Second
	DefaultDockerTimeout = 5 * time.Second
	DefaultTTL           = 60
)

// Duration wraps time.Duration with YAML support for strings like "500ms" or
// "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds the full daemon configuration.
type Config struct {
	Bind          string   `yaml:"bind"`
	Socket        string   `yaml:"socket"`
	HitTimeout    Duration `yaml:"hit_timeout"`
	MissTimeout   Duration `yaml:"miss_timeout"`
	DockerTimeout Duration `yaml:"docker_timeout"`
	Suffix        string   `yaml:"suffix"`
	TTL           int      `yaml:"ttl"`
	MetricsAddr   string   `yaml:"metrics_addr"`
	LogLevel      string   `yaml:"log_level"`
	LogJSON       bool     `yaml:"log_json"`
}

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Bind:          DefaultBind,
		Socket:        DefaultSocket,
		HitTimeout:    Duration(DefaultHitTimeout),
		MissTimeout:   Duration(DefaultMissTimeout),
		DockerTimeout: Duration(DefaultDockerTimeout),
		TTL:           DefaultTTL,
		LogLevel:      "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and normalizes the suffix. It is called
// once at startup; any error is fatal.
func (c *Config) Validate() error {
	if _, err := net.ResolveUDPAddr("udp", c.Bind); err != nil {
		return fmt.Errorf("invalid bind address %q: %w", c.Bind, err)
	}
	if c.Socket == "" {
		return fmt.Errorf("docker socket path must not be empty")
	}
	if c.HitTimeout <= 0 {
		return fmt.Errorf("hit timeout must be positive, got %s", time.Duration(c.HitTimeout))
	}
	if c.MissTimeout <= 0 {
		return fmt.Errorf("miss timeout must be positive, got %s", time.Duration(c.MissTimeout))
	}
	if c.DockerTimeout <= 0 {
		return fmt.Errorf("docker timeout must be positive, got %s", time.Duration(c.DockerTimeout))
	}
	// A miss timeout above the hit timeout would let present entries go stale
	// past the configured hit bound.
	if c.MissTimeout > c.HitTimeout {
		return fmt.Errorf("miss timeout (%s) must not exceed hit timeout (%s)",
			time.Duration(c.MissTimeout), time.Duration(c.HitTimeout))
	}
	if c.TTL < 0 {
		return fmt.Errorf("ttl must be non-negative, got %d", c.TTL)
	}

	c.Suffix = NormalizeSuffix(c.Suffix)
	return nil
}

// NormalizeSuffix lower-cases a non-empty suffix and guarantees it begins
// with a dot. An empty suffix stays empty (the server then answers for every
// name).
func NormalizeSuffix(suffix string) string {
	if suffix == "" {
		return ""
	}
	suffix = strings.ToLower(suffix)
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	return suffix
}
