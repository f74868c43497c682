package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// CurrentVersion is the only supported configuration file version.
const CurrentVersion = "1"

// Config is the node configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Node      NodeConfig      `yaml:"node"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Power     PowerConfig     `yaml:"power"`
	Services  ServicesConfig  `yaml:"services"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	NATS      NATSConfig      `yaml:"nats"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Status    StatusConfig    `yaml:"status"`
}

// NodeConfig identifies the node and its on-disk layout.
type NodeConfig struct {
	ID      string `yaml:"id,omitempty"` // overrides the generated device id
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
	File   bool      `yaml:"file"` // also write to <data_dir>/log/node.log
}

// SchedulerConfig tunes the tick loop.
type SchedulerConfig struct {
	DeepSleepThreshold string       `yaml:"deep_sleep_threshold"`
	RetickDelay        string       `yaml:"retick_delay"`
	Actuator           ActuatorMode `yaml:"actuator"` // none|power
}

// PowerConfig describes the channel to the power controller.
type PowerConfig struct {
	Transport PowerTransport `yaml:"transport"` // serial|uart|nats
	Device    string         `yaml:"device"`
	Baud      int            `yaml:"baud"`
	TXPin     int            `yaml:"tx_pin,omitempty"`
	RXPin     int            `yaml:"rx_pin,omitempty"`
	Subject   string         `yaml:"subject,omitempty"` // nats transport
	Hold      *bool          `yaml:"hold,omitempty"`    // wait out the sleep after the hand-off
	Retry     RetryConfig    `yaml:"retry"`
}

// RetryConfig is the blind retry policy for sleep commands.
type RetryConfig struct {
	MaxAttempts  int              `yaml:"max_attempts"`
	Backoff      RetryBackoffMode `yaml:"backoff"`
	InitialDelay string           `yaml:"initial_delay"`
	MaxDelay     string           `yaml:"max_delay"`
}

// ServicesConfig lists the scheduled services besides registration.
type ServicesConfig struct {
	ExchangeInterval string         `yaml:"exchange_interval"`
	Sensors          []SensorConfig `yaml:"sensors"`
}

// SensorConfig is one sensor service and its report.
type SensorConfig struct {
	Name             string       `yaml:"name"`
	Driver           SensorDriver `yaml:"driver"` // dummy|thermal
	Interval         string       `yaml:"interval"`
	SamplesPerUpdate int          `yaml:"samples_per_update"`
	Round            bool         `yaml:"round"`
	FilterDepth      int          `yaml:"filter_depth"`
	Report           string       `yaml:"report"`    // moisture|battery|temperature
	SendMode         string       `yaml:"send_mode"` // on_change|always
	Samples          []float64    `yaml:"samples,omitempty"`
	Path             string       `yaml:"path,omitempty"`
	// DependsOn names services that must run, in the same tick, before this
	// sensor. Cycles are rejected when the node is built.
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// ExchangeConfig tunes the message exchange.
type ExchangeConfig struct {
	Link        LinkKind `yaml:"link"` // loopback|nats
	SendLimit   int      `yaml:"send_limit"`
	SendRetries int      `yaml:"send_retries"`
}

// NATSConfig is shared by the NATS uplink, power channel and status publisher.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	SessionBucket string `yaml:"session_bucket"`
	Timeout       string `yaml:"timeout"`
}

// StorageConfig selects where node state is persisted.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver"` // sqlite|memory
	Path   string        `yaml:"path"`
}

// MetricsConfig exposes Prometheus metrics over HTTP.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// StatusConfig controls the periodic status report.
type StatusConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"`
	Publish  bool   `yaml:"publish"` // also publish on NATS
}

// Load reads, expands, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	// #nosec G304 -- config path is supplied by the operator
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes configuration from YAML with ${VAR} expansion.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to create config directory").Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	slog.Info("Configuration file created", "path", configPath)
	return nil
}

// Example returns a fully defaulted configuration with the stock sensors.
func Example() *Config {
	cfg := &Config{Version: CurrentVersion}
	_ = applyDefaults(cfg)
	return cfg
}

// DataPath joins elem onto the node data directory.
func (c *Config) DataPath(elem ...string) string {
	return filepath.Join(append([]string{c.Node.DataDir}, elem...)...)
}

// Duration accessors. Values are validated on load, so parse failures fall
// back to the zero duration only for hand-built configs.

func (s SchedulerConfig) Threshold() time.Duration    { return parseDuration(s.DeepSleepThreshold) }
func (s SchedulerConfig) Retick() time.Duration       { return parseDuration(s.RetickDelay) }
func (r RetryConfig) Initial() time.Duration          { return parseDuration(r.InitialDelay) }
func (r RetryConfig) Max() time.Duration              { return parseDuration(r.MaxDelay) }
func (s ServicesConfig) ExchangeEvery() time.Duration { return parseDuration(s.ExchangeInterval) }
func (s SensorConfig) Every() time.Duration           { return parseDuration(s.Interval) }
func (n NATSConfig) TimeoutDuration() time.Duration   { return parseDuration(n.Timeout) }
func (s StatusConfig) Every() time.Duration           { return parseDuration(s.Interval) }

// HoldEnabled reports whether the process waits out a sleep it handed off.
func (p PowerConfig) HoldEnabled() bool { return p.Hold == nil || *p.Hold }

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
