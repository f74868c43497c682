package config

import (
	"path/filepath"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// NodeDefaultApplier handles node and logging defaults.
type NodeDefaultApplier struct{}

func (NodeDefaultApplier) Domain() string { return "node" }

func (NodeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Node.DataDir == "" {
		cfg.Node.DataDir = "./data"
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}

// SchedulerDefaultApplier handles tick loop defaults.
type SchedulerDefaultApplier struct{}

func (SchedulerDefaultApplier) Domain() string { return "scheduler" }

func (SchedulerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Scheduler.DeepSleepThreshold == "" {
		cfg.Scheduler.DeepSleepThreshold = "5s"
	}
	if cfg.Scheduler.RetickDelay == "" {
		cfg.Scheduler.RetickDelay = "100ms"
	}
	if cfg.Scheduler.Actuator == "" {
		cfg.Scheduler.Actuator = ActuatorNone
	} else if m := NormalizeActuator(string(cfg.Scheduler.Actuator)); m != "" {
		cfg.Scheduler.Actuator = m
	}
	return nil
}

// PowerDefaultApplier handles power controller channel defaults.
type PowerDefaultApplier struct{}

func (PowerDefaultApplier) Domain() string { return "power" }

func (PowerDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Power
	if p.Transport == "" {
		p.Transport = TransportSerial
	} else if t := NormalizeTransport(string(p.Transport)); t != "" {
		p.Transport = t
	}
	if p.Device == "" {
		switch p.Transport {
		case TransportUART:
			p.Device = "uart0"
		case TransportSerial:
			p.Device = "/dev/ttyUSB0"
		}
	}
	if p.Baud <= 0 {
		p.Baud = 2400
	}
	if p.Subject == "" && p.Transport == TransportNATS {
		p.Subject = "lorasensor.power"
	}
	if p.Hold == nil {
		hold := true
		p.Hold = &hold
	}
	if p.Retry.MaxAttempts <= 0 {
		p.Retry.MaxAttempts = 5
	}
	if p.Retry.Backoff == "" {
		p.Retry.Backoff = RetryBackoffFixed
	} else if b := NormalizeRetryBackoff(string(p.Retry.Backoff)); b != "" {
		p.Retry.Backoff = b
	}
	if p.Retry.InitialDelay == "" {
		p.Retry.InitialDelay = "1s"
	}
	if p.Retry.MaxDelay == "" {
		p.Retry.MaxDelay = p.Retry.InitialDelay
	}
	return nil
}

// ServicesDefaultApplier handles service interval and sensor defaults.
type ServicesDefaultApplier struct{}

func (ServicesDefaultApplier) Domain() string { return "services" }

func (ServicesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Services.ExchangeInterval == "" {
		cfg.Services.ExchangeInterval = "100s"
	}
	if cfg.Services.Sensors == nil {
		cfg.Services.Sensors = defaultSensors()
	}
	for i := range cfg.Services.Sensors {
		s := &cfg.Services.Sensors[i]
		if s.Driver == "" {
			s.Driver = DriverDummy
		} else if d := NormalizeDriver(string(s.Driver)); d != "" {
			s.Driver = d
		}
		if s.Interval == "" {
			s.Interval = "50s"
		}
		if s.SamplesPerUpdate <= 0 {
			s.SamplesPerUpdate = 1
		}
		if s.FilterDepth <= 0 {
			s.FilterDepth = 5
		}
		if s.SendMode == "" {
			s.SendMode = "on_change"
		}
	}
	return nil
}

func defaultSensors() []SensorConfig {
	return []SensorConfig{
		{
			Name:             "Dummy",
			Driver:           DriverDummy,
			Interval:         "20s",
			SamplesPerUpdate: 3,
			Round:            true,
			FilterDepth:      5,
			Report:           "moisture",
			SendMode:         "on_change",
			Samples:          []float64{20, 30, 25, 11, -10, 40, 32},
		},
		{
			Name:             "Temp",
			Driver:           DriverDummy,
			Interval:         "50s",
			SamplesPerUpdate: 2,
			Round:            true,
			FilterDepth:      5,
			Report:           "temperature",
			SendMode:         "on_change",
			Samples:          []float64{21, 22, 22, 23},
		},
	}
}

// ExchangeDefaultApplier handles exchange and uplink defaults.
type ExchangeDefaultApplier struct{}

func (ExchangeDefaultApplier) Domain() string { return "exchange" }

func (ExchangeDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Exchange.Link == "" {
		cfg.Exchange.Link = LinkLoopback
	} else if l := NormalizeLink(string(cfg.Exchange.Link)); l != "" {
		cfg.Exchange.Link = l
	}
	if cfg.Exchange.SendLimit <= 0 {
		cfg.Exchange.SendLimit = 1
	}
	if cfg.Exchange.SendRetries < 0 {
		cfg.Exchange.SendRetries = 0
	}
	if cfg.Exchange.SendRetries == 0 {
		cfg.Exchange.SendRetries = 1
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "lorasensor"
	}
	if cfg.NATS.SessionBucket == "" {
		cfg.NATS.SessionBucket = "lorasensor_sessions"
	}
	if cfg.NATS.Timeout == "" {
		cfg.NATS.Timeout = "2s"
	}
	return nil
}

// OperationsDefaultApplier handles storage, metrics and status defaults.
type OperationsDefaultApplier struct{}

func (OperationsDefaultApplier) Domain() string { return "operations" }

func (OperationsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageSQLite
	} else if d := NormalizeStorage(string(cfg.Storage.Driver)); d != "" {
		cfg.Storage.Driver = d
	}
	if cfg.Storage.Path == "" && cfg.Storage.Driver == StorageSQLite {
		cfg.Storage.Path = filepath.Join(cfg.Node.DataDir, "sys", "node.db")
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Status.Interval == "" {
		cfg.Status.Interval = "1m"
	}
	return nil
}

// defaultAppliers runs in order; storage paths depend on the node data dir.
func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		NodeDefaultApplier{},
		SchedulerDefaultApplier{},
		PowerDefaultApplier{},
		ServicesDefaultApplier{},
		ExchangeDefaultApplier{},
		OperationsDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
