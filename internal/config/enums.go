package config

import "git.home.luguber.info/inful/lorasensor/internal/foundation"

// ActuatorMode selects the deep-sleep actuator.
type ActuatorMode string

const (
	ActuatorNone  ActuatorMode = "none"
	ActuatorPower ActuatorMode = "power"
)

var actuatorNormalizer = foundation.NewNormalizer(map[string]ActuatorMode{
	"none":    ActuatorNone,
	"nosleep": ActuatorNone,
	"power":   ActuatorPower,
}, "")

// NormalizeActuator returns the typed actuator mode or empty string for unknown input.
func NormalizeActuator(raw string) ActuatorMode { return actuatorNormalizer.Normalize(raw) }

// PowerTransport selects how command frames reach the power controller.
type PowerTransport string

const (
	TransportSerial PowerTransport = "serial"
	TransportUART   PowerTransport = "uart"
	TransportNATS   PowerTransport = "nats"
)

var transportNormalizer = foundation.NewNormalizer(map[string]PowerTransport{
	"serial": TransportSerial,
	"tty":    TransportSerial,
	"uart":   TransportUART,
	"nats":   TransportNATS,
}, "")

func NormalizeTransport(raw string) PowerTransport { return transportNormalizer.Normalize(raw) }

// LinkKind selects the exchange uplink.
type LinkKind string

const (
	LinkLoopback LinkKind = "loopback"
	LinkNATS     LinkKind = "nats"
)

var linkNormalizer = foundation.NewNormalizer(map[string]LinkKind{
	"loopback": LinkLoopback,
	"nats":     LinkNATS,
}, "")

func NormalizeLink(raw string) LinkKind { return linkNormalizer.Normalize(raw) }

// SensorDriver selects a sensor's driver.
type SensorDriver string

const (
	DriverDummy   SensorDriver = "dummy"
	DriverThermal SensorDriver = "thermal"
)

var driverNormalizer = foundation.NewNormalizer(map[string]SensorDriver{
	"dummy":   DriverDummy,
	"thermal": DriverThermal,
}, "")

func NormalizeDriver(raw string) SensorDriver { return driverNormalizer.Normalize(raw) }

// StorageDriver selects the state backend.
type StorageDriver string

const (
	StorageSQLite StorageDriver = "sqlite"
	StorageMemory StorageDriver = "memory"
)

var storageNormalizer = foundation.NewNormalizer(map[string]StorageDriver{
	"sqlite": StorageSQLite,
	"memory": StorageMemory,
}, "")

func NormalizeStorage(raw string) StorageDriver { return storageNormalizer.Normalize(raw) }

// LogLevel is the minimum slog level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = foundation.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel { return logLevelNormalizer.Normalize(raw) }

// LogFormat is the slog handler kind.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var logFormatNormalizer = foundation.NewNormalizer(map[string]LogFormat{
	"text": LogFormatText,
	"json": LogFormatJSON,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat { return logFormatNormalizer.Normalize(raw) }

// RetryBackoffMode shapes the delay between sleep command attempts.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var backoffNormalizer = foundation.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"constant":    RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, "")

func NormalizeRetryBackoff(raw string) RetryBackoffMode { return backoffNormalizer.Normalize(raw) }
