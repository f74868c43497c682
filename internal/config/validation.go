package config

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/report"
)

// ValidateConfig checks a defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateScheduler,
		v.validatePower,
		v.validateServices,
		v.validateExchange,
		v.validateOperations,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func invalid(field, reason string, value any) error {
	return errors.ConfigError("invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason).
		WithContext("value", value).
		Build()
}

func checkDuration(field, raw string, allowZero bool) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return invalid(field, "not a duration", raw)
	}
	if d < 0 || (!allowZero && d == 0) {
		return invalid(field, "must be positive", raw)
	}
	return nil
}

func (v *configurationValidator) validateScheduler() error {
	s := v.config.Scheduler
	if err := checkDuration("scheduler.deep_sleep_threshold", s.DeepSleepThreshold, false); err != nil {
		return err
	}
	if err := checkDuration("scheduler.retick_delay", s.RetickDelay, true); err != nil {
		return err
	}
	if NormalizeActuator(string(s.Actuator)) == "" {
		return invalid("scheduler.actuator", "expected none or power", s.Actuator)
	}
	return nil
}

func (v *configurationValidator) validatePower() error {
	p := v.config.Power
	if NormalizeTransport(string(p.Transport)) == "" {
		return invalid("power.transport", "expected serial, uart or nats", p.Transport)
	}
	if p.Transport != TransportNATS && p.Device == "" {
		return invalid("power.device", "required", p.Device)
	}
	if NormalizeRetryBackoff(string(p.Retry.Backoff)) == "" {
		return invalid("power.retry.backoff", "expected fixed, linear or exponential", p.Retry.Backoff)
	}
	if err := checkDuration("power.retry.initial_delay", p.Retry.InitialDelay, true); err != nil {
		return err
	}
	return checkDuration("power.retry.max_delay", p.Retry.MaxDelay, true)
}

func (v *configurationValidator) validateServices() error {
	s := v.config.Services
	if err := checkDuration("services.exchange_interval", s.ExchangeInterval, false); err != nil {
		return err
	}
	seen := map[string]bool{"MsgEx": true, "Reg": true}
	for i, sc := range s.Sensors {
		field := fmt.Sprintf("services.sensors[%d]", i)
		if sc.Name == "" {
			return invalid(field+".name", "required", sc.Name)
		}
		if seen[sc.Name] {
			return invalid(field+".name", "duplicate service name", sc.Name)
		}
		seen[sc.Name] = true
		if NormalizeDriver(string(sc.Driver)) == "" {
			return invalid(field+".driver", "expected dummy or thermal", sc.Driver)
		}
		if sc.Driver == DriverDummy && len(sc.Samples) == 0 {
			return invalid(field+".samples", "dummy driver needs samples", nil)
		}
		if err := checkDuration(field+".interval", sc.Interval, false); err != nil {
			return err
		}
		if _, ok := messages.SensorReport(sc.Report); sc.Report != "" && !ok {
			return invalid(field+".report", "expected moisture, battery or temperature", sc.Report)
		}
		if _, err := report.ParseMode(sc.SendMode); err != nil {
			return invalid(field+".send_mode", "expected on_change or always", sc.SendMode)
		}
	}
	for i, sc := range s.Sensors {
		for j, dep := range sc.DependsOn {
			field := fmt.Sprintf("services.sensors[%d].depends_on[%d]", i, j)
			switch {
			case dep == sc.Name:
				return invalid(field, "service cannot depend on itself", dep)
			case !seen[dep]:
				return invalid(field, "unknown service", dep)
			}
		}
	}
	return nil
}

func (v *configurationValidator) validateExchange() error {
	if NormalizeLink(string(v.config.Exchange.Link)) == "" {
		return invalid("exchange.link", "expected loopback or nats", v.config.Exchange.Link)
	}
	return checkDuration("nats.timeout", v.config.NATS.Timeout, false)
}

func (v *configurationValidator) validateOperations() error {
	c := v.config
	if NormalizeStorage(string(c.Storage.Driver)) == "" {
		return invalid("storage.driver", "expected sqlite or memory", c.Storage.Driver)
	}
	if c.Status.Publish && !c.Status.Enabled {
		return invalid("status.publish", "requires status.enabled", c.Status.Publish)
	}
	return checkDuration("status.interval", c.Status.Interval, false)
}
