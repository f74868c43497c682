package sensor

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// Driver reads one raw sample.
type Driver interface {
	Read(ctx context.Context) (float64, error)
}

// ErrNoSamples is returned by a Dummy driver constructed without samples.
var ErrNoSamples = errors.ValidationError("dummy driver has no samples").Build()

// DefaultDummySamples is the sample cycle used when none is configured.
var DefaultDummySamples = []float64{20, 30, 25, 11, -10, 40, 32}

// Dummy returns a fixed list of samples in a loop.
type Dummy struct {
	mu      sync.Mutex
	samples []float64
	next    int
}

// NewDummy creates a Dummy driver cycling samples.
func NewDummy(samples []float64) *Dummy {
	s := make([]float64, len(samples))
	copy(s, samples)
	return &Dummy{samples: s}
}

func (d *Dummy) Read(context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.samples) == 0 {
		return 0, ErrNoSamples
	}
	v := d.samples[d.next]
	d.next = (d.next + 1) % len(d.samples)
	return v, nil
}

// DefaultThermalZone is the Linux SoC temperature file in millidegrees Celsius.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// Thermal reads the host SoC temperature in degrees Celsius.
type Thermal struct {
	Path string
}

func (t Thermal) Read(context.Context) (float64, error) {
	path := t.Path
	if path == "" {
		path = DefaultThermalZone
	}
	// #nosec G304 -- path is configuration
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryService, "read thermal zone").
			WithContext("path", path).
			Build()
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryService, "parse thermal zone").
			WithContext("path", path).
			Build()
	}
	return milli / 1000, nil
}
