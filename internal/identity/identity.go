// Package identity provides the device id reported to the backend.
package identity

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/version"
)

// FileName is the device id file inside the node's sys directory.
const FileName = "device_id"

// Identity is the device id plus the running software version.
type Identity struct {
	id      string
	version string
}

// New returns an identity with a fixed id.
func New(id string) Identity {
	return Identity{id: id, version: version.Version}
}

// DeviceID returns the hardware id.
func (i Identity) DeviceID() string { return i.id }

// SoftwareVersion returns the encoded software version.
func (i Identity) SoftwareVersion() int { return version.Encode(i.version) }

// LoadOrCreate reads the device id from dir, generating and persisting a new
// UUID on first boot. A non-empty override wins and is not persisted.
func LoadOrCreate(dir, override string) (Identity, error) {
	if override != "" {
		return New(override), nil
	}

	path := filepath.Join(dir, FileName)
	// #nosec G304 -- path is built from the configured data directory
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return New(id), nil
		}
	} else if !os.IsNotExist(err) {
		return Identity{}, errors.WrapError(err, errors.CategoryStorage, "failed to read device id").
			WithContext("path", path).
			Build()
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Identity{}, errors.WrapError(err, errors.CategoryStorage, "failed to create identity directory").
			WithContext("path", dir).
			Build()
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return Identity{}, errors.WrapError(err, errors.CategoryStorage, "failed to persist device id").
			WithContext("path", path).
			Build()
	}
	slog.Info("Generated device id", logfields.Device(id), logfields.Path(path))
	return New(id), nil
}
