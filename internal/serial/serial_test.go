package serial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/power/protocol"
)

func TestOpen_PlainFileReceivesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	port, err := Open(Config{Device: path})
	require.NoError(t, err)
	frame := protocol.EncodeSleep(10)
	n, err := port.Write(frame[:])
	require.NoError(t, err)
	assert.Equal(t, protocol.SleepFrameSize, n)
	require.NoError(t, port.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, frame[:], got)
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(Config{Device: filepath.Join(t.TempDir(), "absent")})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryChannel))
}
