package commands

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("lorasensor"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	out := &bytes.Buffer{}
	err = ctx.Run(&Global{Out: out}, &cli)
	return out.String(), err
}

// writeNodeConfig writes the example node file pointing at a plain file
// standing in for the tty, with no delay between sleep attempts.
func writeNodeConfig(t *testing.T) (cfgPath, tty string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "node.yaml")
	tty = filepath.Join(dir, "tty")
	require.NoError(t, os.WriteFile(tty, nil, 0o600))

	out, err := run(t, "-c", cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content := strings.Replace(string(data), "/dev/ttyUSB0", tty, 1)
	content = strings.Replace(content, "initial_delay: 1s", "initial_delay: 0s", 1)
	content = strings.Replace(content, "max_delay: 1s", "max_delay: 0s", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, tty
}

func TestEncode(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--seconds", "10"}, "610000000a\n"},
		{[]string{"--seconds", "0"}, "6100000000\n"},
		{[]string{"--forever"}, "61ffffffff\n"},
		{[]string{"--status"}, "62\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, append([]string{"encode"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	_, err := run(t, "encode")
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestSleep(t *testing.T) {
	cfgPath, tty := writeNodeConfig(t)

	out, err := run(t, "-c", cfgPath, "sleep", "--seconds", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Sleep command sent")

	frames, err := os.ReadFile(tty)
	require.NoError(t, err)
	// Five blind attempts of the 2-second frame.
	assert.Equal(t, strings.Repeat("6100000002", 5), hex.EncodeToString(frames))
}

func TestStatus(t *testing.T) {
	cfgPath, tty := writeNodeConfig(t)

	out, err := run(t, "-c", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Status request sent")

	frames, err := os.ReadFile(tty)
	require.NoError(t, err)
	assert.Equal(t, "62", hex.EncodeToString(frames))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lorasensor")
}
