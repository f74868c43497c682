package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/config"
)

func TestLogSink_FlushClosesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "node.log")
	console := &bytes.Buffer{}
	sink := NewLogSink(console, path)

	_, err := sink.Write([]byte("one\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Flush())
	require.NoError(t, sink.Flush(), "flush without an open file is a no-op")

	_, err = sink.Write([]byte("two\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
	assert.Equal(t, "one\ntwo\n", console.String())
}

func TestConfigureLogging(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := &config.Config{
		Node:    config.NodeConfig{DataDir: t.TempDir()},
		Logging: config.LoggingConfig{Level: config.LogLevelWarn, Format: config.LogFormatJSON, File: true},
	}
	console := &bytes.Buffer{}
	sink := ConfigureLogging(cfg, false, console)

	slog.Info("hidden")
	slog.Warn("shown")
	require.NoError(t, sink.Flush())

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), `"msg":"shown"`)

	data, err := os.ReadFile(cfg.DataPath("log", "node.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "shown")
}
