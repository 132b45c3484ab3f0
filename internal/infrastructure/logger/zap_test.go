package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spincycle/backend/internal/config"
)

func TestNew_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LoggerConfig{Level: "debug", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Named("sync").Infow("customer_write_ok", "id", "c-1")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"customer_write_ok"`)
	assert.Contains(t, string(data), `"logger":"sync"`)
	assert.Contains(t, string(data), `"id":"c-1"`)
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(config.LoggerConfig{Level: "loud", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Debugw("hidden")
	log.Infow("shown")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Errorw("ignored", "k", "v")
	assert.NoError(t, log.Sync())
}
