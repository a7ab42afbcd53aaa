package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "flow.log")
	Init(zerolog.InfoLevel, path)

	log.Info().Str("trigger", "10s").Msg("Trigger accepted")
	log.Debug().Msg("hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Trigger accepted"`)
	assert.Contains(t, string(data), `"trigger":"10s"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestInit_BadPathPanics(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	assert.Panics(t, func() {
		Init(zerolog.InfoLevel, filepath.Join(t.TempDir(), "missing", "flow.log"))
	})
}
