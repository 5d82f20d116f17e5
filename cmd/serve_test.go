package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Help(t *testing.T) {
	output, err := execute(t, "serve", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "Start the vidsum API server")
}

func TestServeCommand_InvalidPort(t *testing.T) {
	_, err := execute(t, "serve", "--port", "invalid")
	assert.Error(t, err)
}

func TestServeCommand_StopsWithContext(t *testing.T) {
	t.Setenv("VIDSUM_DATABASE_PATH", filepath.Join(t.TempDir(), "videos.db"))
	t.Setenv("VIDSUM_STORAGE_AUDIO_CACHE_DIR", t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// serve ran with --help earlier in the package; it must not keep that context
	_, err := execute(t, "serve", "--help")
	require.NoError(t, err)

	_, err = executeContext(t, ctx, "serve", "--host", "127.0.0.1", "--port", "18089")
	assert.NoError(t, err)
}

func TestServeCommandFlags(t *testing.T) {
	serveCmd, _, err := NewRootCmd().Find([]string{"serve"})
	require.NoError(t, err)

	assert.NotNil(t, serveCmd.Flags().Lookup("port"))
	assert.NotNil(t, serveCmd.Flags().Lookup("host"))
}
