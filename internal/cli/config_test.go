package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig(writeConfig(t, `
format: binary
export: collapsed
workers: 4
min_frame_time: 2000000
`))
	require.NoError(t, err)
	require.Equal(t, "binary", conf.Format)
	require.Equal(t, "collapsed", conf.Export)
	require.Equal(t, 4, conf.Workers)
	require.Equal(t, 2*time.Millisecond, conf.MinFrameTime)
	require.Equal(t, "info", conf.LogLevel)
}

func TestParseConfigDefaults(t *testing.T) {
	conf, err := ParseConfig(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.Equal(t, "auto", conf.Format)
	require.Equal(t, "report", conf.Export)
	require.Equal(t, 0, conf.Workers)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig(writeConfig(t, `unknown_field: 1`))
	require.Error(t, err)

	_, err = ParseConfig(writeConfig(t, `workers: -1`))
	require.Error(t, err)

	_, err = ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
