package config

import (
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
walk:
  max_depth: 16
  include_descendants: true
log:
  enabled: true
  level: debug
  dir: /var/log/hivetrace
  json: true
output:
  format: json
  max_value_bytes: 0
`

func TestLoadFs_Defaults(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), "")
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Walk.MaxDepth)
	assert.False(t, cfg.Walk.IncludeDescendants)
	assert.False(t, cfg.Log.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 32, cfg.Output.MaxValueBytes)
}

func TestLoadFs_ExplicitFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cases/42/hivetrace-config.yaml", []byte(sampleYAML), 0o644))

	cfg, err := LoadFs(fs, "/cases/42/hivetrace-config.yaml")
	require.NoError(t, err)

	assert.Equal(t, Config{
		Walk:   WalkConfig{MaxDepth: 16, IncludeDescendants: true},
		Log:    LogConfig{Enabled: true, Level: "debug", Dir: "/var/log/hivetrace", JSON: true},
		Output: OutputConfig{Format: "json", MaxValueBytes: 0},
	}, cfg)

	opts := cfg.LoggerOptions()
	assert.True(t, opts.Enabled)
	assert.Equal(t, slog.LevelDebug, opts.Level)
	assert.Equal(t, "/var/log/hivetrace", opts.LogDir)
	assert.True(t, opts.JSON)
}

func TestLoadFs_SearchPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/hivetrace/hivetrace-config.yaml",
		[]byte("walk:\n  max_depth: 3\n"), 0o644))

	cfg, err := LoadFs(fs, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Walk.MaxDepth)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadFs_EnvOverrides(t *testing.T) {
	t.Setenv("HIVETRACE_WALK_MAX_DEPTH", "7")
	t.Setenv("HIVETRACE_OUTPUT_FORMAT", "reg")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte(sampleYAML), 0o644))

	cfg, err := LoadFs(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Walk.MaxDepth)
	assert.Equal(t, "reg", cfg.Output.Format)
	assert.True(t, cfg.Walk.IncludeDescendants)
}

func TestLoadFs_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("walk: [unclosed"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/format.yaml", []byte("output:\n  format: xml\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/depth.yaml", []byte("walk:\n  max_depth: -1\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/level.yaml", []byte("log:\n  level: shout\n"), 0o644))

	_, err := LoadFs(fs, "/missing.yaml")
	require.Error(t, err)

	_, err = LoadFs(fs, "/bad.yaml")
	require.Error(t, err)

	for _, p := range []string{"/format.yaml", "/depth.yaml", "/level.yaml"} {
		t.Run(p, func(t *testing.T) {
			_, err := LoadFs(fs, p)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
