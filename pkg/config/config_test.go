package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)

	// Source defaults
	assert.Equal(t, "data", cfg.Source.BaseDirectory)
	assert.Contains(t, cfg.Source.PathPattern, "{year}")

	// Region defaults (California)
	assert.Equal(t, "california", cfg.Region.Name)
	assert.InDelta(t, -124.482003, cfg.Region.Bounds.West, 1e-9)
	assert.InDelta(t, -114.131211, cfg.Region.Bounds.East, 1e-9)
	assert.InDelta(t, 32.534156, cfg.Region.Bounds.South, 1e-9)
	assert.InDelta(t, 42.009517, cfg.Region.Bounds.North, 1e-9)

	// Processing defaults
	assert.Equal(t, 1000, cfg.Processing.ChunkSize)
	assert.Equal(t, 100, cfg.Processing.ProgressInterval)

	// Output defaults
	assert.Equal(t, "processed_data", cfg.Output.BaseDirectory)
	assert.Equal(t, "chunks", cfg.Output.ChunksSubdir)
	assert.Equal(t, "final", cfg.Output.FinalSubdir)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)

	assert.NoError(t, cfg.Validate())
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t,
		filepath.Join("data", "2008_30m_cdls", "2008_30m_cdls.grid"),
		cfg.SourcePath(2008))
	assert.Equal(t,
		filepath.Join("processed_data", "chunks", "2008"),
		cfg.ChunksDir(2008))
	assert.Equal(t,
		filepath.Join("processed_data", "final", "cdl_california_2008.db"),
		cfg.FinalArtifactPath(2008))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CDLEXTRACT_SOURCE_DIR", "/mnt/rasters")
	t.Setenv("CDLEXTRACT_OUTPUT_DIR", "/mnt/out")
	t.Setenv("CDLEXTRACT_CHUNK_SIZE", "2000")
	t.Setenv("CDLEXTRACT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/mnt/rasters", cfg.Source.BaseDirectory)
	assert.Equal(t, "/mnt/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 2000, cfg.Processing.ChunkSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
source:
  base_directory: /rasters
processing:
  chunk_size: 500
region:
  name: test_region
  bounds:
    west: -120
    east: -115
    south: 33
    north: 40
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "/rasters", cfg.Source.BaseDirectory)
	assert.Equal(t, 500, cfg.Processing.ChunkSize)
	assert.Equal(t, "test_region", cfg.Region.Name)
	assert.Equal(t, float64(-120), cfg.Region.Bounds.West)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, "processed_data", cfg.Output.BaseDirectory)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"source":     "/cli/src",
		"output":     "/cli/out",
		"chunk-size": 250,
		"log-level":  "warn",
	})

	assert.Equal(t, "/cli/src", cfg.Source.BaseDirectory)
	assert.Equal(t, "/cli/out", cfg.Output.BaseDirectory)
	assert.Equal(t, 250, cfg.Processing.ChunkSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Processing.ChunkSize = 0 }},
		{"negative chunk size", func(c *Config) { c.Processing.ChunkSize = -1 }},
		{"inverted bounds", func(c *Config) { c.Region.Bounds.West = 10; c.Region.Bounds.East = -10 }},
		{"flat bounds", func(c *Config) { c.Region.Bounds.South = c.Region.Bounds.North }},
		{"no year placeholder", func(c *Config) { c.Source.PathPattern = "fixed.grid" }},
		{"empty output", func(c *Config) { c.Output.BaseDirectory = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  chunk_size: 400\n"), 0644))

	t.Setenv("CDLEXTRACT_CHUNK_SIZE", "600")

	// Flag wins over env, env over file.
	cfg, err := Load(path, map[string]interface{}{"chunk-size": 800})
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Processing.ChunkSize)

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Processing.ChunkSize)
}
