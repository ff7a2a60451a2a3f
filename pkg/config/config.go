package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cdlextract/pkg/geo"
)

// Config holds all configuration options for the extraction pipeline
type Config struct {
	// Source raster location
	Source SourceConfig `yaml:"source" json:"source"`

	// Region of interest
	Region RegionConfig `yaml:"region" json:"region"`

	// Scan settings
	Processing ProcessingConfig `yaml:"processing" json:"processing"`

	// Output layout
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig locates the yearly source grids
type SourceConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	// PathPattern is the per-year path under BaseDirectory; every
	// "{year}" placeholder is replaced with the run's year.
	PathPattern string `yaml:"path_pattern" json:"path_pattern"`
}

// RegionConfig is the geographic region of interest. Bounds are in
// degrees; the pipeline reprojects them into the grid's CRS once per run.
type RegionConfig struct {
	Name   string        `yaml:"name" json:"name"`
	Bounds geo.GeoBounds `yaml:"bounds" json:"bounds"`
}

// ProcessingConfig holds scan-phase settings
type ProcessingConfig struct {
	ChunkSize        int `yaml:"chunk_size" json:"chunk_size"`
	ProgressInterval int `yaml:"progress_interval" json:"progress_interval"`
}

// OutputConfig holds the output directory layout
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ChunksSubdir  string `yaml:"chunks_subdir" json:"chunks_subdir"`
	FinalSubdir   string `yaml:"final_subdir" json:"final_subdir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseDirectory: "data",
			PathPattern:   "{year}_30m_cdls/{year}_30m_cdls.grid",
		},
		Region: RegionConfig{
			Name: "california",
			Bounds: geo.GeoBounds{
				West:  -124.482003,
				East:  -114.131211,
				South: 32.534156,
				North: 42.009517,
			},
		},
		Processing: ProcessingConfig{
			ChunkSize:        1000,
			ProgressInterval: 100,
		},
		Output: OutputConfig{
			BaseDirectory: "processed_data",
			ChunksSubdir:  "chunks",
			FinalSubdir:   "final",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// SourcePath returns the grid file path for a year
func (c *Config) SourcePath(year int) string {
	rel := strings.ReplaceAll(c.Source.PathPattern, "{year}", fmt.Sprintf("%d", year))
	return filepath.Join(c.Source.BaseDirectory, rel)
}

// ChunksDir returns the chunk directory for a year
func (c *Config) ChunksDir(year int) string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.ChunksSubdir, fmt.Sprintf("%d", year))
}

// FinalDir returns the directory holding consolidated per-year artifacts
func (c *Config) FinalDir() string {
	return filepath.Join(c.Output.BaseDirectory, c.Output.FinalSubdir)
}

// FinalArtifactPath returns the consolidated store path for a year. Its
// existence marks the year as fully processed.
func (c *Config) FinalArtifactPath(year int) string {
	name := fmt.Sprintf("cdl_%s_%d.db", c.Region.Name, year)
	return filepath.Join(c.FinalDir(), name)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if dir := os.Getenv("CDLEXTRACT_SOURCE_DIR"); dir != "" {
		c.Source.BaseDirectory = dir
	}
	if pattern := os.Getenv("CDLEXTRACT_SOURCE_PATTERN"); pattern != "" {
		c.Source.PathPattern = pattern
	}
	if dir := os.Getenv("CDLEXTRACT_OUTPUT_DIR"); dir != "" {
		c.Output.BaseDirectory = dir
	}
	if size := os.Getenv("CDLEXTRACT_CHUNK_SIZE"); size != "" {
		var val int
		fmt.Sscanf(size, "%d", &val)
		if val > 0 {
			c.Processing.ChunkSize = val
		}
	}
	if region := os.Getenv("CDLEXTRACT_REGION"); region != "" {
		c.Region.Name = region
	}
	if logLevel := os.Getenv("CDLEXTRACT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".cdlextract.yaml",
		".cdlextract.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "cdlextract", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "cdlextract", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".cdlextract.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.BaseDirectory == "" {
		errs = append(errs, errors.New("source base directory is required"))
	}
	if !strings.Contains(c.Source.PathPattern, "{year}") {
		errs = append(errs, errors.New("source path pattern must contain a {year} placeholder"))
	}

	if c.Region.Name == "" {
		errs = append(errs, errors.New("region name is required"))
	}
	if c.Region.Bounds.West >= c.Region.Bounds.East {
		errs = append(errs, errors.New("region bounds: west must be less than east"))
	}
	if c.Region.Bounds.South >= c.Region.Bounds.North {
		errs = append(errs, errors.New("region bounds: south must be less than north"))
	}

	if c.Processing.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Processing.ProgressInterval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ChunksSubdir == "" || c.Output.FinalSubdir == "" {
		errs = append(errs, errors.New("output subdirectories are required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dir, ok := flags["source"].(string); ok && dir != "" {
		c.Source.BaseDirectory = dir
	}
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Output.BaseDirectory = dir
	}
	if size, ok := flags["chunk-size"].(int); ok && size > 0 {
		c.Processing.ChunkSize = size
	}
	if region, ok := flags["region"].(string); ok && region != "" {
		c.Region.Name = region
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".cdlextract.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
