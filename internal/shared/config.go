package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Project  ProjectConfig  `toml:"project"`
	Database DatabaseConfig `toml:"database"`
	Tracker  TrackerConfig  `toml:"tracker"`
}

// APIConfig contains pipeline backend connection settings.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// ProjectConfig identifies the active project, the owning scope for submitted jobs.
//
// An empty ID means jobs are submitted without a project and local
// snapshots are neither written nor resumed.
type ProjectConfig struct {
	ID string `toml:"id"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// TrackerConfig contains job tracking settings.
type TrackerConfig struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	SnapshotTTLHours    int `toml:"snapshot_ttl_hours"`
}

// PollInterval returns the configured poll interval, defaulting to 5 seconds.
func (c *Config) PollInterval() time.Duration {
	if c.Tracker.PollIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Tracker.PollIntervalSeconds) * time.Second
}

// SnapshotTTL returns the maximum age for a resumable persisted snapshot, defaulting to 24 hours.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Tracker.SnapshotTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Tracker.SnapshotTTLHours) * time.Hour
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
