package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Data    Data    `yaml:"data"`
	Network Network `yaml:"network"`
	View    View    `yaml:"view"`
	Server  Server  `yaml:"server"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

type Data struct {
	File  string `yaml:"file"`
	Sheet string `yaml:"sheet"`
}

type Network struct {
	Enabled   bool          `yaml:"enabled"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type View struct {
	GridColumns int `yaml:"grid_columns"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Environment variables that override the file.
const (
	EnvDataFile = "MEDIADASH_DATA_FILE"
	EnvPort     = "MEDIADASH_PORT"
	EnvLogLevel = "MEDIADASH_LOG_LEVEL"
)

// ConfigDir returns the XDG config directory for mediadash.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "mediadash")
}

// DataDir returns the XDG data directory for mediadash.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "mediadash")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/mediadash/config.yaml > ./config.yaml.
// An empty result with a nil error means no file exists and the embedded
// defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	data := DefaultConfigYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Data: Data{File: "videos.xlsx"},
		Network: Network{
			Enabled:   true,
			Timeout:   5 * time.Second,
			UserAgent: "Mozilla/5.0",
		},
		View:    View{GridColumns: 5},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.View.GridColumns <= 0 {
		cfg.View.GridColumns = 5
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDataFile); ok {
		c.Data.File = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = strings.ToUpper(v)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the snapshot database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "mediadash.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
