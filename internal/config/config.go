// Package config resolves the engine's runtime settings from a YAML file
// under the user's XDG config home, overlaid with CLI flags.
package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const configFileName = "orion"

const (
	defaultConnections = 8
	defaultDownloadDir = "."
)

// flagConfig stores the parsed values from the CLI flags.
type flagConfig struct {
	url         *string
	connections *int
	outputPath  *string
	tempDir     *string
	debug       *bool
}

// Config holds the settings a single download run needs.
type Config struct {
	URL         string `yaml:"url,omitempty"`
	OutputPath  string `yaml:"outputPath,omitempty"`
	TempDir     string `yaml:"tempDir,omitempty"`
	Connections int    `yaml:"connections,omitempty"`
	Debug       bool   `yaml:"debug,omitempty"`
}

// GetConfig reads the YAML config file, if present, then overlays CLI
// flags on top. A missing or empty file is not an error — defaults apply.
func GetConfig() (*Config, error) {
	configFilePath := filepath.Join(xdg.ConfigHome, configFileName)
	defaults := DefaultConfig()

	var cfg Config

	b, err := os.ReadFile(configFilePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, err
		}
	}

	conf := Config{
		URL:         zeroOr(cfg.URL, defaults.URL),
		OutputPath:  zeroOr(cfg.OutputPath, defaults.OutputPath),
		TempDir:     zeroOr(cfg.TempDir, defaults.TempDir),
		Connections: zeroOr(cfg.Connections, defaults.Connections),
		Debug:       cfg.Debug,
	}

	conf.applyFlagsToConfig()

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

// DefaultConfig returns the settings used when neither a config file nor
// flags specify a value.
func DefaultConfig() Config {
	return Config{
		OutputPath:  defaultDownloadDir,
		TempDir:     os.TempDir(),
		Connections: defaultConnections,
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}

// applyFlagsToConfig overlays CLI flags on top of the config loaded from
// file. A flag given on the command line wins, even when it is set to its
// zero value; a flag that is not given keeps the value from the file or the
// defaults.
func (c *Config) applyFlagsToConfig() {
	fc := flagConfig{
		url:         flag.String("url", c.URL, "http:// URL to download"),
		connections: flag.Int("conn", c.Connections, "number of parallel connections to split the download across"),
		outputPath:  flag.String("out", c.OutputPath, "path to write the completed download to"),
		tempDir:     flag.String("td", c.TempDir, "temp directory setting (.partN chunk files are written next to the -out path, not here)"),
		debug:       flag.Bool("debug", c.Debug, "enable debug-level logging"),
	}

	flag.Parse()

	c.URL = *fc.url
	c.Connections = *fc.connections
	c.OutputPath = *fc.outputPath
	c.TempDir = *fc.tempDir
	c.Debug = *fc.debug
}

func (c *Config) validate() error {
	if c.Connections <= 0 || c.OutputPath == "" || c.TempDir == "" {
		return ErrInvalidConfig
	}

	return nil
}
