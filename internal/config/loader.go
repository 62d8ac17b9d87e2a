package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "portalwatch.yaml"

// ErrConfigNotFound is returned when neither the configuration file nor its
// local override exists.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load reads a profile from path and fills unset values with defaults.
//
// The format follows the extension: .json and .json5 are read as JSON5,
// anything else as YAML. A sibling "<name>.local.<ext>" file, when present,
// is merged on top. Non-zero values in the local file win, so a local file
// cannot reset a value to false or zero.
func Load(path string) (*Config, error) {
	var cfg Config
	found := false

	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := decode(path, data, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		found = true
	}

	local := LocalPath(path)
	data, err = os.ReadFile(local) //nolint:gosec // derived from the user-provided path
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		var override Config
		if err := decode(local, data, &override); err != nil {
			return nil, fmt.Errorf("%s: %w", local, err)
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", local, err)
		}
		slog.Debug("merged config with local overrides", "local", local)
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	if err := mergo.Merge(&cfg, *NewConfig()); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &cfg, nil
}

// LocalPath returns the override file name for path:
// "dir/name.yaml" becomes "dir/name.local.yaml".
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".json5":
		return json5.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for portalwatch.yaml, then .portalwatch.yaml, in the current directory
// 3. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if exists(configPath) || exists(LocalPath(configPath)) {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		for _, name := range []string{DefaultConfigFile, "." + DefaultConfigFile} {
			p := filepath.Join(cwd, name)
			if exists(p) {
				return p
			}
		}
	}

	p := filepath.Join(XDGConfigDir(), "config.yaml")
	if exists(p) {
		return p
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
