package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DR_CONFIG_PATH: config file location (default: ~/.config/dr.toml)
//   - DR_HOME: base directory for dr data (default: ~/.local/share/dr)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking DR_CONFIG_PATH env var first,
// then falling back to the default ~/.config/dr.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("DR_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dr.toml"), nil
}

// getBaseDir returns the base directory for dr data, checking DR_HOME env var first,
// then falling back to the XDG default ~/.local/share/dr.
func getBaseDir() (string, error) {
	if path := os.Getenv("DR_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "dr"), nil
}
