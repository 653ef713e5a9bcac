package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/patternhost/pkg/logging"
)

const (
	userConfigDir  = ".config/patternhost"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns ~/.config/patternhost.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from configPath on top of the defaults.
// A missing file yields the defaults; a malformed or invalid one is an error.
func LoadConfig(configPath string) (PatternHostConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return PatternHostConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return PatternHostConfig{}, fmt.Errorf("error loading config from %s: %w",
			configFilePath, NewConfigurationError(configFilePath, "parse", err.Error()))
	}
	if err := config.Validate(); err != nil {
		return PatternHostConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
