package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".qbitkeeper"))
		}

		// Check /etc
		v.AddConfigPath("/etc/qbitkeeper/")
	}

	// Environment overrides, e.g. QBITKEEPER_QBITTORRENT_PASSWORD
	v.SetEnvPrefix("QBITKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// qBittorrent defaults
	v.SetDefault("qbittorrent.host", "http://localhost:8080")
	v.SetDefault("qbittorrent.timeout", 30)

	// Space defaults
	v.SetDefault("space.min_free_gb", 10)
	v.SetDefault("space.auto_resume", false)
	v.SetDefault("space.skip_force_start", true)

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Qbittorrent.Host == "" {
		return fmt.Errorf("qbittorrent.host is required")
	}

	if cfg.Space.DownloadDir == "" {
		return fmt.Errorf("space.download_dir is required")
	}

	if cfg.Space.MinFreeGB < 0 {
		return fmt.Errorf("space.min_free_gb must not be negative")
	}

	if cfg.Tagging.Enabled {
		if len(cfg.Tagging.Trackers) == 0 {
			return fmt.Errorf("tagging.enabled is set but tagging.trackers is empty")
		}
		for _, rule := range cfg.Tagging.Trackers {
			if rule.Tag == "" {
				return fmt.Errorf("tagging rule with pattern %q has no tag", rule.Pattern)
			}
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				return fmt.Errorf("invalid tagging pattern for tag %q: %w", rule.Tag, err)
			}
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
