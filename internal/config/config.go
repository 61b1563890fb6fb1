package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API APIConfig
	UI  UIConfig
}

// APIConfig holds budgeting service settings.
type APIConfig struct {
	BaseURL        string
	Token          string
	TokenEnv       string
	TimeoutSeconds int
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string
	CurrencySymbol string
}

// Load reads configuration from file and env. Env var overrides use prefix NESTEGG_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:8080/app/v1")
	v.SetDefault("api.token", "")
	v.SetDefault("api.token_env", "NESTEGG_API_TOKEN")
	v.SetDefault("api.timeout_seconds", 15)
	v.SetDefault("ui.date_format", "02/01/2006")
	v.SetDefault("ui.currency_symbol", "$")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("NESTEGG_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "nestegg"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("NESTEGG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Path returns the config file location: NESTEGG_CONFIG when set, otherwise
// ~/.config/nestegg/config.toml.
func Path() string {
	if p := os.Getenv("NESTEGG_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "nestegg", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if
// needed. The access token is deliberately not written: tokens belong in the
// token store or the environment, not in a world-readable config file.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.token_env", cfg.API.TokenEnv)
	v.Set("api.timeout_seconds", cfg.API.TimeoutSeconds)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
