package backend

import (
	"errors"
	"fmt"
	"strings"

	"budgetr/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:              BackendType(appConfig.DataBackend),
		SQLiteDBPath:      appConfig.SQLiteDBPath,
		SeedFile:          appConfig.SeedFile,
		RemoteDatabaseURL: appConfig.RemoteDatabaseURL,
		Settings:          SettingsBackendType(appConfig.SettingsBackend),
		RedisAddr:         appConfig.RedisAddr,
		RedisKey:          appConfig.RedisKey,
	}
	if cfg.Settings == "" {
		cfg.Settings = LocalSettings
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q (want one of %s)", c.Type, strings.Join(GetBackendTypeStrings(), ", "))
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}

	if !c.Settings.IsValid() {
		return fmt.Errorf("invalid settings backend: %s", c.Settings)
	}
	if c.Settings == RedisSettings && c.RedisAddr == "" {
		return errors.New("Redis address is required for redis settings backend")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
