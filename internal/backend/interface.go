// Package backend wires the record and settings stores selected by
// configuration.
package backend

import (
	"context"

	"budgetr/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// PingFunc reports whether a backing service is reachable.
type PingFunc func(ctx context.Context) error

// BackendResult holds the stores built by a Factory.
type BackendResult struct {
	Records  store.RecordStore
	Settings store.SettingsStore
	// Ping checks every store that can become unreachable. It is never nil.
	Ping    PingFunc
	Cleanup CleanupFunc
	// Remote is true when writes go to the hosted store first.
	Remote bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
	// SeedFile is an optional TOML file loaded into the memory backend.
	SeedFile string

	// RemoteDatabaseURL enables the hosted record store when set.
	RemoteDatabaseURL string

	Settings  SettingsBackendType
	RedisAddr string
	RedisKey  string
}

// BackendType selects the local record store.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// SettingsBackendType selects where settings live. Local means the same
// store as the records.
type SettingsBackendType string

const (
	LocalSettings SettingsBackendType = "local"
	RedisSettings SettingsBackendType = "redis"
)

func (st SettingsBackendType) IsValid() bool {
	return st == LocalSettings || st == RedisSettings
}
