package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetr/internal/config"
	"budgetr/internal/core"
	"budgetr/internal/store/memory"

	"github.com/shopspring/decimal"
)

// fakeRemote is an in-memory stand-in for the hosted store.
type fakeRemote struct {
	*memory.Store
	pingErr error
	closed  bool
}

func (f *fakeRemote) Ping(context.Context) error { return f.pingErr }
func (f *fakeRemote) Close()                     { f.closed = true }

func newTestFactory(open func(ctx context.Context, url string) (remoteStore, error)) *DefaultFactory {
	f := NewFactory(nil).(*DefaultFactory)
	if open != nil {
		f.openRemote = open
	}
	return f
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := newTestFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, Settings: LocalSettings})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if _, err := res.Records.Append(ctx, core.Expenditure{Description: "x", Amount: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := res.Settings.Set(ctx, "frequency", "year"); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("memory backend should always be ready: %v", err)
	}
	if res.Remote {
		t.Fatal("no remote configured")
	}
}

func TestCreateBackend_MemorySeedFile(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.toml")
	content := `
[settings]
frequency = "weekly"

[[expenditures]]
description = "Rent"
amount = "900"
category = "Housing"
`
	if err := os.WriteFile(seed, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	res, err := newTestFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed, Settings: LocalSettings})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	list, _ := res.Records.ListExpenditures(ctx)
	if len(list) != 1 || list[0].Description != "Rent" {
		t.Fatalf("seed not loaded: %+v", list)
	}
	if v, ok, _ := res.Settings.Get(ctx, "frequency"); !ok || v != "weekly" {
		t.Fatalf("seed settings not loaded: %q %v", v, ok)
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "budgetr.db")

	res, err := newTestFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, Settings: LocalSettings})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	id, err := res.Records.Append(ctx, core.Expenditure{Description: "x", Amount: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	reopened, err := newTestFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, Settings: LocalSettings})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Cleanup()
	if _, err := reopened.Records.Get(ctx, id); err != nil {
		t.Fatalf("record should persist across reopen: %v", err)
	}
}

func TestCreateBackend_RemoteWrapsLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{Store: memory.New()}
	f := newTestFactory(func(context.Context, string) (remoteStore, error) { return remote, nil })

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, Settings: LocalSettings, RemoteDatabaseURL: "postgres://db/budgetr"})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if !res.Remote {
		t.Fatal("expected remote store to be active")
	}

	id, err := res.Records.Append(ctx, core.Expenditure{Description: "x", Amount: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := remote.Get(ctx, id); err != nil {
		t.Fatalf("write should go to the remote store first: %v", err)
	}

	remote.pingErr = errors.New("connection reset")
	if err := res.Ping(ctx); err == nil {
		t.Fatal("ping should report the remote failure")
	}

	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if !remote.closed {
		t.Fatal("remote store should be closed on cleanup")
	}
}

func TestCreateBackend_UnreachableRemoteFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory(func(context.Context, string) (remoteStore, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, Settings: LocalSettings, RemoteDatabaseURL: "postgres://db/budgetr"})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Remote {
		t.Fatal("remote should be skipped when unreachable")
	}
	if _, err := res.Records.Append(ctx, core.Expenditure{Description: "x", Amount: decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("local append: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend, Settings: LocalSettings}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, Settings: LocalSettings}, true},
		{"unknown type", Config{Type: "sheets", Settings: LocalSettings}, true},
		{"redis without address", Config{Type: MemoryBackend, Settings: RedisSettings}, true},
		{"unknown settings backend", Config{Type: MemoryBackend, Settings: "etcd"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", RemoteDatabaseURL: "postgres://x/y"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.Settings != LocalSettings || cfg.RemoteDatabaseURL != "postgres://x/y" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
