package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetr/internal/core"
	"budgetr/internal/store"

	"github.com/shopspring/decimal"
)

var (
	_ store.RecordStore   = (*Store)(nil)
	_ store.SettingsStore = (*Settings)(nil)
)

func TestMemoryStoreAppendGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Append(ctx, core.Expenditure{
		Description: "t",
		Amount:      decimal.RequireFromString("1.23"),
	})
	if err != nil || id != "mem:1" {
		t.Fatalf("unexpected append: id=%q err=%v", id, err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != core.UncategorizedLabel || got.Priority != core.DefaultPriority || got.CreatedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", got)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	if _, err := s.Append(context.Background(), core.Expenditure{Description: "x"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMemoryStoreListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, d := range []string{"a", "b", "c"} {
		if _, err := s.Append(ctx, core.Expenditure{Description: d, Amount: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	list, _ := s.ListExpenditures(ctx)
	if len(list) != 3 || list[0].Description != "a" || list[2].Description != "c" {
		t.Fatalf("unexpected list: %+v", list)
	}
	list[0].Description = "mutated"

	again, _ := s.ListExpenditures(ctx)
	if again[0].Description != "a" {
		t.Fatalf("list must not alias store contents")
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()

	// No file -> empty store
	s, err := NewFromFile(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if list, _ := s.ListExpenditures(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store")
	}

	path := filepath.Join(dir, "seed.toml")
	content := `
[settings]
frequency = "year"
netMonthlyIncome = "4200"

[[expenditures]]
description = "Rent"
amount = "1450.00"
category = "Housing"
priority = 1
date = "2026-01-01"

[[expenditures]]
description = "Coffee"
amount = "3,50"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	list, _ := s.ListExpenditures(context.Background())
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].Priority != 1 || list[0].Date.Month() != 1 {
		t.Fatalf("unexpected first record: %+v", list[0])
	}
	if !list[1].Amount.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("unexpected amount: %s", list[1].Amount)
	}

	v, ok, _ := s.Settings().Get(context.Background(), "frequency")
	if !ok || v != "year" {
		t.Fatalf("frequency setting = %q, %v", v, ok)
	}
}

func TestNewFromFileRejectsBadAmount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.toml")
	content := "[[expenditures]]\ndescription = \"x\"\namount = \"abc\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSettingsGetSet(t *testing.T) {
	ctx := context.Background()
	st := New().Settings()
	if _, ok, _ := st.Get(ctx, "frequency"); ok {
		t.Fatalf("expected missing key")
	}
	if err := st.Set(ctx, "frequency", "weekly"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := st.Get(ctx, "frequency"); !ok || v != "weekly" {
		t.Fatalf("got %q %v", v, ok)
	}
}
