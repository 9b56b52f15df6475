package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetr/internal/core"
	"budgetr/internal/store"
)

// FallbackStore writes to a hosted record store first and falls back to the
// local one when the hosted store fails. There is no retry and no
// reconciliation: a record lives wherever it was first written.
type FallbackStore struct {
	remote store.RecordStore
	local  store.RecordStore
}

var _ store.RecordStore = (*FallbackStore)(nil)

// NewFallbackStore returns local unchanged when remote is nil.
func NewFallbackStore(remote, local store.RecordStore) store.RecordStore {
	if remote == nil {
		return local
	}
	return &FallbackStore{remote: remote, local: local}
}

// Append implements store.RecordWriter
func (f *FallbackStore) Append(ctx context.Context, e core.Expenditure) (string, error) {
	id, err := f.remote.Append(ctx, e)
	if err == nil {
		return id, nil
	}
	if isValidation(err) {
		return "", err
	}
	slog.WarnContext(ctx, "Remote append failed, saving locally", "error", err)
	return f.local.Append(ctx, e)
}

// Get implements store.RecordGetter
func (f *FallbackStore) Get(ctx context.Context, id string) (core.Expenditure, error) {
	e, err := f.remote.Get(ctx, id)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Remote get failed, reading locally", "id", id, "error", err)
	}
	return f.local.Get(ctx, id)
}

// Delete implements store.RecordDeleter
func (f *FallbackStore) Delete(ctx context.Context, id string) error {
	err := f.remote.Delete(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Remote delete failed, deleting locally", "id", id, "error", err)
	}
	return f.local.Delete(ctx, id)
}

// ListExpenditures returns hosted and local records together, one per ID. A
// record present in both stores is reported from the hosted store. When the
// hosted store is unavailable only local records are returned.
func (f *FallbackStore) ListExpenditures(ctx context.Context) ([]core.Expenditure, error) {
	local, err := f.local.ListExpenditures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local expenditures: %w", err)
	}
	remote, err := f.remote.ListExpenditures(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Remote list failed, using local records only", "error", err)
		return local, nil
	}

	seen := make(map[string]struct{}, len(remote))
	for _, e := range remote {
		seen[e.ID] = struct{}{}
	}
	for _, e := range local {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		remote = append(remote, e)
	}
	return remote, nil
}

func isValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrDescriptionLong)
}
