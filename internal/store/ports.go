package store

import (
	"context"
	"errors"

	"budgetr/internal/core"
)

var (
	// ErrNotFound is returned when a record or setting does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExported is returned by an ExpenditureExporter when the record
	// is already present at the destination.
	ErrAlreadyExported = errors.New("expenditure already exported")
)

// Ports for outbound adapters.
type (
	RecordWriter interface {
		// Append stores e and returns the identifier assigned to it.
		Append(ctx context.Context, e core.Expenditure) (id string, err error)
	}

	RecordGetter interface {
		Get(ctx context.Context, id string) (core.Expenditure, error)
	}

	RecordDeleter interface {
		// Delete removes the record. A missing id returns ErrNotFound.
		Delete(ctx context.Context, id string) error
	}

	// RecordLister returns a fresh snapshot of every stored expenditure.
	// Callers own the returned slice.
	RecordLister interface {
		ListExpenditures(ctx context.Context) ([]core.Expenditure, error)
	}

	RecordStore interface {
		RecordWriter
		RecordGetter
		RecordDeleter
		RecordLister
	}

	// SettingsStore is a flat string key/value store. found is false when the
	// key has never been written.
	SettingsStore interface {
		Get(ctx context.Context, key string) (value string, found bool, err error)
		Set(ctx context.Context, key, value string) error
	}

	// ExpenditureExporter mirrors records to an external destination such as a
	// spreadsheet.
	ExpenditureExporter interface {
		Export(ctx context.Context, e core.Expenditure) (rowRef string, err error)
	}
)
