package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"budgetr/internal/core"
	"budgetr/internal/store"

	_ "modernc.org/sqlite"
)

const selectExpenditure = `SELECT id, description, amount_cents, category, priority, spent_on, created_at FROM expenditures`

// SQLiteRepository is the local record store. Settings returns the key/value
// store backed by the same database.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.RecordStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements store.RecordWriter
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	e = e.Normalize(r.now())

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenditures (description, amount_cents, category, priority, spent_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Description, core.ToCents(e.Amount), e.Category, e.Priority, e.Date.UTC(), e.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("create expenditure: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read expenditure id: %w", err)
	}

	slog.InfoContext(ctx, "Expenditure saved to SQLite",
		"id", id,
		"description", e.Description,
		"amount", e.Amount.StringFixed(2),
		"category", e.Category)

	return strconv.FormatInt(id, 10), nil
}

// Get implements store.RecordGetter
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expenditure, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return core.Expenditure{}, store.ErrNotFound
	}

	e, err := scanExpenditure(r.db.QueryRowContext(ctx, selectExpenditure+` WHERE id = ?`, n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expenditure{}, store.ErrNotFound
		}
		return core.Expenditure{}, fmt.Errorf("get expenditure %s: %w", id, err)
	}
	return e, nil
}

// Delete implements store.RecordDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM expenditures WHERE id = ?`, n)
	if err != nil {
		return fmt.Errorf("delete expenditure: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expenditure: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Expenditure deleted from SQLite", "id", id)
	return nil
}

// ListExpenditures implements store.RecordLister
func (r *SQLiteRepository) ListExpenditures(ctx context.Context) ([]core.Expenditure, error) {
	rows, err := r.db.QueryContext(ctx, selectExpenditure+` ORDER BY priority, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenditures: %w", err)
	}
	defer rows.Close()

	var out []core.Expenditure
	for rows.Next() {
		e, err := scanExpenditure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expenditure: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpenditure(row rowScanner) (core.Expenditure, error) {
	var (
		e         core.Expenditure
		id, cents int64
	)
	if err := row.Scan(&id, &e.Description, &cents, &e.Category, &e.Priority, &e.Date, &e.CreatedAt); err != nil {
		return core.Expenditure{}, err
	}
	e.ID = strconv.FormatInt(id, 10)
	e.Amount = core.FromCents(cents)
	return e, nil
}

// Settings returns the settings table as a store.SettingsStore.
func (r *SQLiteRepository) Settings() *SQLiteSettings {
	return &SQLiteSettings{db: r.db}
}

// SQLiteSettings implements store.SettingsStore on the settings table.
type SQLiteSettings struct {
	db *sql.DB
}

var _ store.SettingsStore = (*SQLiteSettings)(nil)

func (s *SQLiteSettings) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteSettings) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Setting saved", "key", key)
	return nil
}
