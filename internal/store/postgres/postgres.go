// Package postgres is the hosted record store. Writes go here first when a
// remote database URL is configured.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetr/internal/core"
	"budgetr/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS expenditures (
	id           UUID PRIMARY KEY,
	description  TEXT NOT NULL,
	amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
	category     TEXT NOT NULL,
	priority     INTEGER NOT NULL DEFAULT 99,
	spent_on     TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_expenditures_priority ON expenditures(priority, created_at);
`

// Store implements store.RecordStore on top of a pgx pool.
type Store struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// Open connects with retries and exponential backoff, then ensures the
// schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = 5
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	retries := 5
	backoff := time.Second

	for i := 0; i < retries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
		}
		if pool != nil {
			pool.Close()
			pool = nil
		}

		slog.WarnContext(ctx, "Remote database connection attempt failed",
			"attempt", i+1, "max_attempts", retries, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	if pool == nil {
		return nil, fmt.Errorf("connect to remote database after %d attempts: %w", retries, err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	slog.InfoContext(ctx, "Remote record store ready")
	return New(pool), nil
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Append(ctx context.Context, e core.Expenditure) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	e = e.Normalize(s.now())
	id := uuid.New()

	_, err := s.db.Exec(ctx,
		`INSERT INTO expenditures (id, description, amount_cents, category, priority, spent_on, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, e.Description, core.ToCents(e.Amount), e.Category, e.Priority, e.Date, e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert expenditure: %w", err)
	}
	return id.String(), nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Expenditure, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return core.Expenditure{}, store.ErrNotFound
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, description, amount_cents, category, priority, spent_on, created_at
		 FROM expenditures WHERE id = $1`, uid)
	e, err := scanExpenditure(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Expenditure{}, store.ErrNotFound
		}
		return core.Expenditure{}, fmt.Errorf("get expenditure: %w", err)
	}
	return e, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return store.ErrNotFound
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM expenditures WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete expenditure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenditures(ctx context.Context) ([]core.Expenditure, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, description, amount_cents, category, priority, spent_on, created_at
		 FROM expenditures ORDER BY priority, created_at`)
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

func scanExpenditure(row pgx.Row) (core.Expenditure, error) {
	var (
		e     core.Expenditure
		id    uuid.UUID
		cents int64
	)
	if err := row.Scan(&id, &e.Description, &cents, &e.Category, &e.Priority, &e.Date, &e.CreatedAt); err != nil {
		return core.Expenditure{}, err
	}
	e.ID = id.String()
	e.Amount = core.FromCents(cents)
	return e, nil
}
