package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobrake/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS jobs (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL,
	location    TEXT NOT NULL,
	description TEXT,
	url         TEXT NOT NULL,
	source      TEXT NOT NULL,
	date_posted TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_date_posted ON jobs (date_posted DESC, id DESC);`

// pgxPool is the subset of *pgxpool.Pool the store uses, so tests can swap in
// pgxmock.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps postings in a shared Postgres database.
type PostgresStore struct {
	pool pgxPool
}

// NewPostgresStore connects to dsn and ensures the jobs table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("store.dsn is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	s, err := NewPostgresStoreWithPool(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreWithPool builds a store from an existing pool and creates
// the schema.
func NewPostgresStoreWithPool(ctx context.Context, pool pgxPool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append inserts the batch in one transaction and returns it with ids.
func (s *PostgresStore) Append(ctx context.Context, postings []model.Posting) (_ []model.Posting, err error) {
	if len(postings) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", model.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			// ctx may already be done; the rollback still has to reach the server.
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
			}
		}
	}()

	stored := make([]model.Posting, len(postings))
	for i, p := range postings {
		err := tx.QueryRow(ctx,
			`INSERT INTO jobs (title, company, location, description, url, source, date_posted)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			p.Title, p.Company, p.Location, p.Description, p.URL, string(p.Source), p.DatePosted,
		).Scan(&p.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: inserting posting %d: %w", model.ErrPersistence, i, err)
		}
		stored[i] = p
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing batch: %w", model.ErrPersistence, err)
	}
	return stored, nil
}

// ListAll returns every posting, newest date first and newest id first within
// a date.
func (s *PostgresStore) ListAll(ctx context.Context) ([]model.Posting, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY date_posted DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	postings := []model.Posting{}
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}
	return postings, nil
}

// Get returns the posting with the given id or model.ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, id int64) (model.Posting, error) {
	p, err := scanPosting(s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Posting{}, fmt.Errorf("posting %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Posting{}, fmt.Errorf("getting posting %d: %w", id, err)
	}
	return p, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
