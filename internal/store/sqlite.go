package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobrake/internal/model"
)

// WAL lets readers proceed while a batch is being written; busy_timeout makes
// a second writer wait instead of failing immediately.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL,
	location    TEXT NOT NULL,
	description TEXT,
	url         TEXT NOT NULL,
	source      TEXT NOT NULL,
	date_posted TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_date_posted ON jobs (date_posted DESC, id DESC);`

const selectColumns = `SELECT id, title, company, location, COALESCE(description, ''), url, source, COALESCE(date_posted, '') FROM jobs`

// SQLiteStore keeps postings in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := (&url.URL{Scheme: "file", Opaque: dbPath, RawQuery: sqlitePragmas}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts the batch in one transaction. On any failure nothing from the
// batch is visible.
func (s *SQLiteStore) Append(ctx context.Context, postings []model.Posting) (_ []model.Posting, err error) {
	if len(postings) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning transaction: %w", model.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jobs (title, company, location, description, url, source, date_posted)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("%w: preparing insert: %w", model.ErrPersistence, err)
	}
	defer stmt.Close()

	stored := make([]model.Posting, len(postings))
	for i, p := range postings {
		res, err := stmt.ExecContext(ctx, p.Title, p.Company, p.Location, p.Description, p.URL, string(p.Source), p.DatePosted)
		if err != nil {
			return nil, fmt.Errorf("%w: inserting posting %d: %w", model.ErrPersistence, i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("%w: reading id of posting %d: %w", model.ErrPersistence, i, err)
		}
		p.ID = id
		stored[i] = p
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing batch: %w", model.ErrPersistence, err)
	}
	return stored, nil
}

// ListAll returns every posting, newest date first and newest id first within
// a date.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY date_posted DESC, id DESC`)
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
func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Posting, error) {
	p, err := scanPosting(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Posting{}, fmt.Errorf("posting %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Posting{}, fmt.Errorf("getting posting %d: %w", id, err)
	}
	return p, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (model.Posting, error) {
	var p model.Posting
	var source string
	err := row.Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Description, &p.URL, &source, &p.DatePosted)
	p.Source = model.Source(source)
	return p, err
}
