package salelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/pos-till/internal/sale"
)

const schema = `CREATE TABLE IF NOT EXISTS sales (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    payload TEXT NOT NULL
);`

type row struct {
	Seq       int64  `db:"seq"`
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	Payload   string `db:"payload"`
}

// SQLite persists the sale log in a single SQLite table ordered by seq.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite connects to dsn and creates the schema. ":memory:" is accepted.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("salelog: connect: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("salelog: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Append inserts rec as the newest entry.
func (s *SQLite) Append(ctx context.Context, rec sale.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("salelog: encode %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sales (id, created_at, payload) VALUES (?, ?, ?)`,
		rec.ID.String(), rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return fmt.Errorf("salelog: append %s: %w", rec.ID, err)
	}
	return nil
}

// LastAppended returns the entry with the highest seq.
func (s *SQLite) LastAppended(ctx context.Context) (sale.Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, `SELECT seq, id, created_at, payload FROM sales ORDER BY seq DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return sale.Record{}, ErrEmpty
	}
	if err != nil {
		return sale.Record{}, fmt.Errorf("salelog: last: %w", err)
	}
	return decode(r)
}

// All returns every entry in append order.
func (s *SQLite) All(ctx context.Context) ([]sale.Record, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT seq, id, created_at, payload FROM sales ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("salelog: list: %w", err)
	}
	out := make([]sale.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func decode(r row) (sale.Record, error) {
	var rec sale.Record
	if err := json.Unmarshal([]byte(r.Payload), &rec); err != nil {
		return sale.Record{}, fmt.Errorf("salelog: decode seq %d: %w", r.Seq, err)
	}
	return rec, nil
}
