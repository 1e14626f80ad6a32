package sheet

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the columns as cells of a single table, one row per
// (column, position).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures the
// cells table exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sheet_cells (
			column_name TEXT    NOT NULL,
			position    INTEGER NOT NULL,
			value       TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (column_name, position)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sheet_cells: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Read(ctx context.Context) (Columns, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT column_name, value FROM sheet_cells ORDER BY column_name, position")
	if err != nil {
		return Columns{}, fmt.Errorf("query sheet_cells: %w", err)
	}
	defer rows.Close()

	found := make(map[string][]string, len(ColumnNames))
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Columns{}, fmt.Errorf("scan sheet_cells: %w", err)
		}
		found[name] = append(found[name], value)
	}
	if err := rows.Err(); err != nil {
		return Columns{}, fmt.Errorf("iterate sheet_cells: %w", err)
	}

	var c Columns
	for _, name := range ColumnNames {
		values, ok := found[name]
		if !ok {
			return Columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		c.set(name, compact(values))
	}
	return c, nil
}

// Write replaces every cell inside one transaction.
func (s *SQLiteStore) Write(ctx context.Context, cols Columns) error {
	padded := cols.Pad()
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sheet_cells"); err != nil {
			return fmt.Errorf("clear sheet_cells: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO sheet_cells (column_name, position, value) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, name := range ColumnNames {
			for i, v := range padded.Get(name) {
				if _, err := stmt.ExecContext(ctx, name, i, v); err != nil {
					return fmt.Errorf("insert %s[%d]: %w", name, i, err)
				}
			}
		}
		return nil
	})
}

func (s *SQLiteStore) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
