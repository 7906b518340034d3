package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rparkin1/wealthNavigator-sub000/internal/goal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dependencies (
	id              TEXT PRIMARY KEY,
	source_goal_id  TEXT NOT NULL,
	target_goal_id  TEXT NOT NULL,
	dependency_type TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	condition       TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL,
	UNIQUE (source_goal_id, target_goal_id, dependency_type)
);
CREATE INDEX IF NOT EXISTS dependencies_target ON dependencies (target_goal_id);
`

type sqliteBackend struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite-backed Store at path. ":memory:" gives a
// private in-memory database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: each :memory: connection is its own database, and
	// SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return newStore("sqlite", &sqliteBackend{db: db}, logger), nil
}

func (b *sqliteBackend) put(ctx context.Context, e goal.DependencyEdge) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dependencies
			(id, source_goal_id, target_goal_id, dependency_type, description, condition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SourceGoalID, e.TargetGoalID, e.Type.String(), e.Description, e.Condition,
		e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save dependency: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, source_goal_id, target_goal_id, dependency_type, description, condition, created_at, updated_at FROM dependencies`

type scanner interface {
	Scan(dest ...any) error
}

func scanEdge(row scanner) (goal.DependencyEdge, error) {
	var e goal.DependencyEdge
	var typ string
	var created, updated int64
	if err := row.Scan(&e.ID, &e.SourceGoalID, &e.TargetGoalID, &typ, &e.Description, &e.Condition, &created, &updated); err != nil {
		return e, err
	}
	t, err := goal.ParseDependencyType(typ)
	if err != nil {
		return e, fmt.Errorf("decode dependency %s: %w", e.ID, err)
	}
	e.Type = t
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return e, nil
}

func (b *sqliteBackend) get(ctx context.Context, id string) (goal.DependencyEdge, error) {
	e, err := scanEdge(b.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return goal.DependencyEdge{}, goal.ErrNotFound
	}
	return e, err
}

func (b *sqliteBackend) all(ctx context.Context) ([]goal.DependencyEdge, error) {
	rows, err := b.db.QueryContext(ctx, selectColumns)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	var out []goal.DependencyEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (b *sqliteBackend) remove(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM dependencies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return goal.ErrNotFound
	}
	return nil
}

func (b *sqliteBackend) close() error { return b.db.Close() }
