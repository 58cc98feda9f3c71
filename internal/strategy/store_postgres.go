// internal/strategy/store_postgres.go
package strategy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/trendsim/trendsim/internal/core"
)

// PostgresStore persists strategies in a single table with the parameter,
// rule and metadata documents as JSONB columns.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore opens a connection pool and ensures the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreFromDB wraps an existing pool (used by tests).
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS strategies (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	parameters  JSONB NOT NULL DEFAULT '[]',
	rules       JSONB NOT NULL DEFAULT '[]',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE,
	is_public   BOOLEAN NOT NULL DEFAULT FALSE,
	owner_id    TEXT NOT NULL DEFAULT '',
	version     TEXT NOT NULL DEFAULT '1',
	metadata    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`
	if _, err := p.db.Exec(schema); err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// strategyRow mirrors the table layout for sqlx scanning.
type strategyRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Category    string          `db:"category"`
	Parameters  json.RawMessage `db:"parameters"`
	Rules       json.RawMessage `db:"rules"`
	IsActive    bool            `db:"is_active"`
	IsPublic    bool            `db:"is_public"`
	OwnerID     string          `db:"owner_id"`
	Version     string          `db:"version"`
	Metadata    json.RawMessage `db:"metadata"`
	CreatedAt   sql.NullTime    `db:"created_at"`
	UpdatedAt   sql.NullTime    `db:"updated_at"`
}

func (row *strategyRow) toStrategy() (*Strategy, error) {
	s := &Strategy{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Category:    row.Category,
		IsActive:    row.IsActive,
		IsPublic:    row.IsPublic,
		OwnerID:     row.OwnerID,
		Version:     row.Version,
	}
	if err := json.Unmarshal(row.Parameters, &s.Parameters); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	if err := json.Unmarshal(row.Rules, &s.Rules); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &s.Metadata); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
	}
	if row.CreatedAt.Valid {
		s.CreatedAt = row.CreatedAt.Time
	}
	if row.UpdatedAt.Valid {
		s.UpdatedAt = row.UpdatedAt.Time
	}
	return s, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Strategy, error) {
	var row strategyRow
	err := p.db.GetContext(ctx, &row, `SELECT * FROM strategies WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrNotFound, errors.New("strategy "+id))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	return row.toStrategy()
}

func (p *PostgresStore) Save(ctx context.Context, s *Strategy) error {
	params, err := json.Marshal(s.Parameters)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	rules, err := json.Marshal(s.Rules)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	metadata := []byte("{}")
	if s.Metadata != nil {
		if metadata, err = json.Marshal(s.Metadata); err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}

	const query = `
INSERT INTO strategies
	(id, name, description, category, parameters, rules, is_active, is_public, owner_id, version, metadata, created_at, updated_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	category = EXCLUDED.category,
	parameters = EXCLUDED.parameters,
	rules = EXCLUDED.rules,
	is_active = EXCLUDED.is_active,
	is_public = EXCLUDED.is_public,
	version = EXCLUDED.version,
	metadata = EXCLUDED.metadata,
	updated_at = EXCLUDED.updated_at`

	_, err = p.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Description, s.Category, params, rules,
		s.IsActive, s.IsPublic, s.OwnerID, s.Version, metadata,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, f Filter) ([]*Strategy, error) {
	query := `SELECT * FROM strategies WHERE 1=1`
	var args []any

	if !f.IncludeInactive {
		query += ` AND is_active`
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		query += fmt.Sprintf(` AND owner_id = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.PublicOnly {
		query += ` AND is_public`
	}
	query += ` ORDER BY created_at`

	var rows []strategyRow
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	out := make([]*Strategy, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toStrategy()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
