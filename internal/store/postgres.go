package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// PostgresKV emulates sets and hashes on the kv_set and kv_hash tables
// created by migrations/0001_kv_tables.up.sql.
type PostgresKV struct {
	db *sqlx.DB
}

// NewPostgresKV wraps a connected pool.
func NewPostgresKV(db *sqlx.DB) *PostgresKV {
	return &PostgresKV{db: db}
}

func (p *PostgresKV) SAdd(ctx context.Context, key, member string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO kv_set (key, member) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		key, member)
	return err
}

func (p *PostgresKV) SMembers(ctx context.Context, key string) ([]string, error) {
	var out []string
	err := p.db.SelectContext(ctx, &out, `SELECT member FROM kv_set WHERE key = $1`, key)
	return out, err
}

func (p *PostgresKV) HSet(ctx context.Context, key string, fields map[string]string) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for f, v := range fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv_hash (key, field, value) VALUES ($1, $2, $3)
			 ON CONFLICT (key, field) DO UPDATE SET value = EXCLUDED.value`,
			key, f, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *PostgresKV) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var v string
	err := p.db.GetContext(ctx, &v, `SELECT value FROM kv_hash WHERE key = $1 AND field = $2`, key, field)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

type hashRow struct {
	Field string `db:"field"`
	Value string `db:"value"`
}

func (p *PostgresKV) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	var rows []hashRow
	if err := p.db.SelectContext(ctx, &rows, `SELECT field, value FROM kv_hash WHERE key = $1`, key); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out, nil
}

func (p *PostgresKV) Close() error {
	return p.db.Close()
}
