package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so the provider works with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PostgresProvider stores values in the kv_store table, scoped to a namespace
// so one database can hold several devices' state side by side.
type PostgresProvider struct {
	db        DBTX
	namespace string
}

// NewPostgresProvider creates a provider over db for the given namespace.
func NewPostgresProvider(db DBTX, namespace string) *PostgresProvider {
	return &PostgresProvider{db: db, namespace: namespace}
}

func (p *PostgresProvider) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.db.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE namespace = $1 AND key = $2`,
		p.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresProvider) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO kv_store (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		p.namespace, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *PostgresProvider) Remove(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx,
		`DELETE FROM kv_store WHERE namespace = $1 AND key = $2`, p.namespace, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (p *PostgresProvider) Clear(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `DELETE FROM kv_store WHERE namespace = $1`, p.namespace)
	if err != nil {
		return fmt.Errorf("clear namespace %s: %w", p.namespace, err)
	}
	return nil
}
