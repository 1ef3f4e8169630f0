package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborapp/harbor/internal/inbox"
)

// PGStore keeps the item set in one Postgres table. Save is a
// transactional replace-all, matching the snapshot semantics of the file
// backend; last writer wins across instances.
type PGStore struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS harbor_inbox_items (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
)`

func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (p *PGStore) Close() {
	p.pool.Close()
}

func (p *PGStore) Load(ctx context.Context) ([]inbox.Item, error) {
	rows, err := p.pool.Query(ctx, `SELECT payload FROM harbor_inbox_items ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	var items []inbox.Item
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		var item inbox.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (p *PGStore) Save(ctx context.Context, items []inbox.Item) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM harbor_inbox_items`); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", item.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO harbor_inbox_items (id, created_at, payload) VALUES ($1, $2, $3)`,
			item.ID, item.CreatedAt, raw,
		); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}
	return tx.Commit(ctx)
}
