package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSlot struct {
	pool *pgxpool.Pool
	slot string
}

func NewPostgresSlot(pool *pgxpool.Pool, slot string) *PostgresSlot {
	return &PostgresSlot{pool: pool, slot: slot}
}

func (s *PostgresSlot) Name() string {
	return "postgres:" + s.slot
}

func (s *PostgresSlot) EnsureTable(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS app_snapshots (
			slot       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create app_snapshots: %w", err)
	}
	return nil
}

func (s *PostgresSlot) Load(ctx context.Context) ([]byte, error) {
	const query = `SELECT payload FROM app_snapshots WHERE slot = $1`

	var payload string
	if err := s.pool.QueryRow(ctx, query, s.slot).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("select snapshot %s: %w", s.slot, err)
	}
	return []byte(payload), nil
}

func (s *PostgresSlot) Save(ctx context.Context, payload []byte) error {
	const query = `
		INSERT INTO app_snapshots (slot, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	if _, err := s.pool.Exec(ctx, query, s.slot, string(payload)); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", s.slot, err)
	}
	return nil
}
