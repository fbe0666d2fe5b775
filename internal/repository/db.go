// Package repository mirrors users, cases and documents into the relational
// schema. The snapshot store stays authoritative; rows here are a copy kept
// for reporting.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the repositories need.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
