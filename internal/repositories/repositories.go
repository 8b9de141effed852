// Package repositories contains the persistence layer: raw-SQL pgx
// repositories, every query scoped by the owning user id.
package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a row does not exist or is owned by another
// user. Callers cannot distinguish the two cases; ownership is enforced in
// the query itself.
var ErrNotFound = errors.New("not found")

// DB is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it too, which keeps the repositories testable without a server.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505), the collision signal for invoice numbers.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
