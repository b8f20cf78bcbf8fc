// Package repository implements persistence for users, events and
// participation requests. Postgres uses pgx directly (no ORM); Memory keeps
// the same contract in process for local runs and tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-participation/internal/database"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness rule would be violated
// (a second live request for the same event, or a reused email).
var ErrDuplicate = errors.New("duplicate")

// ErrNoTx is returned when a locking read is attempted outside WithinTx.
var ErrNoTx = errors.New("locking read requires a transaction")

const uniqueViolation = "23505"

// Postgres persists the domain in PostgreSQL.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres store.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// WithinTx runs fn in a transaction carried by the context. Nested calls
// join the outer transaction.
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := database.TxFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(database.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (p *Postgres) q(ctx context.Context) database.Querier {
	if tx, ok := database.TxFrom(ctx); ok {
		return tx
	}
	return p.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// nullable turns an empty filter into SQL NULL so "col = ANY($n)" can be skipped.
func nullable(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching text literally anywhere.
// Empty text yields an empty pattern, which the queries treat as no filter.
func containsPattern(text string) string {
	if text == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(text) + "%"
}

func limit(size int) int {
	if size <= 0 {
		return 10
	}
	return size
}
