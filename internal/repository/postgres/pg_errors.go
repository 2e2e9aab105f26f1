package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/halynka/rentgo/internal/repository"
)

// errNoRows lets repo methods report zero affected rows through the
// same mapping used for scan misses.
var errNoRows = pgx.ErrNoRows

// errConflictSentinel marks state-guarded updates that matched no row,
// i.e. the record was already past the precondition the WHERE restated.
var errConflictSentinel = repository.ErrConflict

// IsRetryable reports whether the error is a serialization failure or
// deadlock, i.e. the transaction can be retried as a whole.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

// wrapDBErr maps common DB errors to repository-level errors and wraps
// them with the provided operation name.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		// unique_violation
		if pge.Code == "23505" {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
