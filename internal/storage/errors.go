package storage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/claude/lightweight/internal/workout"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// translate maps driver errors onto the workout error kinds. Errors that are
// already classified pass through unchanged.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var we *workout.Error
	if errors.As(err, &we) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.NotFoundf("%s: not found", op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			if pgErr.ConstraintName == "sessions_one_open" {
				return workout.Conflictf("%s: another session is already open", op)
			}
			return workout.Validationf("%s: already exists", op)
		case foreignKeyViolation:
			return workout.NotFoundf("%s: referenced row does not exist", op)
		case checkViolation:
			return workout.Validationf("%s: %s", op, pgErr.Message)
		}
	}

	var netErr net.Error
	var connErr *pgconn.ConnectError
	if pgconn.Timeout(err) || errors.As(err, &connErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return workout.Transient(err, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
