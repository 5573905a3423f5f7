package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/haslett/library-circulation-go/library"
)

// SQLSTATE classes mapped to the domain error taxonomy. The pgx and lib/pq
// drivers report them through different error types, so both are inspected.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateForeignKeyViolation  = "23503"
	sqlstateUniqueViolation      = "23505"
	sqlstateClassConnection      = "08"
	sqlstateAdminShutdown        = "57P01"
)

// classify maps driver-level failures onto the typed error taxonomy so the
// engine and the gateway can branch with errors.Is. The original cause stays
// attached via errors.Join. Unrecognized errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if code, ok := sqlstateOf(err); ok {
		switch {
		case code == sqlstateSerializationFailure || code == sqlstateDeadlockDetected:
			return errors.Join(library.ErrConcurrencyConflict, err)

		case code == sqlstateForeignKeyViolation:
			return errors.Join(library.ErrLinkedRecords, err)

		case code == sqlstateUniqueViolation:
			return errors.Join(library.ErrAlreadyExists, err)

		case len(code) >= 2 && code[:2] == sqlstateClassConnection, code == sqlstateAdminShutdown:
			return errors.Join(library.ErrStoreUnavailable, err)
		}

		return err
	}

	if isConnectivityError(err) {
		return errors.Join(library.ErrStoreUnavailable, err)
	}

	return err
}

func sqlstateOf(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), true
	}

	return "", false
}

func isConnectivityError(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
