package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/haslett/library-circulation-go/library"
)

func Test_Classify_ShouldMapSQLStates_FromBothDrivers(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "serialization failure maps to concurrency conflict",
			err:      &pgconn.PgError{Code: "40001"},
			expected: library.ErrConcurrencyConflict,
		},
		{
			name:     "deadlock maps to concurrency conflict",
			err:      &pgconn.PgError{Code: "40P01"},
			expected: library.ErrConcurrencyConflict,
		},
		{
			name:     "foreign key violation maps to linked records",
			err:      &pgconn.PgError{Code: "23503"},
			expected: library.ErrLinkedRecords,
		},
		{
			name:     "unique violation maps to already exists",
			err:      &pgconn.PgError{Code: "23505"},
			expected: library.ErrAlreadyExists,
		},
		{
			name:     "connection class maps to store unavailable",
			err:      &pgconn.PgError{Code: "08006"},
			expected: library.ErrStoreUnavailable,
		},
		{
			name:     "admin shutdown maps to store unavailable",
			err:      &pgconn.PgError{Code: "57P01"},
			expected: library.ErrStoreUnavailable,
		},
		{
			name:     "pq serialization failure maps to concurrency conflict",
			err:      &pq.Error{Code: "40001"},
			expected: library.ErrConcurrencyConflict,
		},
		{
			name:     "pq unique violation maps to already exists",
			err:      &pq.Error{Code: "23505"},
			expected: library.ErrAlreadyExists,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classified := classify(tc.err)

			assert.ErrorIs(t, classified, tc.expected)
			assert.ErrorIs(t, classified, tc.err, "the original cause must stay attached")
		})
	}
}

func Test_Classify_ShouldMapConnectivityFailures_ToStoreUnavailable(t *testing.T) {
	assert.ErrorIs(t, classify(sql.ErrConnDone), library.ErrStoreUnavailable)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), library.ErrStoreUnavailable)
}

func Test_Classify_ShouldPassUnknownErrorsThroughUnchanged(t *testing.T) {
	unknown := errors.New("some driver hiccup")

	assert.Equal(t, unknown, classify(unknown))
	assert.NoError(t, classify(nil))
}

func Test_Classify_ShouldNotRemapUnrelatedSQLStates(t *testing.T) {
	checkViolation := &pgconn.PgError{Code: "23514"}

	classified := classify(checkViolation)
	assert.NotErrorIs(t, classified, library.ErrAlreadyExists)
	assert.NotErrorIs(t, classified, library.ErrLinkedRecords)
	assert.Equal(t, error(checkViolation), classified)
}
