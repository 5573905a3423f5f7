package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/postgresengine/internal/adapters"
)

const (
	dialectPostgres = "postgres"

	tableBooks            = "books"
	tableMembers          = "members"
	tableBorrowings       = "borrowings"
	tableBorrowingDetails = "borrowing_details"
	tableFines            = "fines"
	tableAuthors          = "authors"
	tablePublishers       = "publishers"
	tableGenres           = "genres"
	tableLibrarians       = "librarians"

	colBookID          = "book_id"
	colTitle           = "title"
	colAuthorID        = "author_id"
	colPublisherID     = "publisher_id"
	colGenre           = "genre"
	colISBN            = "isbn"
	colTotalCopies     = "total_copies"
	colAvailableCopies = "available_copies"
	colMemberID        = "member_id"
	colBorrowingID     = "borrowing_id"
	colBorrowDate      = "borrow_date"
	colDueDate         = "due_date"
	colReturnDate      = "return_date"
	colStatus          = "status"
	colQuantity        = "quantity"

	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgSQLExecuted        = "executed sql"
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrDurationMS        = "duration_ms"
)

var (
	// ErrNilDatabaseConnection is returned by the constructors when the
	// supplied connection handle is nil.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrBuildingQueryFailed wraps goqu SQL generation failures.
	ErrBuildingQueryFailed = errors.New("failed to build sql query")

	// ErrScanningRowFailed wraps row scan failures.
	ErrScanningRowFailed = errors.New("failed to scan database row")

	// ErrGettingRowsAffectedFailed wraps driver failures on result inspection.
	ErrGettingRowsAffectedFailed = errors.New("failed to get rows affected count")
)

// Logger interface for SQL query logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the PostgreSQL relational store. It implements
// library.CirculationStore plus the catalog, reporting and credential
// contracts consumed by the outer services.
//
// A Store created by a constructor executes against the connection pool; a
// Store handed to a WithinTx callback executes against the open transaction.
type Store struct {
	db     adapters.DBAdapter // root handle, nil for transaction-scoped views
	q      adapters.Querier   // current execution target: pool or open tx
	logger Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Warn level: non-critical issues like rollback or cleanup failures
// Error level: failures that cause operation errors.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional
// configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional
// configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional
// configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db, q: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// WithinTx runs fn against a transaction-scoped view of the store. The
// transaction commits when fn returns nil and rolls back on error or panic.
// Nested calls reuse the already open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx library.CirculationStore) error) error {
	return s.withinTx(ctx, func(tx *Store) error {
		return fn(tx)
	})
}

// withinTx is the internal transaction scope shared by WithinTx and the
// store-level multi-step operations (e.g. book total reconciliation).
func (s *Store) withinTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.db == nil {
		return fn(s) // already transaction-scoped
	}

	dbtx, beginErr := s.db.Begin(ctx)
	if beginErr != nil {
		return classify(beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			s.rollback(ctx, dbtx)
			panic(p)
		}

		if err != nil {
			s.rollback(ctx, dbtx)
		}
	}()

	txStore := &Store{q: dbtx, logger: s.logger}

	if err = fn(txStore); err != nil {
		return err
	}

	if commitErr := dbtx.Commit(ctx); commitErr != nil {
		err = classify(commitErr)
		return err
	}

	return nil
}

func (s *Store) rollback(ctx context.Context, dbtx adapters.DBTx) {
	if rbErr := dbtx.Rollback(ctx); rbErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgRollbackFailed, logAttrError, rbErr.Error())
		}
	}
}

// builder returns the goqu dialect entry point for all statements.
func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// execExpectingRows executes a mutation and returns the affected row count.
func (s *Store) execExpectingRows(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := s.q.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, duration)

	if execErr != nil {
		s.logError(logMsgDBExecFailed, execErr, sqlQuery)
		return 0, classify(execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsAffectedErr, sqlQuery)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// queryRows executes a select and returns the wrapped rows.
func (s *Store) queryRows(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.q.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, duration)

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, sqlQuery)
		return nil, classify(queryErr)
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (s *Store) buildSQL(stmt interface{ ToSQL() (string, []any, error) }) (string, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		}

		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *Store) logQueryWithDuration(sqlQuery string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

func (s *Store) logError(msg string, err error, sqlQuery string) {
	if s.logger != nil {
		s.logger.Error(msg, logAttrError, err.Error(), logAttrQuery, sqlQuery)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds
// with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
