package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/haslett/library-circulation-go/library/postgresengine/internal/adapters"
)

// The fakes below implement the adapter seam in memory so the SQL shape and
// the row-count branches can be tested without a database. Replies are
// scripted per call in FIFO order; an unscripted Exec affects one row and an
// unscripted Query returns no rows.

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rows, r.err
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx < len(r.data) {
		r.idx++
		return true
	}

	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]

	for i, d := range dest {
		if err := assignValue(d, row[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

func assignValue(dest, src any) error {
	switch d := dest.(type) {
	case *int:
		v, ok := src.(int)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int", src)
		}
		*d = v
	case *int64:
		v, ok := src.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", src)
		}
		*d = v
	case *float64:
		v, ok := src.(float64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *float64", src)
		}
		*d = v
	case *string:
		v, ok := src.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", src)
		}
		*d = v
	case *time.Time:
		v, ok := src.(time.Time)
		if !ok {
			return fmt.Errorf("cannot scan %T into *time.Time", src)
		}
		*d = v
	case *sql.NullTime:
		switch v := src.(type) {
		case nil:
			*d = sql.NullTime{}
		case time.Time:
			*d = sql.NullTime{Time: v, Valid: true}
		default:
			return fmt.Errorf("cannot scan %T into *sql.NullTime", src)
		}
	case *sql.NullString:
		switch v := src.(type) {
		case nil:
			*d = sql.NullString{}
		case string:
			*d = sql.NullString{String: v, Valid: true}
		default:
			return fmt.Errorf("cannot scan %T into *sql.NullString", src)
		}
	default:
		return fmt.Errorf("unsupported scan destination %T", dest)
	}

	return nil
}

type execReply struct {
	rows int64
	err  error
}

type queryReply struct {
	rows [][]any
	err  error
}

type fakeDB struct {
	execSQL  []string
	querySQL []string

	execReplies  []execReply
	queryReplies []queryReply

	beginErr   error
	begins     int
	committed  bool
	rolledBack bool
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.execSQL = append(f.execSQL, query)

	if len(f.execReplies) == 0 {
		return fakeResult{rows: 1}, nil
	}

	reply := f.execReplies[0]
	f.execReplies = f.execReplies[1:]

	if reply.err != nil {
		return nil, reply.err
	}

	return fakeResult{rows: reply.rows}, nil
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.querySQL = append(f.querySQL, query)

	if len(f.queryReplies) == 0 {
		return &fakeRows{}, nil
	}

	reply := f.queryReplies[0]
	f.queryReplies = f.queryReplies[1:]

	if reply.err != nil {
		return nil, reply.err
	}

	return &fakeRows{data: reply.rows}, nil
}

func (f *fakeDB) Begin(_ context.Context) (adapters.DBTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}

	f.begins++

	return &fakeTx{db: f}, nil
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	return t.db.Exec(ctx, query)
}

func (t *fakeTx) Query(ctx context.Context, query string) (adapters.DBRows, error) {
	return t.db.Query(ctx, query)
}

func (t *fakeTx) Commit(_ context.Context) error {
	t.db.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.db.rolledBack = true
	return nil
}

func storeOverFake(db *fakeDB) *Store {
	return &Store{db: db, q: db}
}
