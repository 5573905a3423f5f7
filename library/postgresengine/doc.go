// Package postgresengine implements the relational store of the
// library-management backend on PostgreSQL.
//
// All SQL is built with goqu and executed through an internal adapter seam,
// so the store works with a pgxpool.Pool, a sql.DB (lib/pq), or a sqlx.DB
// behind the same API. Multi-step mutations run inside scoped transactions;
// the inventory counters are maintained with conditional single-statement
// updates, which makes per-book reserve/release linearizable without
// in-process locking.
package postgresengine
