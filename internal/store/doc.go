/*
Package store implements the embedded SQLite persistence core: a
serialized write executor, a minimal typed query builder, a record
mapper, and a versioned schema migrator.

# Write Serialization

SQLite allows a single writer. All mutating statements flow through a
FIFO queue drained by one writer goroutine, so concurrent callers are
executed one at a time in submission order and a failing statement
never blocks the callers behind it. Read-only queries go straight to
the connection pool, which safely supports concurrent readers under
WAL.

# Transactions

WithTx enqueues the whole unit of work as a single queue entry. The
callback receives a Session bound to the open transaction; statements
issued through it run directly on the transaction rather than being
re-enqueued, which would deadlock the writer.

# Query Builder

Query[T] accumulates predicates, ordering, a projection, and a raw
trailing clause. Predicates with nil values are skipped, which is the
mechanism for optional filters:

	videos, err := store.NewQuery[Video](db, "video").
	    Eq("is_deleted", 0).
	    Eq("hidden", nil). // no-op, filter not applied
	    OrderAsc("file_name").
	    List(ctx)

# Record Mapper

Mapper[T] maps struct fields to columns via `db` tags. Insert generates
a time-ordered UUIDv7 id; InsertSelf takes the caller's id (used when
the id is a content hash). UpdateByID applies a Changes set listing
only the columns explicitly set, so unset fields are left untouched.

# Migrations

Schema scripts are embedded as migrations/NNNN_name.sql. Migrate
applies every script with a version greater than the ledger maximum, in
ascending order, one transaction per script, and fails fast on error.
*/
package store
