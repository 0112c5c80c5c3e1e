package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-indexer/internal/filesystem"
	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// ErrClosed is returned when a statement is submitted after Close.
var ErrClosed = errors.New("store: closed")

// Session executes statements against the store. The *DB implementation
// serializes writes through the writer queue; the transaction
// implementation handed to WithTx callbacks executes directly on the
// open transaction.
type Session interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type writeOp func()

// DB owns the embedded database file and the single-writer queue.
type DB struct {
	sql    *sql.DB
	path   string
	writes chan writeOp
	quit   chan struct{}
	done   chan struct{}
}

// Open opens (creating if necessary) the database file for the named
// logical database under dir, configures WAL mode, and starts the
// writer goroutine. The returned DB must be closed by the caller.
func Open(ctx context.Context, dir, name string) (*DB, error) {
	if err := filesystem.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbPath := filepath.Join(dir, name+".sqlite")
	logging.Info("Database path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Multiple readers are fine under WAL; all writes funnel through
	// the writer queue regardless of pool size.
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	d := &DB{
		sql:    sqlDB,
		path:   dbPath,
		writes: make(chan writeOp, 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.writer()
	go d.sizeLoop()

	logging.Info("Database opened at %s", dbPath)
	return d, nil
}

// sizeLoop keeps the database size gauges current while the store is
// open.
func (d *DB) sizeLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	d.recordSize()
	for {
		select {
		case <-ticker.C:
			d.recordSize()
		case <-d.quit:
			return
		}
	}
}

func (d *DB) recordSize() {
	files := map[string]string{
		d.path:          "main",
		d.path + "-wal": "wal",
		d.path + "-shm": "shm",
	}
	for file, label := range files {
		if info, err := os.Stat(file); err == nil {
			metrics.DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		}
	}
}

// writer drains the queue one statement at a time, in submission order.
func (d *DB) writer() {
	defer close(d.done)
	for {
		select {
		case op := <-d.writes:
			op()
		case <-d.quit:
			// Drain whatever was already queued before shutting down.
			for {
				select {
				case op := <-d.writes:
					op()
				default:
					return
				}
			}
		}
	}
}

// Path returns the on-disk database file path.
func (d *DB) Path() string {
	return d.path
}

// Exec submits a mutating statement to the writer queue and waits for
// its result. Results are delivered in submission order; a failed
// statement does not affect statements queued behind it.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	type outcome struct {
		res sql.Result
		err error
	}
	out := make(chan outcome, 1)
	op := func() {
		metrics.DBWriteQueueDepth.Dec()
		res, err := d.sql.ExecContext(ctx, query, args...)
		if err != nil {
			metrics.DBWritesTotal.WithLabelValues("error").Inc()
		} else {
			metrics.DBWritesTotal.WithLabelValues("success").Inc()
		}
		out <- outcome{res: res, err: err}
	}

	select {
	case d.writes <- op:
		metrics.DBWriteQueueDepth.Inc()
	case <-d.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case o := <-out:
		return o.res, o.err
	case <-d.done:
		// Writer exited; the statement may still have run during the
		// shutdown drain.
		select {
		case o := <-out:
			return o.res, o.err
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		// The statement still executes; the buffered channel lets the
		// writer move on without blocking.
		return nil, ctx.Err()
	}
}

// Query runs a read-only statement directly against the pool, bypassing
// the writer queue.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row read directly against the pool.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}

// txSession executes directly on an open transaction. It is handed to
// WithTx callbacks and must not outlive them.
type txSession struct {
	tx *sql.Tx
}

func (s *txSession) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func (s *txSession) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// WithTx runs fn inside a transaction that occupies the writer queue as
// a single unit. On error the transaction is rolled back and the error
// returned to the caller.
func (d *DB) WithTx(ctx context.Context, fn func(s Session) error) error {
	out := make(chan error, 1)
	op := func() {
		metrics.DBWriteQueueDepth.Dec()
		tx, err := d.sql.BeginTx(ctx, nil)
		if err != nil {
			out <- fmt.Errorf("failed to begin transaction: %w", err)
			return
		}
		logging.Debug("begin transaction")
		if err := fn(&txSession{tx: tx}); err != nil {
			logging.Error("rolling back transaction: %v", err)
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
			metrics.DBWritesTotal.WithLabelValues("error").Inc()
			out <- err
			return
		}
		logging.Debug("commit transaction")
		metrics.DBWritesTotal.WithLabelValues("success").Inc()
		out <- tx.Commit()
	}

	select {
	case d.writes <- op:
		metrics.DBWriteQueueDepth.Inc()
	case <-d.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// The callback is the caller's own unit of work; wait for it to
	// finish rather than abandoning a live transaction.
	select {
	case err := <-out:
		return err
	case <-d.done:
		select {
		case err := <-out:
			return err
		default:
			return ErrClosed
		}
	}
}

// Close stops the writer after draining queued statements and closes
// the underlying pool.
func (d *DB) Close() error {
	close(d.quit)
	<-d.done
	return d.sql.Close()
}
