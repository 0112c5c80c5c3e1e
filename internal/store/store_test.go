package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), t.TempDir(), "test")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestOpenCreatesFile(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if db.Path() == "" {
		t.Fatal("expected a database path")
	}
}

func TestExecSerializesConcurrentWrites(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE ordering (seq INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Issue writes from one goroutine per statement, releasing them in a
	// known order; the insert order in the table must match.
	const n = 50
	var wg sync.WaitGroup
	release := make([]chan struct{}, n)
	for i := range release {
		release[i] = make(chan struct{})
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-release[i]
			if _, err := db.Exec(ctx, "INSERT INTO ordering (seq) VALUES (?)", i); err != nil {
				t.Errorf("insert %d: %v", i, err)
			}
		}(i)
	}
	for i := 0; i < n; i++ {
		close(release[i])
		// Give the released goroutine time to enqueue before the next.
		time.Sleep(2 * time.Millisecond)
	}
	wg.Wait()

	rows, err := db.Query(ctx, "SELECT seq FROM ordering ORDER BY rowid")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			t.Fatal(err)
		}
		if seq != i {
			t.Fatalf("row %d holds seq %d; writes were reordered", i, seq)
		}
		i++
	}
	if i != n {
		t.Fatalf("expected %d rows, got %d", n, i)
	}
}

func TestExecFailureDoesNotBreakQueue(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(ctx, "INSERT INTO nonexistent (v) VALUES (1)"); err == nil {
		t.Fatal("expected failure for insert into missing table")
	}
	// The queue must still accept and run subsequent statements.
	if _, err := db.Exec(ctx, "INSERT INTO t (v) VALUES (1)"); err != nil {
		t.Fatalf("statement after failure: %v", err)
	}

	rows, err := db.Query(ctx, "SELECT COUNT(1) FROM t")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var count int
	rows.Next()
	if err := rows.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestWithTxCommit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}

	err := db.WithTx(ctx, func(s Session) error {
		for i := 0; i < 3; i++ {
			if _, err := s.Exec(ctx, "INSERT INTO t (v) VALUES (?)", i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	if got := countRows(t, db, "t"); got != 3 {
		t.Fatalf("expected 3 rows after commit, got %d", got)
	}
}

func TestWithTxRollback(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(s Session) error {
		if _, err := s.Exec(ctx, "INSERT INTO t (v) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	if got := countRows(t, db, "t"); got != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", got)
	}
}

func TestExecAfterClose(t *testing.T) {
	t.Parallel()

	db, err := Open(context.Background(), t.TempDir(), "closed")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = db.Exec(context.Background(), "CREATE TABLE t (v INTEGER)")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	rows, err := db.Query(context.Background(), fmt.Sprintf("SELECT COUNT(1) FROM %s", table))
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var count int
	rows.Next()
	if err := rows.Scan(&count); err != nil {
		t.Fatal(err)
	}
	return count
}
