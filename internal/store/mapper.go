package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"media-indexer/internal/logging"
)

// idColumn is the identity column shared by every mapped table.
const idColumn = "id"

// NewID generates a time-ordered unique id for server-generated
// identities. UUIDv7 ids sort by creation time, matching the insertion
// order of dimension rows.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// Changes is an explicit changeset for partial updates: only columns
// passed to Set are written, so unset fields are left untouched without
// relying on sentinel values.
type Changes struct {
	columns []string
	values  []any
}

// NewChanges returns an empty changeset.
func NewChanges() *Changes {
	return &Changes{}
}

// Set records a column to write. Setting the same column twice keeps
// both entries; callers are expected to set each column once.
func (c *Changes) Set(column string, v any) *Changes {
	c.columns = append(c.columns, column)
	c.values = append(c.values, v)
	return c
}

// Empty reports whether no columns were set.
func (c *Changes) Empty() bool {
	return len(c.columns) == 0
}

// Len returns the number of columns set.
func (c *Changes) Len() int {
	return len(c.columns)
}

// Mapper provides identity-oriented mutation for one table. Column
// binding comes from the record type's `db` struct tags.
type Mapper[T any] struct {
	s     Session
	table string
}

// NewMapper creates a mapper for the table on the given session.
func NewMapper[T any](s Session, table string) *Mapper[T] {
	return &Mapper[T]{s: s, table: table}
}

// Insert writes the record with a server-generated id and returns the
// id. Any value in the record's own id field is ignored.
func (m *Mapper[T]) Insert(ctx context.Context, rec T) (string, error) {
	cols, vals, err := recordValues(rec, map[string]bool{idColumn: true})
	if err != nil {
		return "", err
	}
	id := NewID()
	cols = append([]string{idColumn}, cols...)
	vals = append([]any{id}, vals...)

	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		m.table, quoteJoin(cols), placeholders(len(cols)))
	logging.Trace("insert: %s", query)
	if _, err := m.s.Exec(ctx, query, vals...); err != nil {
		return "", fmt.Errorf("insert into %s failed: %w", m.table, err)
	}
	return id, nil
}

// InsertSelf writes the record using the id it already carries. Used
// when the identity is a content hash supplied by the caller.
func (m *Mapper[T]) InsertSelf(ctx context.Context, rec T) error {
	cols, vals, err := recordValues(rec, nil)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES (%s)",
		m.table, quoteJoin(cols), placeholders(len(cols)))
	logging.Trace("insert: %s", query)
	if _, err := m.s.Exec(ctx, query, vals...); err != nil {
		return fmt.Errorf("insert into %s failed: %w", m.table, err)
	}
	return nil
}

// InsertBatch writes all records in one statement with generated ids,
// returned in record order. An empty slice is a no-op.
func (m *Mapper[T]) InsertBatch(ctx context.Context, recs []T) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	var cols []string
	ids := make([]string, 0, len(recs))
	allValues := make([]any, 0, len(recs)*4)
	for _, rec := range recs {
		c, vals, err := recordValues(rec, map[string]bool{idColumn: true})
		if err != nil {
			return nil, err
		}
		if cols == nil {
			cols = append([]string{idColumn}, c...)
		}
		id := NewID()
		ids = append(ids, id)
		allValues = append(allValues, id)
		allValues = append(allValues, vals...)
	}

	group := "(" + placeholders(len(cols)) + ")"
	groups := make([]string, len(recs))
	for i := range groups {
		groups[i] = group
	}

	query := fmt.Sprintf("INSERT INTO `%s` (%s) VALUES %s",
		m.table, quoteJoin(cols), strings.Join(groups, ", "))
	logging.Trace("insert batch: %s (%d records)", query, len(recs))
	if _, err := m.s.Exec(ctx, query, allValues...); err != nil {
		return nil, fmt.Errorf("batch insert into %s failed: %w", m.table, err)
	}
	return ids, nil
}

// UpdateByID writes the changeset columns for the row with the given
// id. An empty changeset is a no-op.
func (m *Mapper[T]) UpdateByID(ctx context.Context, id string, changes *Changes) error {
	if changes == nil || changes.Empty() {
		return nil
	}
	assignments := make([]string, len(changes.columns))
	for i, col := range changes.columns {
		assignments[i] = fmt.Sprintf("`%s` = ?", col)
	}
	query := fmt.Sprintf("UPDATE `%s` SET %s WHERE `%s` = ?",
		m.table, strings.Join(assignments, ", "), idColumn)
	args := append(append([]any{}, changes.values...), id)
	logging.Trace("update: %s", query)
	if _, err := m.s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s failed: %w", m.table, err)
	}
	return nil
}

// DeleteByID removes the row with the given id.
func (m *Mapper[T]) DeleteByID(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM `%s` WHERE `%s` = ?", m.table, idColumn)
	if _, err := m.s.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete from %s failed: %w", m.table, err)
	}
	return nil
}

// DeleteByIDs removes all rows whose id is in the list. An empty list
// is a no-op.
func (m *Mapper[T]) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM `%s` WHERE `%s` IN (%s)",
		m.table, idColumn, placeholders(len(ids)))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := m.s.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s failed: %w", m.table, err)
	}
	return nil
}

func quoteJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "`" + c + "`"
	}
	return strings.Join(quoted, ", ")
}
