package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"media-indexer/internal/logging"
)

// ErrMultipleResults is returned by One when the predicate matches more
// than one row.
var ErrMultipleResults = errors.New("store: multiple results")

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Page holds one page of records along with the total match count.
type Page[T any] struct {
	Total    int64 `json:"total"`
	Records  []T   `json:"records"`
	PageNum  int   `json:"pageNum"`
	PageSize int   `json:"pageSize"`
}

// Query is a fluent, per-table select/delete builder. Predicates whose
// value is nil are skipped, which is the mechanism for optional
// filters. The zero value is not usable; construct with NewQuery.
type Query[T any] struct {
	s      Session
	table  string
	fields []string
	wheres []string
	values []any
	orders []string
	last   []string
}

// NewQuery starts a builder for the table on the given session.
func NewQuery[T any](s Session, table string) *Query[T] {
	return &Query[T]{s: s, table: table}
}

func (q *Query[T]) where(column, op string, v any) *Query[T] {
	if isNilValue(v) {
		return q
	}
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` %s ?", column, op))
	q.values = append(q.values, v)
	return q
}

// Eq adds an equality predicate. Nil values are skipped.
func (q *Query[T]) Eq(column string, v any) *Query[T] { return q.where(column, "=", v) }

// Ne adds an inequality predicate. Nil values are skipped.
func (q *Query[T]) Ne(column string, v any) *Query[T] { return q.where(column, "!=", v) }

// Gt adds a greater-than predicate. Nil values are skipped.
func (q *Query[T]) Gt(column string, v any) *Query[T] { return q.where(column, ">", v) }

// Ge adds a greater-or-equal predicate. Nil values are skipped.
func (q *Query[T]) Ge(column string, v any) *Query[T] { return q.where(column, ">=", v) }

// Lt adds a less-than predicate. Nil values are skipped.
func (q *Query[T]) Lt(column string, v any) *Query[T] { return q.where(column, "<", v) }

// Le adds a less-or-equal predicate. Nil values are skipped.
func (q *Query[T]) Le(column string, v any) *Query[T] { return q.where(column, "<=", v) }

// Like adds a substring match. Nil values are skipped.
func (q *Query[T]) Like(column string, v any) *Query[T] {
	if isNilValue(v) {
		return q
	}
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` LIKE '%%' || ? || '%%'", column))
	q.values = append(q.values, v)
	return q
}

// LikeLeft adds a suffix match (value at the end). Nil values are skipped.
func (q *Query[T]) LikeLeft(column string, v any) *Query[T] {
	if isNilValue(v) {
		return q
	}
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` LIKE '%%' || ?", column))
	q.values = append(q.values, v)
	return q
}

// LikeRight adds a prefix match (value at the start). Nil values are skipped.
func (q *Query[T]) LikeRight(column string, v any) *Query[T] {
	if isNilValue(v) {
		return q
	}
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` LIKE ? || '%%'", column))
	q.values = append(q.values, v)
	return q
}

// In adds a membership predicate over a literal value list. An empty
// list yields a predicate matching nothing.
func (q *Query[T]) In(column string, values []any) *Query[T] {
	if len(values) == 0 {
		q.wheres = append(q.wheres, "1 = 0")
		return q
	}
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` IN (%s)", column, placeholders(len(values))))
	q.values = append(q.values, values...)
	return q
}

// InRaw adds a membership predicate over a raw sub-expression.
func (q *Query[T]) InRaw(column, expr string) *Query[T] {
	q.wheres = append(q.wheres, fmt.Sprintf("`%s` IN (%s)", column, expr))
	return q
}

// OrderAsc appends an ascending ordering clause.
func (q *Query[T]) OrderAsc(column string) *Query[T] {
	q.orders = append(q.orders, fmt.Sprintf("`%s` ASC", column))
	return q
}

// OrderDesc appends a descending ordering clause.
func (q *Query[T]) OrderDesc(column string) *Query[T] {
	q.orders = append(q.orders, fmt.Sprintf("`%s` DESC", column))
	return q
}

// LastSQL appends a raw trailing clause (LIMIT/OFFSET slot).
func (q *Query[T]) LastSQL(clause string) *Query[T] {
	q.last = append(q.last, clause)
	return q
}

// Select restricts the projection to the named columns.
func (q *Query[T]) Select(columns ...string) *Query[T] {
	q.fields = append(q.fields, columns...)
	return q
}

// PredicateCount returns the number of accumulated predicates. Used to
// verify that nil-valued filters were skipped.
func (q *Query[T]) PredicateCount() int {
	return len(q.wheres)
}

func (q *Query[T]) selectSQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.fields) > 0 {
		quoted := make([]string, len(q.fields))
		for i, f := range q.fields {
			quoted[i] = "`" + f + "`"
		}
		b.WriteString(strings.Join(quoted, ", "))
	} else {
		b.WriteString("*")
	}
	b.WriteString(" FROM `" + q.table + "`")
	if len(q.wheres) > 0 {
		b.WriteString(" WHERE " + strings.Join(q.wheres, " AND "))
	}
	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(q.orders, ", "))
	}
	if len(q.last) > 0 {
		b.WriteString(" " + strings.Join(q.last, " "))
	}
	return b.String()
}

// List returns all matching records.
func (q *Query[T]) List(ctx context.Context) ([]T, error) {
	query := q.selectSQL()
	logging.Trace("select: %s %v", query, q.values)
	rows, err := q.s.Query(ctx, query, q.values...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", q.table, err)
	}
	return scanRows[T](rows)
}

// First returns the first matching record, or nil when none match.
// Additional matches are not an error.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	q.LastSQL("LIMIT 1")
	list, err := q.List(ctx)
	q.last = q.last[:len(q.last)-1]
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// One returns the single matching record, nil when none match, and
// ErrMultipleResults when the predicate matches more than one row.
func (q *Query[T]) One(ctx context.Context) (*T, error) {
	q.LastSQL("LIMIT 2")
	list, err := q.List(ctx)
	q.last = q.last[:len(q.last)-1]
	if err != nil {
		return nil, err
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return &list[0], nil
	default:
		return nil, ErrMultipleResults
	}
}

// Count returns the number of matching rows.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(1) AS `total` FROM (%s) t", q.selectSQL())
	logging.Trace("count: %s %v", query, q.values)
	rows, err := q.s.Query(ctx, query, q.values...)
	if err != nil {
		return 0, fmt.Errorf("count %s failed: %w", q.table, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var total int64
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, err
		}
	}
	return total, rows.Err()
}

// Page returns the total match count together with one page of records.
// Page numbers start at 1.
func (q *Query[T]) Page(ctx context.Context, pageNum, pageSize int) (*Page[T], error) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	q.LastSQL(fmt.Sprintf("LIMIT %d OFFSET %d", pageSize, (pageNum-1)*pageSize))
	records, err := q.List(ctx)
	q.last = q.last[:len(q.last)-1]
	if err != nil {
		return nil, err
	}
	return &Page[T]{
		Total:    total,
		Records:  records,
		PageNum:  pageNum,
		PageSize: pageSize,
	}, nil
}

// BatchList streams matching rows through fn in fixed-size chunks by
// repeated LIMIT/OFFSET paging over a stable predicate set.
func (q *Query[T]) BatchList(ctx context.Context, batchSize int, fn func(records []T) error) error {
	if batchSize < 1 {
		return fmt.Errorf("invalid batch size %d", batchSize)
	}
	total, err := q.Count(ctx)
	if err != nil {
		return err
	}
	for page := 1; int64(page-1)*int64(batchSize) < total; page++ {
		q.LastSQL(fmt.Sprintf("LIMIT %d OFFSET %d", batchSize, (page-1)*batchSize))
		records, err := q.List(ctx)
		q.last = q.last[:len(q.last)-1]
		if err != nil {
			return err
		}
		if err := fn(records); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes all matching rows using the accumulated predicates.
// Ordering clauses are ignored.
func (q *Query[T]) Delete(ctx context.Context) error {
	var b strings.Builder
	b.WriteString("DELETE FROM `" + q.table + "`")
	if len(q.wheres) > 0 {
		b.WriteString(" WHERE " + strings.Join(q.wheres, " AND "))
	}
	query := b.String()
	logging.Trace("delete: %s %v", query, q.values)
	res, err := q.s.Exec(ctx, query, q.values...)
	if err != nil {
		return fmt.Errorf("delete from %s failed: %w", q.table, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		logging.Trace("delete affected %d rows", n)
	}
	return nil
}
