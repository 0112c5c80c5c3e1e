package store

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
)

// column/field binding derived from `db` struct tags. Fields without a
// tag, or tagged "-", are invisible to the store.
type fieldBinding struct {
	column string
	index  int
}

var bindingCache sync.Map // reflect.Type -> []fieldBinding

func bindingsFor(t reflect.Type) []fieldBinding {
	if cached, ok := bindingCache.Load(t); ok {
		return cached.([]fieldBinding)
	}
	var bindings []fieldBinding
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		bindings = append(bindings, fieldBinding{column: tag, index: i})
	}
	bindingCache.Store(t, bindings)
	return bindings
}

func structType[T any]() (reflect.Type, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("store: %s is not a struct type", t)
	}
	return t, nil
}

// scanRows maps every row onto a T by matching result columns to
// `db`-tagged fields. Columns without a matching field are discarded.
func scanRows[T any](rows *sql.Rows) ([]T, error) {
	defer func() {
		_ = rows.Close()
	}()

	t, err := structType[T]()
	if err != nil {
		return nil, err
	}
	byColumn := make(map[string]int)
	for _, b := range bindingsFor(t) {
		byColumn[b.column] = b.index
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out []T
	for rows.Next() {
		var rec T
		v := reflect.ValueOf(&rec).Elem()
		targets := make([]any, len(columns))
		for i, col := range columns {
			if idx, ok := byColumn[col]; ok {
				targets[i] = v.Field(idx).Addr().Interface()
			} else {
				var discard any
				targets[i] = &discard
			}
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// recordValues extracts column names and values from a record, honoring
// the skip set (used to exclude the id column on generated inserts).
func recordValues(rec any, skip map[string]bool) ([]string, []any, error) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("store: nil record")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("store: %T is not a struct", rec)
	}

	var cols []string
	var vals []any
	for _, b := range bindingsFor(v.Type()) {
		if skip[b.column] {
			continue
		}
		cols = append(cols, b.column)
		vals = append(vals, v.Field(b.index).Interface())
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("store: %T has no db-tagged fields", rec)
	}
	return cols, vals, nil
}

// isNilValue reports whether v is an untyped nil or a typed nil pointer
// or interface. Predicates carrying such values are skipped entirely.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
