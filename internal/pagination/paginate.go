package pagination

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"gigmarket/pkg/utils"
)

// Page is the fixed shape of every list response. Next holds the page items;
// Cursor is the keyset cursor for the following page; Count is only populated
// on the first page (later pages report 0 to avoid repeated full counts).
type Page[T any] struct {
	Next   []T         `json:"next"`
	Cursor interface{} `json:"cursor,omitempty"`
	Last   bool        `json:"last"`
	Count  int64       `json:"count"`
}

// Options control one paginated fetch. CursorField must be a monotonically
// ordered column (auto-increment primary key by default) so that rows
// inserted concurrently never land behind a cursor already handed out.
type Options struct {
	Limit       string      // raw query value; invalid or absent returns everything in one page
	Cursor      interface{} // nil / empty means first page
	CursorField string      // defaults to "id"; set by code, never by the client
	Descending  bool        // newest-first listings
}

// Paginate runs keyset pagination over the scoped query. The caller passes a
// *gorm.DB already scoped with Model, Where and Preload; ordering, cursor
// predicate and limit are applied here.
func Paginate[T any](ctx context.Context, q *gorm.DB, opts Options) (*Page[T], error) {
	field := opts.CursorField
	if field == "" {
		field = "id"
	}

	limit, err := strconv.Atoi(strings.TrimSpace(opts.Limit))
	limited := err == nil && limit > 0

	q = q.WithContext(ctx)
	page := &Page[T]{Next: []T{}}

	firstPage := !HasCursor(opts.Cursor)
	if firstPage {
		if err := q.Session(&gorm.Session{}).Count(&page.Count).Error; err != nil {
			return nil, mapQueryError(err)
		}
	}

	dir := "ASC"
	op := ">"
	if opts.Descending {
		dir = "DESC"
		op = "<"
	}

	if !firstPage {
		// skip the cursor row itself
		q = q.Where(fmt.Sprintf("%s %s ?", field, op), opts.Cursor)
	}
	q = q.Order(fmt.Sprintf("%s %s", field, dir))
	if limited {
		q = q.Limit(limit)
	}

	if err := q.Find(&page.Next).Error; err != nil {
		return nil, mapQueryError(err)
	}

	page.Last = !limited || len(page.Next) < limit
	if n := len(page.Next); n > 0 {
		page.Cursor = fieldValue(&page.Next[n-1], field)
	}

	return page, nil
}

// HasCursor reports whether a usable cursor was supplied
func HasCursor(c interface{}) bool {
	switch v := c.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case uint64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

// mapQueryError keeps malformed-query errors as bad input and masks the rest
func mapQueryError(err error) error {
	if errors.Is(err, gorm.ErrInvalidField) || errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrModelValueRequired) {
		return utils.NewErrorWithErr(utils.CodeBadRequest, "invalid list query", err)
	}
	return utils.NewErrorWithErr(utils.CodeInternal, "failed to list records", err)
}

// fieldValue extracts the cursor column's value from the last item of a page
func fieldValue(item interface{}, column string) interface{} {
	v := reflect.Indirect(reflect.ValueOf(item))
	if v.Kind() == reflect.Pointer {
		v = reflect.Indirect(v)
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	f := v.FieldByName(goFieldName(column))
	if !f.IsValid() {
		return nil
	}
	return f.Interface()
}

// goFieldName converts a snake_case column, optionally table-qualified, to
// the Go struct field name
func goFieldName(column string) string {
	if i := strings.LastIndex(column, "."); i >= 0 {
		column = column[i+1:]
	}
	parts := strings.Split(column, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p == "id" {
			parts[i] = "ID"
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
