// Package docstore exposes the document database the job feed is built on:
// schemaless documents grouped in named collections, point reads, merge
// writes, equality/order/limit queries and live query subscriptions.
//
// Two implementations exist: Postgres (jsonb documents, LISTEN/NOTIFY as the
// change transport) and an in-memory store used by tests and local dev.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNotFound is returned by Get for a missing document.
var ErrNotFound = errors.New("docstore: document not found")

// ServerTimestamp marks a field whose value is assigned by the store at
// write time.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

// Fields is the loosely-typed document payload.
type Fields map[string]interface{}

// Document is a stored document plus its id. Data comes from an external
// backend and is untrusted input: read it through the typed accessors, which
// fill safe defaults instead of failing.
type Document struct {
	ID   string
	Data Fields
}

// String returns the string field value or "".
func (d Document) String(key string) string {
	s, _ := d.Data[key].(string)
	return s
}

// Ref returns a document-id reference stored either as a string or as a
// number (legacy records store numeric company ids). Returns "" if absent.
func (d Document) Ref(key string) string {
	switch v := d.Data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// Int returns the numeric field value truncated to int, or 0.
func (d Document) Int(key string) int {
	switch v := d.Data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns the boolean field value or false.
func (d Document) Bool(key string) bool {
	b, _ := d.Data[key].(bool)
	return b
}

// Time returns the timestamp field value. A missing or malformed timestamp
// degrades to the epoch rather than failing.
func (d Document) Time(key string) time.Time {
	switch v := d.Data[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// Strings returns the string-list field value. Missing or malformed lists
// degrade to an empty slice.
func (d Document) Strings(key string) []string {
	switch v := d.Data[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// Op is a filter comparison operator.
type Op string

const (
	OpEqual        Op = "=="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
)

type filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query selects documents from one collection by equality/range filters,
// with optional ordering and limit.
type Query struct {
	Collection string
	filters    []filter
	orderBy    string
	desc       bool
	limit      int
}

// C starts a query over a collection.
func C(collection string) Query {
	return Query{Collection: collection}
}

// Where adds a filter.
func (q Query) Where(field string, op Op, value interface{}) Query {
	q.filters = append(q.filters, filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy sets the sort field.
func (q Query) OrderBy(field string, desc bool) Query {
	q.orderBy = field
	q.desc = desc
	return q
}

// Limit caps the result size. Zero means no cap.
func (q Query) Limit(n int) Query {
	q.limit = n
	return q
}

// IndexError reports a query that cannot run without a composite index.
// It is a configuration error: the caller surfaces it verbatim and must not
// retry automatically.
type IndexError struct {
	Collection string
	Fields     []string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("docstore: query on %q requires a composite index on %v", e.Collection, e.Fields)
}

// IsIndexError reports whether err is a missing-composite-index failure.
func IsIndexError(err error) bool {
	var ie *IndexError
	return errors.As(err, &ie)
}

// Index declares a composite index over a collection's fields. Single-field
// queries never need one; a query combining a filter with an order-by on a
// different field does, mirroring the backend's indexing rule.
type Index struct {
	Collection string
	Fields     []string
}

// Client is the document database access surface the rest of the repository
// is written against.
type Client interface {
	// Get reads one document; ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set merge-upserts fields into the document, creating it if needed.
	// Existing fields not named in fields are preserved.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// DeleteAll removes every document in a collection.
	DeleteAll(ctx context.Context, collection string) error
	// GetAll runs a one-shot query.
	GetAll(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers the query result now and again after every change
	// to the collection. The returned cancel is idempotent and safe to call
	// after the owning scope is gone. A missing composite index fails the
	// subscription synchronously; later evaluation failures are delivered
	// through fn's error argument.
	Subscribe(q Query, fn func(docs []Document, err error)) (cancel func(), err error)
	// Close releases the client. Subscriptions stop delivering.
	Close() error
}

// needsIndex applies the composite-index rule to a query against the set of
// declared indexes.
func needsIndex(q Query, indexes []Index) *IndexError {
	if q.orderBy == "" || len(q.filters) == 0 {
		return nil
	}
	fields := make([]string, 0, len(q.filters)+1)
	orderCovered := false
	for _, f := range q.filters {
		if f.Field == q.orderBy {
			orderCovered = true
		}
		fields = append(fields, f.Field)
	}
	if orderCovered {
		// range + order on the same field is always served.
		return nil
	}
	fields = append(fields, q.orderBy)
	for _, idx := range indexes {
		if idx.Collection == q.Collection && coversFields(idx.Fields, fields) {
			return nil
		}
	}
	return &IndexError{Collection: q.Collection, Fields: fields}
}

func coversFields(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, f := range have {
		set[f] = struct{}{}
	}
	for _, f := range want {
		if _, ok := set[f]; !ok {
			return false
		}
	}
	return true
}
