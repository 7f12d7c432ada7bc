package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Client used by tests and local development. It
// applies the same composite-index rule as the production backend so the
// "needs index" failure mode is reachable without a database.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
	indexes     []Index
	subs        map[int]*subscription
	nextSubID   int
	closed      bool

	// Now is the write-timestamp source, overridable in tests.
	Now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]Fields),
		subs:        make(map[int]*subscription),
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterIndex declares a composite index, enabling the queries it covers.
func (m *Memory) RegisterIndex(idx Index) {
	m.mu.Lock()
	m.indexes = append(m.indexes, idx)
	m.mu.Unlock()
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: copyFields(fields)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields Fields) error {
	m.mu.Lock()
	col := m.collections[collection]
	if col == nil {
		col = make(map[string]Fields)
		m.collections[collection] = col
	}
	doc := col[id]
	if doc == nil {
		doc = make(Fields, len(fields))
		col[id] = doc
	}
	for k, v := range fields {
		if _, ok := v.(serverTimestamp); ok {
			v = m.Now()
		}
		doc[k] = v
	}
	m.notifyLocked(collection)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if col, ok := m.collections[collection]; ok {
		if _, ok := col[id]; ok {
			delete(col, id)
			m.notifyLocked(collection)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context, collection string) error {
	m.mu.Lock()
	if col, ok := m.collections[collection]; ok && len(col) > 0 {
		delete(m.collections, collection)
		m.notifyLocked(collection)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetAll(ctx context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := needsIndex(q, m.indexes); err != nil {
		return nil, err
	}
	return m.evaluateLocked(q), nil
}

func (m *Memory) Subscribe(q Query, fn func([]Document, error)) (func(), error) {
	m.mu.Lock()
	if err := needsIndex(q, m.indexes); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	sub := newSubscription(q, fn)
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = sub
	sub.notify() // initial snapshot
	m.mu.Unlock()

	go sub.pump(m.snapshot)

	cancel := func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		sub.close()
	}
	return cancel, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	subs := m.subs
	m.subs = make(map[int]*subscription)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
	return nil
}

func (m *Memory) snapshot(q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.evaluateLocked(q), nil
}

// notifyLocked kicks every subscription watching the mutated collection.
// The kick channel holds one pending tick, coalescing bursts of writes.
func (m *Memory) notifyLocked(collection string) {
	for _, sub := range m.subs {
		if sub.q.Collection == collection {
			sub.notify()
		}
	}
}

func (m *Memory) evaluateLocked(q Query) []Document {
	docs := make([]Document, 0)
	for id, fields := range m.collections[q.Collection] {
		d := Document{ID: id, Data: fields}
		if matches(d, q) {
			docs = append(docs, Document{ID: id, Data: copyFields(fields)})
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if q.orderBy != "" {
			c := compareValues(docs[i].Data[q.orderBy], docs[j].Data[q.orderBy])
			if c != 0 {
				if q.desc {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
	if q.limit > 0 && len(docs) > q.limit {
		docs = docs[:q.limit]
	}
	return docs
}

func matches(d Document, q Query) bool {
	for _, f := range q.filters {
		c := compareValues(d.Data[f.Field], f.Value)
		switch f.Op {
		case OpEqual:
			if c != 0 {
				return false
			}
		case OpGreater:
			if c <= 0 {
				return false
			}
		case OpGreaterEqual:
			if c < 0 {
				return false
			}
		case OpLess:
			if c >= 0 {
				return false
			}
		case OpLessEqual:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

// compareValues orders two loosely-typed field values. Numbers compare
// numerically, timestamps chronologically (RFC3339 strings included),
// everything else by string form. Mixed types compare unequal but stable.
func compareValues(a, b interface{}) int {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, aok := toTime(a); aok {
		if bt, bok := toTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}
	as, bs := stringForm(a), stringForm(b)
	return strings.Compare(as, bs)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func stringForm(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case nil:
		return ""
	}
	return ""
}

func copyFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
