package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// notifyChannel carries the collection name of every mutated document.
const notifyChannel = "jobfeed_documents"

// timeWireFormat is a fixed-width RFC3339 form: lexical order of encoded UTC
// timestamps equals chronological order, which lets jsonb text comparison
// serve range filters and ordering on date fields.
const timeWireFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Postgres stores documents in a single jsonb table and turns LISTEN/NOTIFY
// into live query subscriptions.
type Postgres struct {
	db       *sql.DB
	listener *pq.Listener
	indexes  []Index

	mu        sync.Mutex
	subs      map[int]*subscription
	nextSubID int
	closed    bool
}

// NewPostgres wraps an open connection. connInfo is the lib/pq connection
// string used for the notification listener. indexes declares the composite
// indexes the deployment has provisioned.
func NewPostgres(db *sql.DB, connInfo string, indexes []Index) (*Postgres, error) {
	p := &Postgres{
		db:      db,
		indexes: indexes,
		subs:    make(map[int]*subscription),
	}
	p.listener = pq.NewListener(connInfo, 200*time.Millisecond, 30*time.Second, nil)
	if err := p.listener.Listen(notifyChannel); err != nil {
		return nil, errors.Wrap(err, "unable to listen on document channel")
	}
	go p.dispatch()
	return p, nil
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT data FROM document WHERE collection = $1 AND id = $2`, collection, id)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return decodeDocument(id, raw)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, fields Fields) error {
	raw, err := json.Marshal(encodeFields(fields))
	if err != nil {
		return errors.Wrap(err, "unable to encode document fields")
	}
	// jsonb || merges top-level keys, preserving fields absent from this write.
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO document (collection, id, data, updated_at) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (collection, id) DO UPDATE SET data = document.data || EXCLUDED.data, updated_at = NOW()`,
		collection, id, raw)
	return err
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM document WHERE collection = $1 AND id = $2`, collection, id)
	return err
}

func (p *Postgres) DeleteAll(ctx context.Context, collection string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM document WHERE collection = $1`, collection)
	return err
}

func (p *Postgres) GetAll(ctx context.Context, q Query) ([]Document, error) {
	if err := needsIndex(q, p.indexes); err != nil {
		return nil, err
	}
	stmt, args := buildQuery(q)
	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]Document, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return docs, err
		}
		doc, err := decodeDocument(id, raw)
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *Postgres) Subscribe(q Query, fn func([]Document, error)) (func(), error) {
	if err := needsIndex(q, p.indexes); err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("docstore: client closed")
	}
	sub := newSubscription(q, fn)
	id := p.nextSubID
	p.nextSubID++
	p.subs[id] = sub
	sub.notify() // initial snapshot
	p.mu.Unlock()

	go sub.pump(func(q Query) ([]Document, error) {
		return p.GetAll(context.Background(), q)
	})

	cancel := func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		sub.close()
	}
	return cancel, nil
}

func (p *Postgres) Close() error {
	p.mu.Lock()
	p.closed = true
	subs := p.subs
	p.subs = make(map[int]*subscription)
	p.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
	return p.listener.Close()
}

// dispatch kicks subscriptions whose collection was mutated. A nil listener
// event means the connection was re-established and changes may have been
// missed, so everything is kicked.
func (p *Postgres) dispatch() {
	for n := range p.listener.Notify {
		collection := ""
		if n != nil {
			collection = n.Extra
		}
		p.mu.Lock()
		for _, sub := range p.subs {
			if collection == "" || sub.q.Collection == collection {
				sub.notify()
			}
		}
		p.mu.Unlock()
	}
}

// buildQuery renders a Query as SQL over the jsonb column. Filter and order
// values compare as text; timeWireFormat keeps that correct for timestamps.
func buildQuery(q Query) (string, []interface{}) {
	var b strings.Builder
	args := []interface{}{q.Collection}
	b.WriteString(`SELECT id, data FROM document WHERE collection = $1`)
	for _, f := range q.filters {
		args = append(args, filterArg(f.Value))
		fmt.Fprintf(&b, ` AND data->>'%s' %s $%d`, f.Field, sqlOp(f.Op), len(args))
	}
	if q.orderBy != "" {
		dir := "ASC"
		if q.desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, ` ORDER BY data->>'%s' %s, id ASC`, q.orderBy, dir)
	} else {
		b.WriteString(` ORDER BY id ASC`)
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, ` LIMIT %d`, q.limit)
	}
	return b.String(), args
}

func sqlOp(op Op) string {
	if op == OpEqual {
		return "="
	}
	return string(op)
}

// filterArg renders a filter value the way jsonb ->> renders the stored one.
func filterArg(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(timeWireFormat)
	}
	return fmt.Sprintf("%v", v)
}

// encodeFields resolves write-time sentinels and normalises timestamps to
// the fixed-width wire format.
func encodeFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		switch x := v.(type) {
		case serverTimestamp:
			out[k] = time.Now().UTC().Format(timeWireFormat)
		case time.Time:
			out[k] = x.UTC().Format(timeWireFormat)
		default:
			out[k] = v
		}
	}
	return out
}

func decodeDocument(id string, raw []byte) (Document, error) {
	var data Fields
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, errors.Wrapf(err, "unable to decode document %s", id)
	}
	return Document{ID: id, Data: data}, nil
}
