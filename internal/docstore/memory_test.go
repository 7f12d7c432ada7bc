package docstore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetMergesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "jobs", "j1", Fields{"role": "Backend Engineer", "location": "Berlin, Germany"}))
	require.NoError(t, m.Set(ctx, "jobs", "j1", Fields{"location": "Remote"}))

	doc, err := m.Get(ctx, "jobs", "j1")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", doc.String("role"))
	assert.Equal(t, "Remote", doc.String("location"))
}

func TestMemoryGetMissingDocument(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "jobs", "nope")
	assert.Equal(t, ErrNotFound, err)
}

func TestMemoryServerTimestamp(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	require.NoError(t, m.Set(context.Background(), "jobs", "j1", Fields{"publishedDate": ServerTimestamp}))
	doc, err := m.Get(context.Background(), "jobs", "j1")
	require.NoError(t, err)
	assert.Equal(t, now, doc.Time("publishedDate"))
}

func TestMemoryQueryOrderAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Set(ctx, "jobs", id, Fields{
			"publishedDate": base.Add(time.Duration(i) * time.Hour),
			"categoryId":    1,
		}))
	}

	docs, err := m.GetAll(ctx, C("jobs").OrderBy("publishedDate", true).Limit(2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
}

func TestMemoryQueryFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "jobs", "a", Fields{"categoryId": 1}))
	require.NoError(t, m.Set(ctx, "jobs", "b", Fields{"categoryId": 2}))
	require.NoError(t, m.Set(ctx, "jobs", "c", Fields{"categoryId": 2}))

	docs, err := m.GetAll(ctx, C("jobs").Where("categoryId", OpEqual, 2))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "c", docs[1].ID)
}

func TestMemoryCompositeIndexRule(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "jobs", "a", Fields{"categoryId": 1, "publishedDate": time.Now()}))

	// filter and order-by on different fields needs a composite index
	q := C("jobs").Where("categoryId", OpEqual, 1).OrderBy("publishedDate", true)
	_, err := m.GetAll(ctx, q)
	require.Error(t, err)
	assert.True(t, IsIndexError(err))

	// same-field filter and order-by does not
	sameField := C("jobs").Where("publishedDate", OpGreater, time.Unix(0, 0)).OrderBy("publishedDate", false)
	_, err = m.GetAll(ctx, sameField)
	require.NoError(t, err)

	m.RegisterIndex(Index{Collection: "jobs", Fields: []string{"categoryId", "publishedDate"}})
	_, err = m.GetAll(ctx, q)
	require.NoError(t, err)
}

func TestMemorySubscribeDeliversSnapshots(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	count := int64(-1)
	cancel, err := m.Subscribe(C("jobs"), func(docs []Document, err error) {
		assert.NoError(t, err)
		atomic.StoreInt64(&count, int64(len(docs)))
	})
	require.NoError(t, err)
	defer cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) == 0
	}, time.Second, 5*time.Millisecond, "initial empty snapshot")

	require.NoError(t, m.Set(ctx, "jobs", "a", Fields{"role": "QA"}))
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Delete(ctx, "jobs", "a"))
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMemorySubscribeIgnoresOtherCollections(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ticks := make(chan int, 16)
	cancel, err := m.Subscribe(C("jobs"), func(docs []Document, err error) {
		ticks <- len(docs)
	})
	require.NoError(t, err)
	defer cancel()

	// initial snapshot
	select {
	case n := <-ticks:
		assert.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, m.Set(ctx, "companies", "c1", Fields{"name": "Acme"}))
	select {
	case <-ticks:
		t.Fatal("snapshot for unrelated collection")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemorySubscribeCancelIdempotent(t *testing.T) {
	m := NewMemory()
	cancel, err := m.Subscribe(C("jobs"), func([]Document, error) {})
	require.NoError(t, err)
	cancel()
	cancel()
}

func TestMemoryDeleteAll(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "notes", "a", Fields{"x": 1}))
	require.NoError(t, m.Set(ctx, "notes", "b", Fields{"x": 2}))

	require.NoError(t, m.DeleteAll(ctx, "notes"))
	docs, err := m.GetAll(ctx, C("notes"))
	require.NoError(t, err)
	assert.Empty(t, docs)

	// absent collection is fine
	require.NoError(t, m.DeleteAll(ctx, "notes"))
}

func TestDocumentAccessorDefaults(t *testing.T) {
	doc := Document{ID: "x", Data: Fields{"companyId": float64(42)}}

	assert.Equal(t, "", doc.String("role"))
	assert.Equal(t, "42", doc.Ref("companyId"))
	assert.Equal(t, time.Unix(0, 0).UTC(), doc.Time("publishedDate"))
	skills := doc.Strings("skills")
	require.NotNil(t, skills)
	assert.Empty(t, skills)
}
