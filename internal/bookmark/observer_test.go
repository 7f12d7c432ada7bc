package bookmark

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/auth"
	"github.com/jobera/job-feed/internal/docstore"
)

// flakyClient passes everything through to the wrapped store except writes,
// which can be made to fail.
type flakyClient struct {
	docstore.Client
	failSet bool
}

func (c *flakyClient) Set(ctx context.Context, collection, id string, fields docstore.Fields) error {
	if c.failSet {
		return errors.New("write refused")
	}
	return c.Client.Set(ctx, collection, id, fields)
}

func TestObserverFollowsBackendChanges(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")

	ctx := context.Background()
	require.NoError(t, store.Bookmark(ctx, "u1", "j1"))
	require.Eventually(t, func() bool {
		return o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Unbookmark(ctx, "u1", "j1"))
	require.Eventually(t, func() bool {
		return !o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)
}

func TestObserverIgnoresOtherUsers(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")

	ctx := context.Background()
	require.NoError(t, store.Bookmark(ctx, "u2", "j1"))
	require.NoError(t, store.Bookmark(ctx, "u1", "j2"))

	require.Eventually(t, func() bool {
		return o.IsBookmarked("j2")
	}, time.Second, 5*time.Millisecond)
	assert.False(t, o.IsBookmarked("j1"))
}

func TestToggleConfirms(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")

	ctx := context.Background()
	require.NoError(t, o.Toggle(ctx, "j1", true))
	assert.True(t, o.IsBookmarked("j1"), "optimistic update is visible right away")

	marked, err := store.IsBookmarked(ctx, "u1", "j1")
	require.NoError(t, err)
	assert.True(t, marked)

	require.NoError(t, o.Toggle(ctx, "j1", false))
	assert.False(t, o.IsBookmarked("j1"))
}

func TestToggleRevertsOnWriteFailure(t *testing.T) {
	mem := docstore.NewMemory()
	flaky := &flakyClient{Client: mem}
	store := activity.NewStore(flaky)
	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")

	flaky.failSet = true
	err := o.Toggle(context.Background(), "j1", true)
	require.Error(t, err)
	assert.False(t, o.IsBookmarked("j1"), "failed toggle snaps back")
}

func TestToggleSignedOutIsNoop(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	o := NewObserver(store)
	defer o.Close()

	require.NoError(t, o.Toggle(context.Background(), "j1", true))
	assert.False(t, o.IsBookmarked("j1"))

	docs, err := mem.GetAll(context.Background(), docstore.C(activity.BookmarkedCollection))
	require.NoError(t, err)
	assert.Empty(t, docs, "no relation written for anonymous viewer")
}

func TestSetUserResubscribes(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	ctx := context.Background()
	require.NoError(t, store.Bookmark(ctx, "u1", "j1"))
	require.NoError(t, store.Bookmark(ctx, "u2", "j2"))

	o := NewObserver(store)
	defer o.Close()

	o.SetUser("u1")
	require.Eventually(t, func() bool {
		return o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)

	o.SetUser("u2")
	assert.False(t, o.IsBookmarked("j1"), "previous identity's set is cleared immediately")
	require.Eventually(t, func() bool {
		return o.IsBookmarked("j2")
	}, time.Second, 5*time.Millisecond)

	o.SetUser("")
	assert.False(t, o.IsBookmarked("j2"))
}

func TestObserverFollowsSession(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	ctx := context.Background()
	require.NoError(t, store.Bookmark(ctx, "u1", "j1"))

	s := auth.NewSession()
	o := NewObserver(store)
	defer o.Close()
	cancel := o.FollowSession(s)
	defer cancel()

	s.SignIn("u1")
	require.Eventually(t, func() bool {
		return o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)

	s.SignOut()
	require.Eventually(t, func() bool {
		return !o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)
}

func TestObserverWatchFiresOnMembershipChanges(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")

	var fired int32
	cancel := o.Watch(func() { atomic.AddInt32(&fired, 1) })
	defer cancel()

	ctx := context.Background()
	require.NoError(t, o.Toggle(ctx, "j1", true))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(1), "optimistic apply notifies")

	require.NoError(t, store.Bookmark(ctx, "u1", "j2"))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) >= 2
	}, time.Second, 5*time.Millisecond, "backend change notifies")

	cancel()
	cancel()
	seen := atomic.LoadInt32(&fired)
	require.NoError(t, o.Toggle(ctx, "j3", true))
	assert.Equal(t, seen, atomic.LoadInt32(&fired), "cancelled watcher stays quiet")
}

func TestObserverWatchFiresOnUserChange(t *testing.T) {
	mem := docstore.NewMemory()
	store := activity.NewStore(mem)
	require.NoError(t, store.Bookmark(context.Background(), "u1", "j1"))

	o := NewObserver(store)
	defer o.Close()
	o.SetUser("u1")
	require.Eventually(t, func() bool {
		return o.IsBookmarked("j1")
	}, time.Second, 5*time.Millisecond)

	var fired int32
	cancel := o.Watch(func() { atomic.AddInt32(&fired, 1) })
	defer cancel()

	o.SetUser("u2")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fired), int32(1), "sign-out of a non-empty set notifies")
}

func TestObserverCloseIdempotent(t *testing.T) {
	o := NewObserver(activity.NewStore(docstore.NewMemory()))
	o.SetUser("u1")
	o.Close()
	o.Close()
	assert.False(t, o.IsBookmarked("j1"))
}

func TestRegistrySharesObserverPerUser(t *testing.T) {
	r := NewRegistry(activity.NewStore(docstore.NewMemory()))
	defer r.Close()

	a := r.ForUser("u1")
	b := r.ForUser("u1")
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.Nil(t, r.ForUser(""))
}
