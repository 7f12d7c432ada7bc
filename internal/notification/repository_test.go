package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobera/job-feed/internal/docstore"
)

func addNotification(t *testing.T, repo *Repository, userID, jobID string) {
	t.Helper()
	require.NoError(t, repo.AddJobNotification(context.Background(), userID, Notification{
		ID:    jobID,
		JobID: jobID,
		Title: "Backend Engineer",
	}))
}

func TestUnreadCountTracksMarkRead(t *testing.T) {
	mem := docstore.NewMemory()
	repo := NewRepository(mem)
	ctx := context.Background()

	addNotification(t, repo, "u1", "j1")
	addNotification(t, repo, "u1", "j2")

	n, err := repo.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, repo.MarkRead(ctx, "u1", "j1"))
	n, err = repo.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMarkReadUnknownIDIsNotFound(t *testing.T) {
	mem := docstore.NewMemory()
	repo := NewRepository(mem)
	ctx := context.Background()

	err := repo.MarkRead(ctx, "u1", "nope")
	require.ErrorIs(t, err, docstore.ErrNotFound)

	// The miss must not mint a phantom read-only document.
	docs, err := mem.GetAll(ctx, docstore.C(CollectionFor("u1")))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestWatchUnreadFollowsReadState(t *testing.T) {
	mem := docstore.NewMemory()
	repo := NewRepository(mem)
	ctx := context.Background()

	var mu sync.Mutex
	var latest []Notification
	seen := false
	cancel, err := repo.WatchUnread("u1", func(unread []Notification, err error) {
		assert.NoError(t, err)
		mu.Lock()
		latest = unread
		seen = true
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	unreadLen := func(want int) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return seen && len(latest) == want
		}
	}
	require.Eventually(t, unreadLen(0), time.Second, 5*time.Millisecond)

	addNotification(t, repo, "u1", "j1")
	require.Eventually(t, unreadLen(1), time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "j1", latest[0].JobID)
	mu.Unlock()

	require.NoError(t, repo.MarkRead(ctx, "u1", "j1"))
	require.Eventually(t, unreadLen(0), time.Second, 5*time.Millisecond)
}
