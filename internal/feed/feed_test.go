package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobera/job-feed/internal/activity"
	"github.com/jobera/job-feed/internal/bookmark"
	"github.com/jobera/job-feed/internal/company"
	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/job"
)

func TestFeedWatchDeliversAssembledRows(t *testing.T) {
	mem := docstore.NewMemory()
	ctx := context.Background()
	companyRepo := company.NewRepository(mem)
	jobRepo := job.NewRepository(mem)
	f := New(jobRepo, NewAssembler(companyRepo))

	_, err := companyRepo.SaveCompany(ctx, company.Company{ID: "c1", Name: "Acme"})
	require.NoError(t, err)

	var mu sync.Mutex
	var latest []Row
	cancel, err := f.Watch(10, nil, func(rows []Row, err error) {
		assert.NoError(t, err)
		mu.Lock()
		latest = rows
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	id, err := jobRepo.PublishJob(ctx, job.Job{
		CategoryID: 2,
		CompanyID:  "c1",
		Role:       "Backend Engineer",
		Location:   "Berlin, Germany",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, id, latest[0].JobID)
	assert.Equal(t, "Acme", latest[0].Company)
	assert.Equal(t, "Berlin", latest[0].City)
}

func TestFeedWatchReflectsBookmarkToggles(t *testing.T) {
	mem := docstore.NewMemory()
	ctx := context.Background()
	companyRepo := company.NewRepository(mem)
	jobRepo := job.NewRepository(mem)
	f := New(jobRepo, NewAssembler(companyRepo))

	_, err := companyRepo.SaveCompany(ctx, company.Company{ID: "c1", Name: "Acme"})
	require.NoError(t, err)
	id, err := jobRepo.PublishJob(ctx, job.Job{
		CategoryID: 2,
		CompanyID:  "c1",
		Role:       "Backend Engineer",
	})
	require.NoError(t, err)

	observer := bookmark.NewObserver(activity.NewStore(mem))
	defer observer.Close()
	observer.SetUser("u1")

	var mu sync.Mutex
	var latest []Row
	cancel, err := f.Watch(10, observer, func(rows []Row, err error) {
		assert.NoError(t, err)
		mu.Lock()
		latest = rows
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	rowBookmarked := func(want bool) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(latest) == 1 && latest[0].Bookmarked == want
		}
	}
	require.Eventually(t, rowBookmarked(false), time.Second, 5*time.Millisecond)

	// A toggle arrives through the marks watcher, not the jobs
	// subscription, so the rows must still be re-delivered.
	require.NoError(t, observer.Toggle(ctx, id, true))
	require.Eventually(t, rowBookmarked(true), time.Second, 5*time.Millisecond)

	require.NoError(t, observer.Toggle(ctx, id, false))
	require.Eventually(t, rowBookmarked(false), time.Second, 5*time.Millisecond)
}

func TestFeedRecentHonorsLimit(t *testing.T) {
	mem := docstore.NewMemory()
	ctx := context.Background()
	companyRepo := company.NewRepository(mem)
	jobRepo := job.NewRepository(mem)
	f := New(jobRepo, NewAssembler(companyRepo))

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := jobRepo.PublishJob(ctx, job.Job{
			CategoryID:    1,
			CompanyID:     "c1",
			Role:          "Role",
			PublishedDate: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	rows, err := f.Recent(ctx, 3, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].PublishedDate.After(rows[1].PublishedDate), "newest first")
}
