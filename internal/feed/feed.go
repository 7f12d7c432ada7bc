package feed

import (
	"context"
	"sync"

	"github.com/jobera/job-feed/internal/job"
)

// MarksWatcher is implemented by bookmark checkers whose membership set
// changes over time. Watch runs fn after every change until cancelled.
type MarksWatcher interface {
	Watch(fn func()) (cancel func())
}

// Feed is a live job list: a subscription on recent jobs whose every
// snapshot is re-assembled into rows before delivery.
type Feed struct {
	jobs      *job.Repository
	assembler *Assembler
}

func New(jobs *job.Repository, assembler *Assembler) *Feed {
	return &Feed{jobs: jobs, assembler: assembler}
}

// Recent fetches and assembles the latest jobs once.
func (f *Feed) Recent(ctx context.Context, take int, marks BookmarkChecker) ([]Row, error) {
	jobs, err := f.jobs.RecentJobs(ctx, take)
	if err != nil {
		return nil, err
	}
	return f.assembler.Assemble(ctx, jobs, marks)
}

// Watch delivers assembled rows on every change to the recent-jobs window
// and, when marks is a MarksWatcher, on every change to the viewer's
// bookmark set as well, so a toggle re-renders the rows it affects.
// Errors, including a missing composite index, pass through to fn so the
// caller can surface them; the subscription stays up across transient
// assembly failures.
func (f *Feed) Watch(take int, marks BookmarkChecker, fn func(rows []Row, err error)) (cancel func(), err error) {
	var mu sync.Mutex
	var latest []job.Job
	var have bool

	// emit serializes assembly and delivery across both triggers.
	emit := func() {
		mu.Lock()
		defer mu.Unlock()
		if !have {
			return
		}
		rows, err := f.assembler.Assemble(context.Background(), latest, marks)
		fn(rows, err)
	}

	jobsCancel, err := f.jobs.WatchRecent(take, func(jobs []job.Job, err error) {
		if err != nil {
			mu.Lock()
			fn(nil, err)
			mu.Unlock()
			return
		}
		mu.Lock()
		latest = jobs
		have = true
		mu.Unlock()
		emit()
	})
	if err != nil {
		return nil, err
	}

	var marksCancel func()
	if w, ok := marks.(MarksWatcher); ok {
		marksCancel = w.Watch(emit)
	}
	return func() {
		jobsCancel()
		if marksCancel != nil {
			marksCancel()
		}
	}, nil
}
