// The watcher turns newly published jobs into job_added notifications for
// users who opted in.
package notification

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jobera/job-feed/internal/docstore"
	"github.com/jobera/job-feed/internal/job"
	"github.com/jobera/job-feed/internal/user"
)

type Watcher struct {
	jobs          *job.Repository
	notifications *Repository
	users         *user.Repository
	log           zerolog.Logger

	mu      sync.Mutex
	cancels map[string]func()
	closed  bool
}

func NewWatcher(jobs *job.Repository, notifications *Repository, users *user.Repository, log zerolog.Logger) *Watcher {
	return &Watcher{
		jobs:          jobs,
		notifications: notifications,
		users:         users,
		log:           log,
		cancels:       make(map[string]func()),
	}
}

// StartAll begins watching for every user currently opted in.
func (w *Watcher) StartAll(ctx context.Context) error {
	users, err := w.users.NotifiableUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := w.StartForUser(ctx, u); err != nil {
			w.log.Error().Err(err).Str("user_id", u.ID).Msg("unable to start notification watch")
		}
	}
	return nil
}

// StartForUser watches jobs published after the user's notifySince mark and
// writes one job_added notification per job. Jobs already notified are
// skipped even across restarts: the seen set is seeded from the ids of the
// user's existing notifications, which double as job ids.
func (w *Watcher) StartForUser(ctx context.Context, u user.User) error {
	if !u.NotifyNewJobs {
		return nil
	}
	w.mu.Lock()
	if w.closed || w.cancels[u.ID] != nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	seen, err := w.seedSeen(ctx, u.ID)
	if err != nil {
		return err
	}
	var seenMu sync.Mutex
	cancel, err := w.jobs.WatchPublishedAfter(u.NotifySince, func(jobs []job.Job, err error) {
		if err != nil {
			w.log.Error().Err(err).Str("user_id", u.ID).Msg("notification watch snapshot failed")
			return
		}
		for _, j := range jobs {
			seenMu.Lock()
			_, done := seen[j.ID]
			if !done {
				seen[j.ID] = struct{}{}
			}
			seenMu.Unlock()
			if done {
				continue
			}
			n := Notification{JobID: j.ID, CompanyID: j.CompanyID, Title: j.Role}
			if err := w.notifications.AddJobNotification(context.Background(), u.ID, n); err != nil {
				w.log.Error().Err(err).Str("user_id", u.ID).Str("job_id", j.ID).Msg("unable to write notification")
			}
		}
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed || w.cancels[u.ID] != nil {
		w.mu.Unlock()
		cancel()
		return nil
	}
	w.cancels[u.ID] = cancel
	w.mu.Unlock()
	return nil
}

// StopForUser drops the user's watch, e.g. after they opt out.
func (w *Watcher) StopForUser(userID string) {
	w.mu.Lock()
	cancel := w.cancels[userID]
	delete(w.cancels, userID)
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (w *Watcher) seedSeen(ctx context.Context, userID string) (map[string]struct{}, error) {
	docs, err := w.notifications.db.GetAll(ctx, docstore.C(CollectionFor(userID)))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		seen[doc.ID] = struct{}{}
	}
	return seen, nil
}

func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	cancels := w.cancels
	w.cancels = make(map[string]func())
	w.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
