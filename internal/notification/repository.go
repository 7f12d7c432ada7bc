package notification

import (
	"context"

	"github.com/jobera/job-feed/internal/docstore"
)

type Repository struct {
	db docstore.Client
}

func NewRepository(db docstore.Client) *Repository {
	return &Repository{db: db}
}

// NotificationsForUser lists a user's notifications, newest first.
func (r *Repository) NotificationsForUser(ctx context.Context, userID string) ([]Notification, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(CollectionFor(userID)).OrderBy("createdAt", true))
	if err != nil {
		return nil, err
	}
	list := make([]Notification, 0, len(docs))
	for _, doc := range docs {
		list = append(list, FromDocument(doc))
	}
	return list, nil
}

// UnreadCount counts notifications not yet marked read.
func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(CollectionFor(userID)).Where("read", docstore.OpEqual, false))
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// AddJobNotification writes the job_added notification for one job. The
// notification id is the job id, so re-notifying the same job is a merge
// into the existing document instead of a duplicate.
func (r *Repository) AddJobNotification(ctx context.Context, userID string, n Notification) error {
	n.Type = TypeJobAdded
	return r.db.Set(ctx, CollectionFor(userID), n.JobID, ToFields(n))
}

// MarkRead flags one notification as read. Unknown ids return
// docstore.ErrNotFound instead of upserting, so a stray id cannot mint a
// phantom document.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID string) error {
	if _, err := r.db.Get(ctx, CollectionFor(userID), notificationID); err != nil {
		return err
	}
	return r.db.Set(ctx, CollectionFor(userID), notificationID, docstore.Fields{"read": true})
}

// ClearAll removes every notification the user has.
func (r *Repository) ClearAll(ctx context.Context, userID string) error {
	return r.db.DeleteAll(ctx, CollectionFor(userID))
}

// WatchUnread delivers the user's unread notifications on every change.
func (r *Repository) WatchUnread(userID string, fn func([]Notification, error)) (cancel func(), err error) {
	q := docstore.C(CollectionFor(userID)).Where("read", docstore.OpEqual, false)
	return r.db.Subscribe(q, func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		list := make([]Notification, 0, len(docs))
		for _, doc := range docs {
			list = append(list, FromDocument(doc))
		}
		fn(list, nil)
	})
}
