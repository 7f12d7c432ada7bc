// Package activity persists the per-user applied and bookmarked relations,
// both keyed by "{userId}_{jobId}".
package activity

import (
	"context"
	"errors"

	"github.com/jobera/job-feed/internal/docstore"
)

// ErrNotSignedIn guards every operation: relation reads and writes without
// an authenticated user are rejected rather than silently keyed to nobody.
var ErrNotSignedIn = errors.New("activity: not signed in")

type Store struct {
	db docstore.Client
}

func NewStore(db docstore.Client) *Store {
	return &Store{db}
}

func relationKey(userID, jobID string) string {
	return userID + "_" + jobID
}

// Apply upserts the applied relation. The write merges fields, so repeating
// an apply refreshes nothing and erases nothing.
func (s *Store) Apply(ctx context.Context, userID, jobID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}
	return s.db.Set(ctx, AppliedCollection, relationKey(userID, jobID), relationFields(userID, jobID))
}

// Unapply deletes the applied relation. Deleting an absent relation is not
// an error.
func (s *Store) Unapply(ctx context.Context, userID, jobID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}
	return s.db.Delete(ctx, AppliedCollection, relationKey(userID, jobID))
}

// IsApplied is a point existence read, used once per job-detail view to
// seed the toggle state.
func (s *Store) IsApplied(ctx context.Context, userID, jobID string) (bool, error) {
	return s.exists(ctx, AppliedCollection, userID, jobID)
}

func (s *Store) Bookmark(ctx context.Context, userID, jobID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}
	return s.db.Set(ctx, BookmarkedCollection, relationKey(userID, jobID), relationFields(userID, jobID))
}

func (s *Store) Unbookmark(ctx context.Context, userID, jobID string) error {
	if userID == "" {
		return ErrNotSignedIn
	}
	return s.db.Delete(ctx, BookmarkedCollection, relationKey(userID, jobID))
}

func (s *Store) IsBookmarked(ctx context.Context, userID, jobID string) (bool, error) {
	return s.exists(ctx, BookmarkedCollection, userID, jobID)
}

func (s *Store) exists(ctx context.Context, collection, userID, jobID string) (bool, error) {
	if userID == "" {
		return false, ErrNotSignedIn
	}
	_, err := s.db.Get(ctx, collection, relationKey(userID, jobID))
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BookmarkedForUser lists the user's bookmark relations.
func (s *Store) BookmarkedForUser(ctx context.Context, userID string) ([]BookmarkedJob, error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	docs, err := s.db.GetAll(ctx, docstore.C(BookmarkedCollection).
		Where("userId", docstore.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	out := make([]BookmarkedJob, 0, len(docs))
	for _, doc := range docs {
		out = append(out, BookmarkedFromDocument(doc))
	}
	return out, nil
}

// AppliedForUser lists the user's applied relations.
func (s *Store) AppliedForUser(ctx context.Context, userID string) ([]AppliedJob, error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	docs, err := s.db.GetAll(ctx, docstore.C(AppliedCollection).
		Where("userId", docstore.OpEqual, userID))
	if err != nil {
		return nil, err
	}
	out := make([]AppliedJob, 0, len(docs))
	for _, doc := range docs {
		out = append(out, AppliedFromDocument(doc))
	}
	return out, nil
}

// WatchBookmarked subscribes to the user's bookmark relations, delivering
// the full snapshot on every change.
func (s *Store) WatchBookmarked(userID string, fn func([]BookmarkedJob, error)) (func(), error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	return s.db.Subscribe(docstore.C(BookmarkedCollection).
		Where("userId", docstore.OpEqual, userID),
		func(docs []docstore.Document, err error) {
			if err != nil {
				fn(nil, err)
				return
			}
			out := make([]BookmarkedJob, 0, len(docs))
			for _, doc := range docs {
				out = append(out, BookmarkedFromDocument(doc))
			}
			fn(out, nil)
		})
}
