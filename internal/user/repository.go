package user

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/jobera/job-feed/internal/docstore"
)

type Repository struct {
	db docstore.Client
}

func NewRepository(db docstore.Client) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UserByID(ctx context.Context, id string) (User, error) {
	doc, err := r.db.Get(ctx, Collection, id)
	if err != nil {
		return User{}, err
	}
	return FromDocument(doc), nil
}

// UserByEmail returns docstore.ErrNotFound when no account exists for the
// address.
func (r *Repository) UserByEmail(ctx context.Context, email string) (User, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).Where("email", docstore.OpEqual, email).Limit(1))
	if err != nil {
		return User{}, err
	}
	if len(docs) == 0 {
		return User{}, docstore.ErrNotFound
	}
	return FromDocument(docs[0]), nil
}

// CreateUser stores a new account, generating its id. createdAt is assigned
// by the store.
func (r *Repository) CreateUser(ctx context.Context, u User) (User, error) {
	k, err := ksuid.NewRandom()
	if err != nil {
		return User{}, err
	}
	u.ID = k.String()
	fields := ToFields(u)
	fields["createdAt"] = docstore.ServerTimestamp
	fields["notifySince"] = docstore.ServerTimestamp
	if err := r.db.Set(ctx, Collection, u.ID, fields); err != nil {
		return User{}, err
	}
	return u, nil
}

// UpdateProfile merge-writes the editable profile fields only.
func (r *Repository) UpdateProfile(ctx context.Context, id, fullName string) error {
	return r.db.Set(ctx, Collection, id, docstore.Fields{"fullName": fullName})
}

// SetNotifyPrefs flips the new-job notification opt-in. Enabling resets
// notifySince to now so the user is not flooded with the backlog.
func (r *Repository) SetNotifyPrefs(ctx context.Context, id string, notify bool) error {
	fields := docstore.Fields{"notifyNewJobs": notify}
	if notify {
		fields["notifySince"] = docstore.ServerTimestamp
	}
	return r.db.Set(ctx, Collection, id, fields)
}

// NotifiableUsers lists the accounts opted into new-job notifications.
func (r *Repository) NotifiableUsers(ctx context.Context) ([]User, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).Where("notifyNewJobs", docstore.OpEqual, true))
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, FromDocument(doc))
	}
	return users, nil
}
