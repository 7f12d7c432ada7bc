package job

import (
	"context"
	"time"

	"github.com/gosimple/slug"
	"github.com/segmentio/ksuid"

	"github.com/jobera/job-feed/internal/docstore"
)

type Repository struct {
	db docstore.Client
}

func NewRepository(db docstore.Client) *Repository {
	return &Repository{db}
}

func (r *Repository) GetJobByID(ctx context.Context, id string) (Job, error) {
	doc, err := r.db.Get(ctx, Collection, id)
	if err != nil {
		return Job{}, err
	}
	return FromDocument(doc), nil
}

// RecentJobs returns the latest postings, newest first.
func (r *Repository) RecentJobs(ctx context.Context, take int) ([]Job, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).
		OrderBy("publishedDate", true).
		Limit(take))
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs), nil
}

func (r *Repository) JobsByCategory(ctx context.Context, categoryID int) ([]Job, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).
		Where("categoryId", docstore.OpEqual, categoryID).
		OrderBy("publishedDate", true))
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs), nil
}

func (r *Repository) JobsByCompanyID(ctx context.Context, companyID string) ([]Job, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).
		Where("companyId", docstore.OpEqual, companyID).
		OrderBy("publishedDate", true))
	if err != nil {
		return nil, err
	}
	return fromDocuments(docs), nil
}

// CountByCategory counts the postings filed under one category. Equality
// filter only, so no composite index is involved.
func (r *Repository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).
		Where("categoryId", docstore.OpEqual, categoryID))
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// WatchRecent subscribes to the latest postings, re-delivering the full
// slice on every change. The cancel func is idempotent.
func (r *Repository) WatchRecent(take int, fn func([]Job, error)) (func(), error) {
	return r.db.Subscribe(docstore.C(Collection).
		OrderBy("publishedDate", true).
		Limit(take),
		func(docs []docstore.Document, err error) {
			if err != nil {
				fn(nil, err)
				return
			}
			fn(fromDocuments(docs), nil)
		})
}

// WatchPublishedAfter subscribes to postings published after since, oldest
// first. Range and order share a field so no composite index is needed.
func (r *Repository) WatchPublishedAfter(since time.Time, fn func([]Job, error)) (func(), error) {
	return r.db.Subscribe(docstore.C(Collection).
		Where("publishedDate", docstore.OpGreater, since).
		OrderBy("publishedDate", false),
		func(docs []docstore.Document, err error) {
			if err != nil {
				fn(nil, err)
				return
			}
			fn(fromDocuments(docs), nil)
		})
}

// PublishJob stores a new posting on behalf of the external publisher and
// returns its generated id. The publish date is server-assigned when unset.
func (r *Repository) PublishJob(ctx context.Context, j Job) (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", err
	}
	fields := ToFields(j)
	if j.PublishedDate.IsZero() {
		fields["publishedDate"] = docstore.ServerTimestamp
	}
	if err := r.db.Set(ctx, Collection, id.String(), fields); err != nil {
		return "", err
	}
	return id.String(), nil
}

// Slug renders the URL fragment used for a posting in the RSS feed.
func Slug(j Job) string {
	return slug.Make(j.Role + " " + j.Location)
}

func fromDocuments(docs []docstore.Document) []Job {
	jobs := make([]Job, 0, len(docs))
	for _, doc := range docs {
		jobs = append(jobs, FromDocument(doc))
	}
	return jobs
}
