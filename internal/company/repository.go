package company

import (
	"context"

	"github.com/segmentio/ksuid"
	"golang.org/x/sync/singleflight"

	"github.com/jobera/job-feed/internal/docstore"
)

type Repository struct {
	db docstore.Client
	// group collapses identical concurrent point reads issued by feed
	// assembly passes running at the same time. It holds nothing once the
	// in-flight call returns, so per-pass caching semantics are untouched.
	group singleflight.Group
}

func NewRepository(db docstore.Client) *Repository {
	return &Repository{db: db}
}

// CompanyByID resolves one company. Returns docstore.ErrNotFound when the
// referenced company does not exist.
func (r *Repository) CompanyByID(ctx context.Context, id string) (*Company, error) {
	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		doc, err := r.db.Get(ctx, Collection, id)
		if err != nil {
			return nil, err
		}
		c := FromDocument(doc)
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Company), nil
}

func (r *Repository) Companies(ctx context.Context) ([]Company, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).OrderBy("name", false))
	if err != nil {
		return nil, err
	}
	companies := make([]Company, 0, len(docs))
	for _, doc := range docs {
		companies = append(companies, FromDocument(doc))
	}
	return companies, nil
}

// CompanyByName finds a company whose doc id is not its name.
func (r *Repository) CompanyByName(ctx context.Context, name string) (*Company, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection).
		Where("name", docstore.OpEqual, name).
		Limit(1))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}
	c := FromDocument(docs[0])
	return &c, nil
}

// SaveCompany upserts a company record on behalf of the external publisher,
// generating an id for new records.
func (r *Repository) SaveCompany(ctx context.Context, c Company) (Company, error) {
	if c.ID == "" {
		k, err := ksuid.NewRandom()
		if err != nil {
			return Company{}, err
		}
		c.ID = k.String()
	}
	if err := r.db.Set(ctx, Collection, c.ID, ToFields(c)); err != nil {
		return Company{}, err
	}
	return c, nil
}
