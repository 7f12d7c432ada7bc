// Package promo serves the promotional banners shown on the home screen.
package promo

import (
	"context"

	"github.com/segmentio/ksuid"

	"github.com/jobera/job-feed/internal/docstore"
)

const Collection = "promos"

type Promo struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type Repository struct {
	db docstore.Client
}

func NewRepository(db docstore.Client) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Promos(ctx context.Context) ([]Promo, error) {
	docs, err := r.db.GetAll(ctx, docstore.C(Collection))
	if err != nil {
		return nil, err
	}
	promos := make([]Promo, 0, len(docs))
	for _, doc := range docs {
		promos = append(promos, Promo{ID: doc.ID, URI: doc.String("uri")})
	}
	return promos, nil
}

func (r *Repository) SavePromo(ctx context.Context, p Promo) (Promo, error) {
	if p.ID == "" {
		k, err := ksuid.NewRandom()
		if err != nil {
			return Promo{}, err
		}
		p.ID = k.String()
	}
	if err := r.db.Set(ctx, Collection, p.ID, docstore.Fields{"uri": p.URI}); err != nil {
		return Promo{}, err
	}
	return p, nil
}
