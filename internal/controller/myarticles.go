package controller

import (
	"context"

	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
)

// MyArticles drives the authenticated author's own article list.
type MyArticles struct {
	*Collection[models.Article]
	svc *service.ArticleService
}

func NewMyArticles(svc *service.ArticleService, page, size int) *MyArticles {
	m := &MyArticles{svc: svc}
	m.Collection = NewCollection(svc.ListMine, page, size)
	return m
}

// Create submits a new article, then re-fetches the list at the current
// page and size. There is no local insert: the list must reflect
// server-computed ordering and counts, so the extra round trip is the
// price.
func (m *MyArticles) Create(ctx context.Context, req models.ArticleRequest) (*models.Article, error) {
	ctx, done := m.bind(ctx)
	defer done()

	seq := m.begin()
	art, err := m.svc.Create(ctx, req)
	if err != nil {
		m.fail(seq, err)
		return nil, err
	}

	m.refetch(ctx, seq)
	return art, nil
}

// refetch reloads the current page under an already-assigned sequence.
// A failure here is stored in state; the mutation itself succeeded.
func (m *MyArticles) refetch(ctx context.Context, seq uint64) {
	m.mu.Lock()
	page, size := m.pag.Page, m.pag.Size
	m.mu.Unlock()

	p, err := m.fetch(ctx, page, size)
	if err != nil {
		m.fail(seq, err)
		return
	}
	m.replace(seq, p)
}
