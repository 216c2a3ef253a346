package service

import (
	"context"
	"fmt"

	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/pkg/logging"
)

// ArticleService maps one method to each article route. Route names are
// the backend's, French included.
type ArticleService struct {
	API *httpapi.Client
}

func (s *ArticleService) ListPublished(ctx context.Context, page, size int) (models.Page[models.Article], error) {
	var res springPage[models.Article]
	if err := s.API.Get(ctx, "/articles/liste", pageQuery(page, size), &res); err != nil {
		return models.EmptyPage[models.Article](page, size), err
	}
	return res.toPage(), nil
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	var res models.Article
	if err := s.API.Get(ctx, fmt.Sprintf("/articles/%d", id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListMine requires an authenticated session.
func (s *ArticleService) ListMine(ctx context.Context, page, size int) (models.Page[models.Article], error) {
	var res springPage[models.Article]
	if err := s.API.Get(ctx, "/articles/mes_articles", pageQuery(page, size), &res); err != nil {
		return models.EmptyPage[models.Article](page, size), err
	}
	return res.toPage(), nil
}

func (s *ArticleService) Create(ctx context.Context, req models.ArticleRequest) (*models.Article, error) {
	l := logging.FromContext(ctx).With("svc", "article.create", "title", req.Title)

	var res models.Article
	if err := s.API.Post(ctx, "/articles/creer", req, &res); err != nil {
		l.Warn("create failed", "error", err)
		return nil, err
	}
	l.Info("article created", "id", res.ID)
	return &res, nil
}

func (s *ArticleService) Update(ctx context.Context, id int64, req models.ArticleRequest) (*models.Article, error) {
	var res models.Article
	if err := s.API.Put(ctx, fmt.Sprintf("/articles/%d", id), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	return s.API.Delete(ctx, fmt.Sprintf("/articles/%d", id))
}

func (s *ArticleService) Search(ctx context.Context, keyword string, page, size int) (models.Page[models.Article], error) {
	q := pageQuery(page, size)
	q.Set("keyword", keyword)

	var res springPage[models.Article]
	if err := s.API.Get(ctx, "/articles/search", q, &res); err != nil {
		return models.EmptyPage[models.Article](page, size), err
	}
	return res.toPage(), nil
}

// TogglePublish flips the published flag server-side and returns the
// resulting representation.
func (s *ArticleService) TogglePublish(ctx context.Context, id int64) (*models.Article, error) {
	var res models.Article
	if err := s.API.Patch(ctx, fmt.Sprintf("/articles/%d/toggle-publish", id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
