package service

import (
	"context"
	"fmt"

	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
)

type CommentService struct {
	API *httpapi.Client
}

func (s *CommentService) ForArticle(ctx context.Context, articleID int64, page, size int) (models.Page[models.Comment], error) {
	var res springPage[models.Comment]
	path := fmt.Sprintf("/commentaires/article/%d", articleID)
	if err := s.API.Get(ctx, path, pageQuery(page, size), &res); err != nil {
		return models.EmptyPage[models.Comment](page, size), err
	}
	return res.toPage(), nil
}

func (s *CommentService) Mine(ctx context.Context, page, size int) (models.Page[models.Comment], error) {
	var res springPage[models.Comment]
	if err := s.API.Get(ctx, "/commentaires/mes-commentaires", pageQuery(page, size), &res); err != nil {
		return models.EmptyPage[models.Comment](page, size), err
	}
	return res.toPage(), nil
}

func (s *CommentService) Get(ctx context.Context, id int64) (*models.Comment, error) {
	var res models.Comment
	if err := s.API.Get(ctx, fmt.Sprintf("/commentaires/%d", id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CommentService) Create(ctx context.Context, req models.CommentRequest) (*models.Comment, error) {
	var res models.Comment
	if err := s.API.Post(ctx, "/commentaires", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CommentService) Update(ctx context.Context, id int64, req models.CommentRequest) (*models.Comment, error) {
	var res models.Comment
	if err := s.API.Put(ctx, fmt.Sprintf("/commentaires/%d", id), req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *CommentService) Delete(ctx context.Context, id int64) error {
	return s.API.Delete(ctx, fmt.Sprintf("/commentaires/%d", id))
}
