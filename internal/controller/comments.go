package controller

import (
	"context"

	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
)

// Comments drives the comment list of one article. Unlike the
// single-article controller, every mutation here re-fetches the list
// instead of patching it locally; see the per-resource policy note in
// DESIGN.md.
type Comments struct {
	*Collection[models.Comment]
	svc       *service.CommentService
	articleID int64
}

func NewComments(svc *service.CommentService, articleID int64, page, size int) *Comments {
	c := &Comments{svc: svc, articleID: articleID}
	c.Collection = NewCollection(c.fetchPage, page, size)
	return c
}

func (c *Comments) ArticleID() int64 { return c.articleID }

func (c *Comments) fetchPage(ctx context.Context, page, size int) (models.Page[models.Comment], error) {
	return c.svc.ForArticle(ctx, c.articleID, page, size)
}

// Create posts a comment to this controller's article (the article id on
// the request is overridden), then re-fetches the current page. The new
// comment shows up only once that re-fetch settles.
func (c *Comments) Create(ctx context.Context, req models.CommentRequest) (*models.Comment, error) {
	req.ArticleID = c.articleID
	return c.mutate(ctx, func(ctx context.Context) (*models.Comment, error) {
		return c.svc.Create(ctx, req)
	})
}

func (c *Comments) Update(ctx context.Context, id int64, req models.CommentRequest) (*models.Comment, error) {
	req.ArticleID = c.articleID
	return c.mutate(ctx, func(ctx context.Context) (*models.Comment, error) {
		return c.svc.Update(ctx, id, req)
	})
}

func (c *Comments) Delete(ctx context.Context, id int64) error {
	_, err := c.mutate(ctx, func(ctx context.Context) (*models.Comment, error) {
		return nil, c.svc.Delete(ctx, id)
	})
	return err
}

// mutate runs one write operation then reloads the current page under
// the same sequence, so a concurrent newer request still wins.
func (c *Comments) mutate(ctx context.Context, op func(context.Context) (*models.Comment, error)) (*models.Comment, error) {
	ctx, done := c.bind(ctx)
	defer done()

	seq := c.begin()
	out, err := op(ctx)
	if err != nil {
		c.fail(seq, err)
		return nil, err
	}

	c.mu.Lock()
	page, size := c.pag.Page, c.pag.Size
	c.mu.Unlock()

	p, ferr := c.fetch(ctx, page, size)
	if ferr != nil {
		c.fail(seq, ferr)
		return out, nil
	}
	c.replace(seq, p)
	return out, nil
}
