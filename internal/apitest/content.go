package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mbertrand/plume/internal/models"
)

func (s *Server) listPublished(c echo.Context) error {
	page, size := pageParams(c)

	s.mu.Lock()
	var out []models.Article
	for _, a := range s.articles {
		if a.Published {
			out = append(out, *a)
		}
	}
	s.mu.Unlock()

	sortArticles(out)
	return c.JSON(http.StatusOK, envelope(out, page, size))
}

func (s *Server) search(c echo.Context) error {
	keyword := c.QueryParam("keyword")
	page, size := pageParams(c)

	s.mu.Lock()
	s.searches = append(s.searches, keyword)
	var out []models.Article
	needle := strings.ToLower(keyword)
	for _, a := range s.articles {
		if !a.Published {
			continue
		}
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Body), needle) {
			out = append(out, *a)
		}
	}
	s.mu.Unlock()

	sortArticles(out)
	return c.JSON(http.StatusOK, envelope(out, page, size))
}

func (s *Server) listMine(c echo.Context) error {
	u := currentUser(c)
	page, size := pageParams(c)

	s.mu.Lock()
	var out []models.Article
	for _, a := range s.articles {
		if a.AuthorID == u.ID {
			out = append(out, *a)
		}
	}
	s.mu.Unlock()

	sortArticles(out)
	return c.JSON(http.StatusOK, envelope(out, page, size))
}

func (s *Server) getArticle(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	a, ok := s.articles[id]
	var found models.Article
	if ok {
		found = *a
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, found)
}

func (s *Server) createArticle(c echo.Context) error {
	u := currentUser(c)
	var req models.ArticleRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return validationFail(c, "title", "title is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return validationFail(c, "contenu", "body is required")
	}

	s.mu.Lock()
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	a := &models.Article{
		ID:             s.nextID,
		Title:          req.Title,
		Body:           req.Body,
		Published:      req.Published,
		CreatedAt:      now,
		UpdatedAt:      now,
		Tags:           req.Tags,
		AuthorID:       u.ID,
		AuthorUsername: u.Username,
	}
	if a.Published {
		a.PublishedAt = &now
	}
	s.articles[a.ID] = a
	out := *a
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, out)
}

func (s *Server) updateArticle(c echo.Context) error {
	u := currentUser(c)
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req models.ArticleRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	a, ok := s.articles[id]
	if ok && a.AuthorID != u.ID {
		s.mu.Unlock()
		return fail(c, http.StatusForbidden, "not your article")
	}
	var out models.Article
	if ok {
		a.Title = req.Title
		a.Body = req.Body
		a.Published = req.Published
		a.Tags = req.Tags
		a.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		out = *a
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteArticle(c echo.Context) error {
	u := currentUser(c)
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	a, ok := s.articles[id]
	if ok && a.AuthorID != u.ID {
		s.mu.Unlock()
		return fail(c, http.StatusForbidden, "not your article")
	}
	if ok {
		delete(s.articles, id)
		for cid, cm := range s.comments {
			if cm.ArticleID == id {
				delete(s.comments, cid)
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "article not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) togglePublish(c echo.Context) error {
	u := currentUser(c)
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	a, ok := s.articles[id]
	if ok && a.AuthorID != u.ID {
		s.mu.Unlock()
		return fail(c, http.StatusForbidden, "not your article")
	}
	var out models.Article
	if ok {
		a.Published = !a.Published
		if a.Published {
			now := time.Now().UTC().Format(time.RFC3339)
			a.PublishedAt = &now
		} else {
			a.PublishedAt = nil
		}
		out = *a
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "article not found")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) articleComments(c echo.Context) error {
	articleID, _ := strconv.ParseInt(c.Param("articleId"), 10, 64)
	page, size := pageParams(c)

	s.mu.Lock()
	var out []models.Comment
	for _, cm := range s.comments {
		if cm.ArticleID == articleID {
			out = append(out, *cm)
		}
	}
	s.mu.Unlock()

	sortComments(out)
	return c.JSON(http.StatusOK, envelope(out, page, size))
}

func (s *Server) myComments(c echo.Context) error {
	u := currentUser(c)
	page, size := pageParams(c)

	s.mu.Lock()
	var out []models.Comment
	for _, cm := range s.comments {
		if cm.AuthorID == u.ID {
			out = append(out, *cm)
		}
	}
	s.mu.Unlock()

	sortComments(out)
	return c.JSON(http.StatusOK, envelope(out, page, size))
}

func (s *Server) getComment(c echo.Context) error {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	cm, ok := s.comments[id]
	var out models.Comment
	if ok {
		out = *cm
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "comment not found")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createComment(c echo.Context) error {
	u := currentUser(c)
	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Body) == "" {
		return validationFail(c, "contenu", "comment body is required")
	}

	s.mu.Lock()
	art, ok := s.articles[req.ArticleID]
	if !ok {
		s.mu.Unlock()
		return fail(c, http.StatusNotFound, "article not found")
	}
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	cm := &models.Comment{
		ID:             s.nextID,
		Body:           req.Body,
		CreatedAt:      now,
		UpdatedAt:      now,
		AuthorID:       u.ID,
		AuthorUsername: u.Username,
		ArticleID:      req.ArticleID,
		ParentID:       req.ParentID,
	}
	s.comments[cm.ID] = cm
	art.CommentsCount++
	out := *cm
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, out)
}

func (s *Server) updateComment(c echo.Context) error {
	u := currentUser(c)
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req models.CommentRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	cm, ok := s.comments[id]
	if ok && cm.AuthorID != u.ID {
		s.mu.Unlock()
		return fail(c, http.StatusForbidden, "not your comment")
	}
	var out models.Comment
	if ok {
		cm.Body = req.Body
		cm.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		out = *cm
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "comment not found")
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteComment(c echo.Context) error {
	u := currentUser(c)
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	cm, ok := s.comments[id]
	if ok && cm.AuthorID != u.ID {
		s.mu.Unlock()
		return fail(c, http.StatusForbidden, "not your comment")
	}
	if ok {
		delete(s.comments, id)
		if art, found := s.articles[cm.ArticleID]; found && art.CommentsCount > 0 {
			art.CommentsCount--
		}
	}
	s.mu.Unlock()

	if !ok {
		return fail(c, http.StatusNotFound, "comment not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func sortArticles(list []models.Article) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}

func sortComments(list []models.Comment) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
