package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbertrand/plume/internal/models"
)

func TestComments_Fetch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	author := e.api.SeedUser("marie", "marie@example.com", "Secret123")
	art := e.api.SeedArticle(author, "Titre", "contenu", true)
	e.api.SeedComment(author, art.ID, "premier")
	e.api.SeedComment(author, art.ID, "deuxième")

	c := NewComments(e.comments, art.ID, 0, 10)
	defer c.Close()

	require.NoError(t, c.Fetch(context.Background(), 0, 10))
	st := c.State()
	assert.Len(t, st.Items, 2)
	assert.Equal(t, int64(2), st.Pagination.TotalElements)
}

func TestComments_CreateRefetchesCurrentPage(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	me := e.loggedIn(t, "marie")
	art := e.api.SeedArticle(me, "Titre", "contenu", true)
	e.api.SeedComment(me, art.ID, "déjà là")

	c := NewComments(e.comments, art.ID, 0, 10)
	defer c.Close()
	require.NoError(t, c.Fetch(context.Background(), 0, 10))
	require.Len(t, c.State().Items, 1)

	created, err := c.Create(context.Background(), models.CommentRequest{Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, art.ID, created.ArticleID, "article id comes from the controller, not the request")

	// The new comment is visible because the list was re-fetched, not
	// because it was inserted locally.
	st := c.State()
	require.Len(t, st.Items, 2)
	bodies := []string{st.Items[0].Body, st.Items[1].Body}
	assert.Contains(t, bodies, "hello")
	assert.False(t, st.Loading)
}

func TestComments_UpdateRefetches(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	me := e.loggedIn(t, "marie")
	art := e.api.SeedArticle(me, "Titre", "contenu", true)

	c := NewComments(e.comments, art.ID, 0, 10)
	defer c.Close()

	created, err := c.Create(context.Background(), models.CommentRequest{Body: "v1"})
	require.NoError(t, err)

	_, err = c.Update(context.Background(), created.ID, models.CommentRequest{Body: "v2"})
	require.NoError(t, err)

	st := c.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "v2", st.Items[0].Body)
}

func TestComments_DeleteRefetches(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	me := e.loggedIn(t, "marie")
	art := e.api.SeedArticle(me, "Titre", "contenu", true)

	c := NewComments(e.comments, art.ID, 0, 10)
	defer c.Close()

	created, err := c.Create(context.Background(), models.CommentRequest{Body: "à supprimer"})
	require.NoError(t, err)
	require.Len(t, c.State().Items, 1)

	require.NoError(t, c.Delete(context.Background(), created.ID))
	assert.Empty(t, c.State().Items)
}

func TestComments_CreateFailureStoredAndReturned(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	me := e.loggedIn(t, "marie")
	art := e.api.SeedArticle(me, "Titre", "contenu", true)

	c := NewComments(e.comments, art.ID, 0, 10)
	defer c.Close()

	_, err := c.Create(context.Background(), models.CommentRequest{Body: "   "})
	require.Error(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.NotEmpty(t, st.Err)
}

func TestMyArticles_CreateRefetchesList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.loggedIn(t, "marie")

	c := NewMyArticles(e.articles, 0, 10)
	defer c.Close()
	require.NoError(t, c.Fetch(context.Background(), 0, 10))
	require.Empty(t, c.State().Items)

	created, err := c.Create(context.Background(), models.ArticleRequest{
		Title: "Nouveau", Body: "texte", Published: false,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	st := c.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Nouveau", st.Items[0].Title)
	assert.Equal(t, int64(1), st.Pagination.TotalElements)
}

func TestMyArticles_CreateValidationFailure(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.loggedIn(t, "marie")

	c := NewMyArticles(e.articles, 0, 10)
	defer c.Close()

	_, err := c.Create(context.Background(), models.ArticleRequest{Title: "", Body: "b"})
	require.Error(t, err)

	st := c.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "title is required", st.Err)
}
