package controller

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbertrand/plume/internal/apitest"
	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
	"github.com/mbertrand/plume/internal/session"
)

type env struct {
	api      *apitest.Server
	store    *session.MemoryStore
	auth     *service.AuthService
	articles *service.ArticleService
	comments *service.CommentService

	expired int
}

func newEnv(t *testing.T) *env {
	t.Helper()

	api := apitest.NewServer()
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)

	e := &env{api: api, store: session.NewMemoryStore()}
	client := httpapi.New(httpapi.Config{
		BaseURL:          ts.URL,
		Store:            e.store,
		OnSessionExpired: func() { e.expired++ },
	})

	e.auth = &service.AuthService{API: client, Store: e.store}
	e.articles = &service.ArticleService{API: client}
	e.comments = &service.CommentService{API: client}
	return e
}

func (e *env) loggedIn(t *testing.T, username string) models.User {
	t.Helper()
	u := e.api.SeedUser(username, username+"@example.com", "Secret123")
	_, err := e.auth.Login(context.Background(), models.LoginRequest{Username: username, Password: "Secret123"})
	require.NoError(t, err)
	return u
}

func (e *env) seedPublished(author models.User, n int) {
	for i := 0; i < n; i++ {
		e.api.SeedArticle(author, "Titre", "contenu", true)
	}
}
