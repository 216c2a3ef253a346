package service

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mbertrand/plume/internal/apitest"
	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/session"
)

type env struct {
	api      *apitest.Server
	store    *session.MemoryStore
	auth     *AuthService
	articles *ArticleService
	comments *CommentService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	api := apitest.NewServer()
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)

	store := session.NewMemoryStore()
	client := httpapi.New(httpapi.Config{BaseURL: ts.URL, Store: store})

	return &env{
		api:      api,
		store:    store,
		auth:     &AuthService{API: client, Store: store},
		articles: &ArticleService{API: client},
		comments: &CommentService{API: client},
	}
}

// loggedIn seeds an account and logs it in through the real login flow.
func (e *env) loggedIn(t *testing.T, username string) models.User {
	t.Helper()
	u := e.api.SeedUser(username, username+"@example.com", "Secret123")
	_, err := e.auth.Login(context.Background(), models.LoginRequest{Username: username, Password: "Secret123"})
	require.NoError(t, err)
	return u
}
