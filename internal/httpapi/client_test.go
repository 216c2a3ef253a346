package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbertrand/plume/internal/apierror"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/session"
)

func authedStore(t *testing.T) session.Store {
	t.Helper()
	st := session.NewMemoryStore()
	require.NoError(t, st.Save(models.Session{
		Token: "tok-abc",
		User:  models.User{ID: 1, Username: "marie"},
	}))
	return st
}

func TestClient_AttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: authedStore(t)})
	require.NoError(t, c.Get(context.Background(), "/ping", nil, nil))
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})
	require.NoError(t, c.Get(context.Background(), "/ping", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedClearsSessionOnce(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer ts.Close()

	st := authedStore(t)
	expired := 0
	c := New(Config{
		BaseURL:          ts.URL,
		Store:            st,
		OnSessionExpired: func() { expired++ },
	})

	err := c.Get(context.Background(), "/articles/mes_articles", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrUnauthorized)
	assert.False(t, st.IsAuthenticated())
	assert.Equal(t, 1, expired)

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "token expired", ae.Message)
}

func TestClient_SuccessDoesNotTouchSession(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	st := authedStore(t)
	expired := 0
	c := New(Config{BaseURL: ts.URL, Store: st, OnSessionExpired: func() { expired++ }})

	require.NoError(t, c.Get(context.Background(), "/articles/liste", nil, nil))
	assert.True(t, st.IsAuthenticated())
	assert.Zero(t, expired)
}

func TestClient_ValidationErrorBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid article","validationErrors":[{"field":"title","message":"title is required"}]}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})
	err := c.Post(context.Background(), "/articles/creer", map[string]string{}, nil)

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, apierror.ErrValidation)
	assert.Equal(t, "invalid article", ae.Message)
	require.Len(t, ae.ValidationErrors, 1)
	assert.Equal(t, "title", ae.ValidationErrors[0].Field)
}

func TestClient_ServerErrorWithoutBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})
	err := c.Get(context.Background(), "/articles/liste", nil, nil)

	var ae *apierror.Error
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, apierror.ErrServer)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), ae.Message)
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // nothing listens anymore

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})
	err := c.Get(context.Background(), "/articles/liste", nil, nil)
	assert.ErrorIs(t, err, apierror.ErrTransport)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore(), Timeout: 30 * time.Millisecond})
	err := c.Get(context.Background(), "/articles/liste", nil, nil)
	assert.ErrorIs(t, err, apierror.ErrTimeout)
}

func TestClient_DecodesResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":42,"title":"Bonjour","contenu":"le monde"}`))
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})

	var art models.Article
	require.NoError(t, c.Post(context.Background(), "/articles/creer", map[string]string{"title": "Bonjour"}, &art))
	assert.Equal(t, int64(42), art.ID)
	assert.Equal(t, "le monde", art.Body)
}

func TestClient_EmptyBodyOK(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := New(Config{BaseURL: ts.URL, Store: session.NewMemoryStore()})
	require.NoError(t, c.Delete(context.Background(), "/articles/42"))
}
