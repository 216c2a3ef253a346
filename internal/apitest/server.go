// Package apitest is an in-memory stand-in for the blog backend, used by
// the client tests. It speaks the same routes, page envelope and error
// bodies as the real API, with bearer-token auth.
package apitest

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mbertrand/plume/internal/models"
)

const tokenTTL = 15 * time.Minute

type userRecord struct {
	models.User
	hash []byte
}

type Server struct {
	mu       sync.Mutex
	e        *echo.Echo
	secret   []byte
	users    map[string]*userRecord
	articles map[int64]*models.Article
	comments map[int64]*models.Comment
	nextID   int64

	searches []string
}

func NewServer() *Server {
	s := &Server{
		secret:   []byte("apitest-secret"),
		users:    map[string]*userRecord{},
		articles: map[int64]*models.Article{},
		comments: map[int64]*models.Comment{},
	}

	e := echo.New()
	e.HideBanner = true

	e.POST("/auth/login", s.login)
	e.POST("/auth/register", s.register)
	e.POST("/auth/refresh", s.refresh)

	auth := e.Group("", s.requireAuth)
	auth.POST("/auth/logout", s.logout)

	e.GET("/articles/liste", s.listPublished)
	e.GET("/articles/search", s.search)
	auth.GET("/articles/mes_articles", s.listMine)
	auth.POST("/articles/creer", s.createArticle)
	e.GET("/articles/:id", s.getArticle)
	auth.PUT("/articles/:id", s.updateArticle)
	auth.DELETE("/articles/:id", s.deleteArticle)
	auth.PATCH("/articles/:id/toggle-publish", s.togglePublish)

	e.GET("/commentaires/article/:articleId", s.articleComments)
	auth.GET("/commentaires/mes-commentaires", s.myComments)
	e.GET("/commentaires/:id", s.getComment)
	auth.POST("/commentaires", s.createComment)
	auth.PUT("/commentaires/:id", s.updateComment)
	auth.DELETE("/commentaires/:id", s.deleteComment)

	s.e = e
	return s
}

// Handler exposes the echo instance for httptest.NewServer.
func (s *Server) Handler() http.Handler { return s.e }

// SearchCalls returns the keywords received on /articles/search, in
// order. Used to assert debounce behavior.
func (s *Server) SearchCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.searches))
	copy(out, s.searches)
	return out
}

// ==== seeding ====

func (s *Server) SeedUser(username, email, password string, roles ...string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if len(roles) == 0 {
		roles = []string{"ROLE_USER"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	u := &userRecord{
		User: models.User{ID: s.nextID, Username: username, Email: email, Roles: roles},
		hash: hash,
	}
	s.users[username] = u
	return u.User
}

func (s *Server) SeedArticle(author models.User, title, body string, published bool, tags ...string) models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	a := &models.Article{
		ID:             s.nextID,
		Title:          title,
		Body:           body,
		Published:      published,
		CreatedAt:      now,
		UpdatedAt:      now,
		Tags:           tags,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
	}
	if published {
		a.PublishedAt = &now
	}
	s.articles[a.ID] = a
	return *a
}

func (s *Server) SeedComment(author models.User, articleID int64, body string) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC().Format(time.RFC3339)
	c := &models.Comment{
		ID:             s.nextID,
		Body:           body,
		CreatedAt:      now,
		UpdatedAt:      now,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		ArticleID:      articleID,
	}
	s.comments[c.ID] = c
	if a, ok := s.articles[articleID]; ok {
		a.CommentsCount++
	}
	return *c
}

// ==== auth ====

func (s *Server) mint(u *userRecord, exp time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return fail(c, http.StatusUnauthorized, "missing token")
		}

		tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
			return s.secret, nil
		})
		if err != nil || !tok.Valid {
			return fail(c, http.StatusUnauthorized, "invalid token")
		}

		claims := tok.Claims.(*jwt.RegisteredClaims)
		id, _ := strconv.ParseInt(claims.Subject, 10, 64)

		s.mu.Lock()
		var current *userRecord
		for _, u := range s.users {
			if u.ID == id {
				current = u
				break
			}
		}
		s.mu.Unlock()
		if current == nil {
			return fail(c, http.StatusUnauthorized, "unknown account")
		}

		c.Set("user", current)
		return next(c)
	}
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	u := s.users[req.Username]
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "invalid username or password")
	}

	exp := time.Now().Add(tokenTTL)
	token, err := s.mint(u, exp)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "token error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":     token,
		"type":      "Bearer",
		"id":        u.ID,
		"username":  u.Username,
		"email":     u.Email,
		"roles":     u.Roles,
		"expiresAt": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return validationFail(c, "username", "username and password are required")
	}

	s.mu.Lock()
	_, exists := s.users[req.Username]
	s.mu.Unlock()
	if exists {
		return fail(c, http.StatusConflict, "username already taken")
	}

	s.SeedUser(req.Username, req.Email, req.Password)
	return c.JSON(http.StatusCreated, echo.Map{"message": "account created"})
}

func (s *Server) refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fail(c, http.StatusBadRequest, "refresh token required")
	}

	tok, err := jwt.ParseWithClaims(req.RefreshToken, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}

	claims := tok.Claims.(*jwt.RegisteredClaims)
	id, _ := strconv.ParseInt(claims.Subject, 10, 64)

	s.mu.Lock()
	var u *userRecord
	for _, cand := range s.users {
		if cand.ID == id {
			u = cand
			break
		}
	}
	s.mu.Unlock()
	if u == nil {
		return fail(c, http.StatusUnauthorized, "unknown account")
	}

	token, err := s.mint(u, time.Now().Add(tokenTTL))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "token error")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (s *Server) logout(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// ==== helpers ====

func currentUser(c echo.Context) *userRecord {
	u, _ := c.Get("user").(*userRecord)
	return u
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"message": message})
}

func validationFail(c echo.Context, field, message string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"message": message,
		"validationErrors": []echo.Map{
			{"field": field, "message": message},
		},
	})
}

func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	return page, size
}

// envelope renders the backend's page shape.
func envelope[T any](all []T, page, size int) echo.Map {
	total := len(all)
	totalPages := (total + size - 1) / size

	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	content := all[start:end]

	return echo.Map{
		"content":          content,
		"number":           page,
		"size":             size,
		"totalPages":       totalPages,
		"totalElements":    total,
		"first":            page == 0,
		"last":             totalPages == 0 || page >= totalPages-1,
		"numberOfElements": len(content),
		"empty":            len(content) == 0,
	}
}
