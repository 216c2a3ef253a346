package service

import (
	"context"

	"github.com/mbertrand/plume/internal/httpapi"
	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/session"
	"github.com/mbertrand/plume/pkg/logging"
)

type AuthService struct {
	API   *httpapi.Client
	Store session.Store
}

// jwtResponse is the login wire shape: the token plus the account fields
// inlined next to it.
type jwtResponse struct {
	Token     string   `json:"token"`
	Type      string   `json:"type"`
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	ExpiresAt string   `json:"expiresAt"`
}

// Login authenticates and persists the session on success.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	var res jwtResponse
	if err := s.API.Post(ctx, "/auth/login", req, &res); err != nil {
		l.Warn("login failed", "error", err)
		return nil, err
	}

	sess := models.Session{
		Token: res.Token,
		User: models.User{
			ID:       res.ID,
			Username: res.Username,
			Email:    res.Email,
			Roles:    res.Roles,
		},
		ExpiresAt: res.ExpiresAt,
	}
	if err := s.Store.Save(sess); err != nil {
		l.Error("session save failed", "error", err)
		return nil, err
	}

	l.Info("logged in", "user_id", sess.User.ID)
	return &sess, nil
}

// Register creates the account but does not log in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", req.Username)

	if err := s.API.Post(ctx, "/auth/register", req, nil); err != nil {
		l.Warn("register failed", "error", err)
		return err
	}
	return nil
}

// Refresh exchanges the refresh token for a new access token and re-saves
// the session with it, keeping the cached user record.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	var res struct {
		Token string `json:"token"`
	}
	body := map[string]string{"refreshToken": refreshToken}
	if err := s.API.Post(ctx, "/auth/refresh", body, &res); err != nil {
		l.Warn("refresh failed", "error", err)
		return "", err
	}

	if sess := s.Store.Session(); sess != nil {
		sess.Token = res.Token
		if err := s.Store.Save(*sess); err != nil {
			return "", err
		}
	}
	return res.Token, nil
}

// Logout tells the server, then clears the local session whether or not
// the server call worked.
func (s *AuthService) Logout(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	// The server call is best effort; the local session goes away either way.
	if err := s.API.Post(ctx, "/auth/logout", nil, nil); err != nil {
		l.Warn("logout call failed, clearing session anyway", "error", err)
	}
	return s.Store.Clear()
}
