package controller

import (
	"context"
	"sync"

	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
	"github.com/mbertrand/plume/internal/session"
)

type AuthState struct {
	IsAuthenticated bool
	User            *models.User
	Loading         bool
	Err             string
}

// Auth holds the authentication state the rest of the application reads.
// It initializes from the persisted store, so a restarted client comes
// back logged in.
type Auth struct {
	mu       sync.Mutex
	svc      *service.AuthService
	store    session.Store
	user     *models.User
	authed   bool
	loading  bool
	err      string
	seq      uint64
	onChange func()
}

func NewAuth(svc *service.AuthService, store session.Store) *Auth {
	return &Auth{
		svc:    svc,
		store:  store,
		user:   store.CurrentUser(),
		authed: store.IsAuthenticated(),
	}
}

func (a *Auth) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := AuthState{IsAuthenticated: a.authed, Loading: a.loading, Err: a.err}
	if a.user != nil {
		u := *a.user
		st.User = &u
	}
	return st
}

// Login authenticates and replaces the whole state atomically on
// success. The error is both stored and returned, so callers can show a
// transient notification on top of the sticky state.
func (a *Auth) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	seq := a.begin()

	sess, err := a.svc.Login(ctx, req)
	if err != nil {
		a.fail(seq, err)
		return nil, err
	}

	a.mu.Lock()
	if seq == a.seq {
		u := sess.User
		a.user = &u
		a.authed = true
		a.loading = false
		a.err = ""
	}
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
	return sess, nil
}

// Register creates the account without logging in.
func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) error {
	seq := a.begin()

	if err := a.svc.Register(ctx, req); err != nil {
		a.fail(seq, err)
		return err
	}

	a.mu.Lock()
	if seq == a.seq {
		a.loading = false
	}
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
	return nil
}

// Logout ends the session. The local state is reset even when the server
// call failed; the user is logged out client-side regardless.
func (a *Auth) Logout(ctx context.Context) error {
	seq := a.begin()
	err := a.svc.Logout(ctx)

	a.mu.Lock()
	if seq == a.seq {
		a.user = nil
		a.authed = false
		a.loading = false
		a.err = ""
	}
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
	return err
}

// Refresh re-reads the persisted store. Used after the 401 handler or
// another process may have changed the session underneath us.
func (a *Auth) Refresh() {
	user := a.store.CurrentUser()
	authed := a.store.IsAuthenticated()

	a.mu.Lock()
	a.seq++
	a.user = user
	a.authed = authed
	a.loading = false
	a.err = ""
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
}

func (a *Auth) begin() uint64 {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.loading = true
	a.err = ""
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
	return seq
}

func (a *Auth) fail(seq uint64, err error) {
	a.mu.Lock()
	if seq == a.seq {
		a.loading = false
		a.err = errMessage(err)
	}
	fn := a.onChange
	a.mu.Unlock()
	a.notify(fn)
}

func (a *Auth) notify(fn func()) {
	if fn != nil {
		fn()
	}
}
