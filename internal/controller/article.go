package controller

import (
	"context"
	"sync"

	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
)

// ArticleState is a snapshot of the single-article controller. Item is
// nil before the first load and after a delete.
type ArticleState struct {
	Item    *models.Article
	Loading bool
	Err     string
}

// Article drives one article by id. Mutations patch the cached item with
// the server's returned representation instead of re-fetching; this is
// the article side of the per-resource refetch-vs-patch policy.
type Article struct {
	mu       sync.Mutex
	svc      *service.ArticleService
	id       int64
	item     *models.Article
	loading  bool
	err      string
	seq      uint64
	onChange func()

	lifetime context.Context
	cancel   context.CancelFunc
}

func NewArticle(svc *service.ArticleService, id int64) *Article {
	ctx, cancel := context.WithCancel(context.Background())
	return &Article{svc: svc, id: id, lifetime: ctx, cancel: cancel}
}

func (a *Article) OnChange(fn func()) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

func (a *Article) ID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id
}

func (a *Article) State() ArticleState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := ArticleState{Loading: a.loading, Err: a.err}
	if a.item != nil {
		item := *a.item
		st.Item = &item
	}
	return st
}

// Load fetches the article. Reloading an id of 0 is a no-op, matching a
// consumer that has not resolved its route parameter yet.
func (a *Article) Load(ctx context.Context) error {
	a.mu.Lock()
	id := a.id
	a.mu.Unlock()
	if id == 0 {
		return nil
	}

	ctx, done := a.bind(ctx)
	defer done()

	seq := a.begin()
	art, err := a.svc.Get(ctx, id)
	if err != nil {
		// A failed load drops the stale item as well.
		a.settle(seq, nil, err)
		return err
	}
	a.settle(seq, art, nil)
	return nil
}

// SetID switches the controller to a different article and re-fetches.
func (a *Article) SetID(ctx context.Context, id int64) error {
	a.mu.Lock()
	changed := a.id != id
	a.id = id
	a.mu.Unlock()
	if !changed {
		return nil
	}
	return a.Load(ctx)
}

func (a *Article) Update(ctx context.Context, req models.ArticleRequest) (*models.Article, error) {
	ctx, done := a.bind(ctx)
	defer done()

	seq := a.begin()
	art, err := a.svc.Update(ctx, a.ID(), req)
	if err != nil {
		a.fail(seq, err)
		return nil, err
	}
	a.settle(seq, art, nil)
	return art, nil
}

func (a *Article) Delete(ctx context.Context) error {
	ctx, done := a.bind(ctx)
	defer done()

	seq := a.begin()
	if err := a.svc.Delete(ctx, a.ID()); err != nil {
		a.fail(seq, err)
		return err
	}
	a.settle(seq, nil, nil)
	return nil
}

// TogglePublish flips the published flag and adopts the server's
// representation. Calling it twice returns the article to its original
// state.
func (a *Article) TogglePublish(ctx context.Context) (*models.Article, error) {
	ctx, done := a.bind(ctx)
	defer done()

	seq := a.begin()
	art, err := a.svc.TogglePublish(ctx, a.ID())
	if err != nil {
		a.fail(seq, err)
		return nil, err
	}
	a.settle(seq, art, nil)
	return art, nil
}

func (a *Article) Close() {
	a.mu.Lock()
	a.seq++
	a.mu.Unlock()
	a.cancel()
}

func (a *Article) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(a.lifetime, cancel)
	return ctx, func() { stop(); cancel() }
}

func (a *Article) begin() uint64 {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.loading = true
	a.err = ""
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
	return seq
}

// fail records the error and keeps the current item.
func (a *Article) fail(seq uint64, err error) {
	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return
	}
	a.loading = false
	a.err = errMessage(err)
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// settle replaces the item wholesale.
func (a *Article) settle(seq uint64, item *models.Article, err error) {
	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return
	}
	a.item = item
	a.loading = false
	a.err = ""
	if err != nil {
		a.err = errMessage(err)
	}
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}
