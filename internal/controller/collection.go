package controller

import (
	"context"
	"sync"

	"github.com/mbertrand/plume/internal/models"
)

type fetchFunc[T any] func(ctx context.Context, page, size int) (models.Page[T], error)

// CollectionState is a point-in-time snapshot of a paginated list
// controller. Items and Pagination always come from the same settled
// response.
type CollectionState[T any] struct {
	Items      []T
	Loading    bool
	Err        string
	Pagination Pagination
}

// Collection is the shared core of the list controllers (published
// articles, my articles, comments). Every page change is a round trip;
// nothing is cached client-side.
type Collection[T any] struct {
	mu       sync.Mutex
	fetch    fetchFunc[T]
	items    []T
	loading  bool
	err      string
	pag      Pagination
	seq      uint64
	onChange func()

	lifetime context.Context
	cancel   context.CancelFunc
}

func NewCollection[T any](fetch fetchFunc[T], page, size int) *Collection[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collection[T]{
		fetch:    fetch,
		pag:      Pagination{Page: page, Size: size},
		lifetime: ctx,
		cancel:   cancel,
	}
}

// OnChange registers a listener invoked after every state transition.
// Must be set before the controller is shared.
func (c *Collection[T]) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Collection[T]) State() CollectionState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return CollectionState[T]{
		Items:      items,
		Loading:    c.loading,
		Err:        c.err,
		Pagination: c.pag,
	}
}

// Fetch loads the given page, replacing items and pagination on success.
// Out-of-range pages are sent to the server verbatim; whatever it returns
// (possibly an empty page) becomes the new state.
func (c *Collection[T]) Fetch(ctx context.Context, page, size int) error {
	ctx, done := c.bind(ctx)
	defer done()

	seq := c.begin()
	p, err := c.fetch(ctx, page, size)
	if err != nil {
		c.fail(seq, err)
		return err
	}
	c.replace(seq, p)
	return nil
}

// GoToPage re-fetches at the new page, holding the size constant.
func (c *Collection[T]) GoToPage(ctx context.Context, page int) error {
	c.mu.Lock()
	size := c.pag.Size
	c.mu.Unlock()
	return c.Fetch(ctx, page, size)
}

// Refresh re-fetches the current page at the current size.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	page, size := c.pag.Page, c.pag.Size
	c.mu.Unlock()
	return c.Fetch(ctx, page, size)
}

// Close aborts in-flight requests. The controller keeps its last state
// but no further response will be applied.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	c.seq++
	c.mu.Unlock()
	c.cancel()
}

// bind derives the request context so it is cancelled either by the
// caller or by Close.
func (c *Collection[T]) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.lifetime, cancel)
	return ctx, func() { stop(); cancel() }
}

// begin starts a new request: errors are cleared optimistically and the
// sequence is advanced so any older in-flight response is stale.
func (c *Collection[T]) begin() uint64 {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.err = ""
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
	return seq
}

func (c *Collection[T]) fail(seq uint64, err error) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.loading = false
	c.err = errMessage(err)
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (c *Collection[T]) replace(seq uint64, p models.Page[T]) {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return
	}
	c.items = p.Content
	c.loading = false
	c.err = ""
	c.pag = Pagination{
		Page:          p.Number,
		Size:          p.Size,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
		First:         p.First,
		Last:          p.Last,
	}
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
