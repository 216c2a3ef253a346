package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mbertrand/plume/internal/models"
	"github.com/mbertrand/plume/internal/service"
)

// DebounceDelay is how long the search input must stay quiet before a
// request fires.
const DebounceDelay = 500 * time.Millisecond

// Articles drives the published-article list. It runs in one of two
// modes, listing or searching; switching modes fully replaces items and
// pagination with the next settled response, there is no merging.
type Articles struct {
	*Collection[models.Article]
	svc *service.ArticleService

	searchMu sync.Mutex
	query    string
	timer    *time.Timer
	delay    time.Duration
}

func NewArticles(svc *service.ArticleService, page, size int) *Articles {
	a := &Articles{svc: svc, delay: DebounceDelay}
	a.Collection = NewCollection(a.fetchPage, page, size)
	return a
}

// fetchPage is the collection's backing fetch: it consults the current
// mode so GoToPage and Refresh page through search results too.
func (a *Articles) fetchPage(ctx context.Context, page, size int) (models.Page[models.Article], error) {
	if q := a.Query(); q != "" {
		return a.svc.Search(ctx, q, page, size)
	}
	return a.svc.ListPublished(ctx, page, size)
}

// Query returns the active search term, empty in listing mode.
func (a *Articles) Query() string {
	a.searchMu.Lock()
	defer a.searchMu.Unlock()
	return a.query
}

// Search switches to search mode immediately (form submit, not typing)
// and fetches the first page of results.
func (a *Articles) Search(ctx context.Context, keyword string, size int) error {
	a.setQuery(keyword)
	return a.Fetch(ctx, 0, size)
}

// ClearSearch returns to listing mode and reloads the first page.
func (a *Articles) ClearSearch(ctx context.Context) error {
	a.setQuery("")
	a.searchMu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.searchMu.Unlock()

	a.mu.Lock()
	size := a.pag.Size
	a.mu.Unlock()
	return a.Fetch(ctx, 0, size)
}

// Type feeds one search-as-you-type update. The request fires only after
// the input has been quiet for the debounce delay; every call inside the
// window resets the timer, so rapid keystrokes produce at most one
// request, carrying the final accumulated term.
func (a *Articles) Type(keyword string) {
	a.searchMu.Lock()
	defer a.searchMu.Unlock()

	a.query = strings.TrimSpace(keyword)
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		a.mu.Lock()
		size := a.pag.Size
		a.mu.Unlock()
		// Errors land in controller state like any fetch failure.
		_ = a.Fetch(a.lifetime, 0, size)
	})
}

func (a *Articles) setQuery(keyword string) {
	a.searchMu.Lock()
	a.query = strings.TrimSpace(keyword)
	a.searchMu.Unlock()
}

// Close stops the debounce timer before shutting down the collection.
func (a *Articles) Close() {
	a.searchMu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.searchMu.Unlock()
	a.Collection.Close()
}
