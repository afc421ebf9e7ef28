package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sangihetrip/internal/apiclient"
)

// DefaultDebounce is the quiet period before a search change is fetched.
const DefaultDebounce = 500 * time.Millisecond

// Phase is the controller's state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseDebouncing Phase = "debouncing"
	PhaseFetching   Phase = "fetching"
	PhaseError      Phase = "error"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Alerter shows an error to the user.
type Alerter interface {
	Alert(message string)
}

// Options configures a Controller.
type Options struct {
	// Endpoint is the collection path, e.g. /admin/users.
	Endpoint string
	// Defaults are sent with every fetch; params override them.
	Defaults url.Values
	// SearchFields names the fields the backend searches. Informational.
	SearchFields []string
	PageSize     int
	Debounce     time.Duration
	Clock        Clock
	// Confirmer gates DeleteItem. Nil confirms everything.
	Confirmer Confirmer
	Alerter   Alerter
	Logger    *zap.Logger
}

// Snapshot is a copy of the controller's observable state.
type Snapshot[T any] struct {
	Phase     Phase          `json:"phase"`
	Items     []T            `json:"items"`
	Meta      apiclient.Meta `json:"meta"`
	Params    Params         `json:"params"`
	Error     string         `json:"error,omitempty"`
	Refreshes int            `json:"refreshes"`
}

// Loading reports whether a fetch is running.
func (s Snapshot[T]) Loading() bool { return s.Phase == PhaseFetching }

// Controller drives one list view: debounced search, filters, paging,
// refresh and delete over a collection endpoint. Only the newest fetch may
// update the state; superseded fetches are cancelled and their results
// dropped.
type Controller[T any] struct {
	client    Doer
	sess      apiclient.Session
	opts      Options
	debouncer *Debouncer
	logger    *zap.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	// notifyMu keeps subscriber deliveries in state order.
	notifyMu sync.Mutex

	mu            sync.Mutex
	params        Params
	pendingSearch string
	phase         Phase
	items         []T
	meta          apiclient.Meta
	err           string
	refreshes     int
	gen           uint64
	cancel        context.CancelFunc
	closed        bool
	subs          map[int]func(Snapshot[T])
	nextSub       int
}

// NewController creates a controller. Nothing is fetched until Start.
func NewController[T any](client Doer, sess apiclient.Session, opts Options) *Controller[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Controller[T]{
		client:    client,
		sess:      sess,
		opts:      opts,
		debouncer: NewDebouncer(opts.Debounce, opts.Clock),
		logger:    logger.With(zap.String("endpoint", opts.Endpoint)),
		ctx:       ctx,
		stop:      stop,
		params:    Params{Filters: map[string]string{}, Page: 1, PageSize: opts.PageSize},
		phase:     PhaseIdle,
		items:     []T{},
		subs:      map[int]func(Snapshot[T]){},
	}
}

// Start issues the first fetch.
func (c *Controller[T]) Start() {
	c.update(func() { c.fetchLocked() })
}

// SetSearch records the search text. The fetch happens once the input has
// been quiet for the debounce interval, and goes back to page 1.
func (c *Controller[T]) SetSearch(s string) {
	c.update(func() {
		c.pendingSearch = s
		c.phase = PhaseDebouncing
		c.debouncer.Debounce(c.applySearch)
	})
}

func (c *Controller[T]) applySearch() {
	c.update(func() {
		c.params.Search = c.pendingSearch
		c.params.Page = 1
		c.fetchLocked()
	})
}

// SetFilter sets one filter and goes back to page 1. An empty value removes
// the filter.
func (c *Controller[T]) SetFilter(key, value string) {
	c.SetFilters(map[string]string{key: value})
}

// SetFilters sets several filters at once and goes back to page 1.
func (c *Controller[T]) SetFilters(filters map[string]string) {
	c.update(func() {
		for k, v := range filters {
			if v == "" {
				delete(c.params.Filters, k)
				continue
			}
			c.params.Filters[k] = v
		}
		c.params.Page = 1
		c.fetchLocked()
	})
}

// SetPage moves to page n.
func (c *Controller[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.update(func() {
		c.params.Page = n
		c.fetchLocked()
	})
}

// ResetFilters clears search and filters and goes back to page 1.
func (c *Controller[T]) ResetFilters() {
	c.update(func() {
		c.debouncer.Cancel()
		c.pendingSearch = ""
		c.params.Search = ""
		c.params.Filters = map[string]string{}
		c.params.Page = 1
		c.fetchLocked()
	})
}

// Refresh re-fetches with unchanged parameters.
func (c *Controller[T]) Refresh() {
	c.update(func() {
		c.refreshes++
		c.fetchLocked()
	})
}

// DeleteItem deletes the item with id after confirmation and refreshes the
// list. It reports whether a delete was issued successfully. Failures are
// shown through the Alerter and returned.
func (c *Controller[T]) DeleteItem(ctx context.Context, id string) (bool, error) {
	if c.opts.Confirmer != nil && !c.opts.Confirmer.Confirm(ctx, fmt.Sprintf("Delete %s? This cannot be undone.", id)) {
		return false, nil
	}

	_, err := c.client.Do(ctx, c.sess, apiclient.Request{
		Method: http.MethodDelete,
		Path:   strings.TrimRight(c.opts.Endpoint, "/") + "/" + url.PathEscape(id),
		Auth:   apiclient.AuthRequired,
	}, nil)
	if err != nil {
		msg := apiclient.Message(err)
		c.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
		if c.opts.Alerter != nil {
			c.opts.Alerter.Alert(msg)
		}
		return false, fmt.Errorf("delete %s: %w", id, err)
	}

	c.Refresh()
	return true, nil
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots arrive in order; fn must not call back into the controller.
func (c *Controller[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Close stops the debounce timer, cancels any fetch in flight and waits for
// it to return.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.debouncer.Cancel()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}

// update applies fn under the lock and notifies subscribers.
func (c *Controller[T]) update(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn()
	snap, subs := c.snapshotLocked(), c.subscribersLocked()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (c *Controller[T]) fetchLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancel = cancel
	c.phase = PhaseFetching

	query := c.params.Query(c.opts.Defaults)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		page, err := FetchPage[T](ctx, c.client, c.sess, c.opts.Endpoint, query)
		c.finish(gen, page, err)
	}()
}

func (c *Controller[T]) finish(gen uint64, page Page[T], err error) {
	c.update(func() {
		if gen != c.gen {
			return
		}
		c.cancel = nil
		if err != nil {
			c.logger.Debug("fetch failed", zap.Uint64("generation", gen), zap.Error(err))
			c.err = apiclient.Message(err)
			c.phase = PhaseError
			return
		}
		c.items = page.Items
		c.meta = page.Meta
		c.err = ""
		c.phase = PhaseIdle
		if c.debouncer.Pending() {
			c.phase = PhaseDebouncing
		}
	})
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{
		Phase:     c.phase,
		Items:     items,
		Meta:      c.meta,
		Params:    c.params.clone(),
		Error:     c.err,
		Refreshes: c.refreshes,
	}
}

func (c *Controller[T]) subscribersLocked() []func(Snapshot[T]) {
	subs := make([]func(Snapshot[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}
