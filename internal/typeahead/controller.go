// Package typeahead is the state machine behind the header search box: it
// debounces keystrokes, issues at most one request per settled query,
// discards responses that are no longer the latest, and tracks the keyboard
// selection over a small window of results. The browser script mirrors it;
// this package drives it headlessly for probes and tests.
package typeahead

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/cosmic-blog/internal/model"
)

const (
	DefaultDelay          = 300 * time.Millisecond
	DefaultWindow         = 5
	DefaultMinQueryLength = 2
)

// Response mirrors the /api/search body.
type Response struct {
	Posts []model.Post `json:"posts"`
	Total int          `json:"total"`
	Error string       `json:"error,omitempty"`
}

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, query string) (Response, error)
}

type Options struct {
	Delay          time.Duration
	Window         int
	MinQueryLength int
	Clock          Clock
	// OnChange, when set, receives a snapshot after every state change. It
	// runs outside the controller lock.
	OnChange func(Snapshot)
}

// Snapshot is everything needed to render the input and its dropdown.
type Snapshot struct {
	Query    string
	State    State
	Open     bool
	Focused  bool
	Items    []model.Post
	ViewAll  bool
	Total    int
	Selected int
}

type Controller struct {
	searcher Searcher
	opts     Options
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	query    string
	state    State
	results  []model.Post
	open     bool
	focused  bool
	selected int
	timer    Timer
	inputGen uint64
	issued   uint64
	closed   bool
}

func NewController(searcher Searcher, opts Options) *Controller {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MinQueryLength < DefaultMinQueryLength {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		searcher: searcher,
		opts:     opts,
		logger:   slog.Default().With("component", "typeahead"),
		ctx:      ctx,
		cancel:   cancel,
		state:    Idle,
		selected: -1,
	}
}

// Input records a new value of the text box. Any running debounce timer is
// replaced; a query too short to search closes the dropdown immediately.
func (c *Controller) Input(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.query = text
	c.focused = true
	c.stopTimerLocked()
	c.inputGen++

	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.opts.MinQueryLength {
		c.issued++
		c.results = nil
		c.open = false
		c.selected = -1
		c.state = Idle
	} else {
		gen := c.inputGen
		c.state = Pending
		c.timer = c.opts.Clock.AfterFunc(c.opts.Delay, func() { c.fire(gen) })
	}
	c.notifyUnlock()
}

// fire issues the request for the query current at input generation gen.
func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.inputGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.issued++
	seq := c.issued
	query := c.query
	c.state = Loading
	c.wg.Add(1)
	c.notifyUnlock()

	go func() {
		defer c.wg.Done()
		resp, err := c.searcher.Search(c.ctx, query)
		c.apply(seq, query, resp, err)
	}()
}

func (c *Controller) apply(seq uint64, query string, resp Response, err error) {
	c.mu.Lock()
	// A newer query still debouncing supersedes this response; its own
	// request comes next.
	if c.closed || seq != c.issued || c.timer != nil {
		c.mu.Unlock()
		c.logger.Debug("discarding stale response", "query", query, "seq", seq)
		return
	}
	c.selected = -1
	c.open = true
	switch {
	case err != nil || resp.Error != "":
		if err != nil {
			c.logger.Warn("search request failed", "query", query, "error", err)
		}
		c.results = nil
		c.state = Error
	case len(resp.Posts) == 0:
		c.results = nil
		c.state = NoResults
	default:
		c.results = resp.Posts
		c.state = ShowingResults
	}
	c.notifyUnlock()
}

// KeyDown handles a key press and returns where to navigate, if anywhere.
func (c *Controller) KeyDown(key Key) Navigation {
	c.mu.Lock()
	var nav Navigation
	options := c.optionCountLocked()

	switch key {
	case KeyArrowDown:
		if c.open && c.selected < options-1 {
			c.selected++
		}
	case KeyArrowUp:
		if c.open && c.selected > -1 {
			c.selected--
		}
	case KeyEnter:
		switch {
		case !c.open || c.selected == -1:
			if strings.TrimSpace(c.query) != "" {
				nav.URL = searchURL(c.query)
				c.open = false
				c.selected = -1
				c.focused = false
			}
		case c.selected < c.windowLenLocked():
			nav.URL = "/posts/" + url.PathEscape(c.results[c.selected].Slug)
			c.resetLocked()
		default:
			nav.URL = searchURL(c.query)
			c.resetLocked()
		}
	case KeyEscape:
		c.dismissLocked()
	}
	c.notifyUnlock()
	return nav
}

// Hover moves the selection to index, as a mouse over a dropdown row does.
func (c *Controller) Hover(index int) {
	c.mu.Lock()
	if c.open && index >= -1 && index < c.optionCountLocked() {
		c.selected = index
	}
	c.notifyUnlock()
}

// ClickOutside closes the dropdown when the user clicks elsewhere.
func (c *Controller) ClickOutside() {
	c.mu.Lock()
	c.dismissLocked()
	c.notifyUnlock()
}

// Close tears the controller down: the timer is stopped and any in-flight
// response is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.issued++
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until no request is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	n := c.windowLenLocked()
	items := make([]model.Post, n)
	copy(items, c.results[:n])
	return Snapshot{
		Query:    c.query,
		State:    c.state,
		Open:     c.open,
		Focused:  c.focused,
		Items:    items,
		ViewAll:  len(c.results) > c.opts.Window,
		Total:    len(c.results),
		Selected: c.selected,
	}
}

func (c *Controller) windowLenLocked() int {
	return min(len(c.results), c.opts.Window)
}

// optionCountLocked counts selectable rows: the visible items plus the
// "view all" row when there are more results than fit.
func (c *Controller) optionCountLocked() int {
	n := c.windowLenLocked()
	if len(c.results) > c.opts.Window {
		n++
	}
	return n
}

func (c *Controller) resetLocked() {
	c.stopTimerLocked()
	c.inputGen++
	c.issued++
	c.query = ""
	c.results = nil
	c.open = false
	c.selected = -1
	c.state = Idle
}

func (c *Controller) dismissLocked() {
	c.open = false
	c.selected = -1
	c.focused = false
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// notifyUnlock releases the lock and then reports the new snapshot.
func (c *Controller) notifyUnlock() {
	var snap Snapshot
	notify := c.opts.OnChange != nil
	if notify {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()
	if notify {
		c.opts.OnChange(snap)
	}
}

func searchURL(query string) string {
	return "/search?q=" + url.QueryEscape(query)
}
