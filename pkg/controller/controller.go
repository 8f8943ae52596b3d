// Package controller implements the filter controller of a lexicon
// listing: it binds filter inputs, sort controls and pagination links to
// the URL query, and keeps the result list in sync with it either by full
// navigation or by splicing freshly fetched regions into the current page.
package controller

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/jambu/pkg/config"
	"github.com/japaniel/jambu/pkg/debounce"
	"github.com/japaniel/jambu/pkg/history"
	"github.com/japaniel/jambu/pkg/page"
	"github.com/japaniel/jambu/pkg/query"
	"github.com/japaniel/jambu/pkg/worker"
)

var (
	// ErrClosed is returned by operations on a closed Controller.
	ErrClosed = errors.New("controller closed")
	// ErrNotLoaded is returned by operations issued before Load.
	ErrNotLoaded = errors.New("no page loaded")
	// ErrNotBound is returned for fields the controller does not manage.
	ErrNotBound = errors.New("field not bound to an input")
)

// Fetcher retrieves a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (*page.Document, error)
}

// Recorder logs pages that were displayed.
type Recorder interface {
	Record(ctx context.Context, u *url.URL, title string) error
}

// InputState is the commit state of a text input.
type InputState int

const (
	// Idle: the displayed results reflect the input's value.
	Idle InputState = iota
	// Editing: the value changed and a commit is pending.
	Editing
	// Committed: a request for the value is outstanding.
	Committed
)

func (s InputState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Committed:
		return "committed"
	}
	return "unknown"
}

// Options configures a Controller. Zero values select the defaults of
// config.Default.
type Options struct {
	Fields           []query.Field
	RefreshMode      config.RefreshMode
	CommitTrigger    config.CommitTrigger
	QuietPeriod      time.Duration
	PaletteHideDelay time.Duration
	Palette          []string
	Regions          []page.Region
	Workers          int
	// Recorder, when set, is told about every page shown.
	Recorder Recorder
	// Logger receives diagnostics. nil means no logging.
	Logger *zap.Logger
}

// OptionsFromConfig maps file settings onto controller options.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	fields, err := cfg.FilterFields()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Fields:           fields,
		RefreshMode:      cfg.RefreshMode,
		CommitTrigger:    cfg.CommitTrigger,
		QuietPeriod:      time.Duration(cfg.QuietPeriod),
		PaletteHideDelay: time.Duration(cfg.PaletteHideDelay),
		Palette:          cfg.Palette,
		Workers:          cfg.Workers,
	}, nil
}

func (o *Options) setDefaults() {
	def := config.Default()
	if len(o.Fields) == 0 {
		o.Fields = query.AllFields()
	}
	if o.RefreshMode == "" {
		o.RefreshMode = def.RefreshMode
	}
	if o.CommitTrigger == "" {
		o.CommitTrigger = def.CommitTrigger
	}
	if o.QuietPeriod <= 0 {
		o.QuietPeriod = time.Duration(def.QuietPeriod)
	}
	if o.PaletteHideDelay <= 0 {
		o.PaletteHideDelay = time.Duration(def.PaletteHideDelay)
	}
	if len(o.Palette) == 0 {
		o.Palette = def.Palette
	}
	if len(o.Regions) == 0 {
		o.Regions = page.DefaultRegions()
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Controller owns the filter inputs of one listing page. All methods are
// safe for concurrent use; state changes are serialized on one mutex.
type Controller struct {
	opts    Options
	fetcher Fetcher
	log     *zap.Logger
	start   *url.URL

	commits *debounce.Debouncer
	hides   *debounce.Debouncer
	pool    *worker.Pool
	events  chan Event

	mu      sync.Mutex
	doc     *page.Document
	hist    *history.Stack
	states  map[query.Field]InputState
	palette map[query.Field]bool
	focused query.Field
	loading bool
	// issued is the sequence number of the newest request. Only its
	// response may change the view.
	issued uint64
	// queued holds fetch jobs built under mu; flush submits them once mu
	// is released so a full pool never blocks a lock holder.
	queued []worker.Job
	closed bool
}

// New creates a controller for the listing at start. Call Load before
// anything else.
func New(f Fetcher, start *url.URL, opts Options) *Controller {
	opts.setDefaults()
	s := *start
	c := &Controller{
		opts:    opts,
		fetcher: f,
		log:     opts.Logger,
		start:   &s,
		commits: debounce.New(opts.QuietPeriod),
		hides:   debounce.New(opts.PaletteHideDelay),
		pool:    worker.NewPool(opts.Workers, opts.Workers*4),
		events:  make(chan Event, eventBuffer),
		states:  make(map[query.Field]InputState),
		palette: make(map[query.Field]bool),
	}
	c.pool.Start(context.Background())
	return c
}

// Events delivers view changes. The channel is closed by Close.
func (c *Controller) Events() <-chan Event { return c.events }

// Load fetches the start page synchronously and makes it current.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	start := *c.start
	c.mu.Unlock()

	doc, err := c.fetcher.Fetch(ctx, &start)
	if err != nil {
		return fmt.Errorf("load %s: %w", start.String(), err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.doc = doc
	c.hist = history.NewStack(&start)
	c.loading = false
	c.doc.SetLoading(false)
	c.emitLocked(Event{Kind: EventRefreshed, URL: &start})
	c.mu.Unlock()

	c.record(ctx, &start, doc.Title)
	return nil
}

// flush submits the fetch jobs queued while c.mu was held. It must be
// called without holding c.mu.
func (c *Controller) flush() {
	c.mu.Lock()
	jobs := c.queued
	c.queued = nil
	c.mu.Unlock()
	for _, job := range jobs {
		if err := c.pool.Submit(job); err != nil {
			c.log.Debug("refresh not scheduled", zap.Error(err))
		}
	}
}

// Close stops timers and background fetches and closes Events.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	// Timers and workers may be waiting on c.mu, so stop them unlocked.
	c.commits.Stop()
	c.hides.Stop()
	c.pool.Close()

	c.mu.Lock()
	close(c.events)
	c.mu.Unlock()
}

func (c *Controller) readyLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.doc == nil {
		return ErrNotLoaded
	}
	return nil
}

func (c *Controller) bound(f query.Field) bool {
	for _, b := range c.opts.Fields {
		if b == f {
			return true
		}
	}
	return false
}

func (c *Controller) checkFieldLocked(f query.Field, kind page.InputKind) error {
	if err := c.readyLocked(); err != nil {
		return err
	}
	if !c.bound(f) || c.doc.InputKind(f) != kind {
		return fmt.Errorf("%s: %w", f, ErrNotBound)
	}
	return nil
}

// OnFieldEdit records a keystroke in the text input of f. With the
// debounce trigger the loader is shown at once and the value is committed
// after the quiet period, superseding any commit still pending for f.
// With the blur-or-enter trigger the value waits for OnFieldCommit.
func (c *Controller) OnFieldEdit(f query.Field, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.TextInput); err != nil {
		return err
	}
	c.doc.SetValue(f, raw)
	c.states[f] = Editing
	if c.opts.CommitTrigger != config.CommitDebounce {
		return nil
	}
	c.showLoaderLocked(0, nil)
	c.commits.Do(string(f), func() { c.commitField(f) })
	return nil
}

// commitField is the debounce callback: it sends whatever the input holds
// once the quiet period has passed.
func (c *Controller) commitField(f query.Field) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	// History travel resets inputs to Idle; a callback that fired during
	// it has nothing left to commit.
	if c.readyLocked() != nil || c.states[f] != Editing {
		return
	}
	c.commitLocked(f)
}

func (c *Controller) commitLocked(f query.Field) *url.URL {
	c.states[f] = Committed
	return c.applyLocked(query.FieldUpdate(f, c.doc.Value(f)))
}

// OnFieldCommit commits the current value of the text input of f at once,
// as on enter or blur, cancelling any pending debounced commit.
func (c *Controller) OnFieldCommit(f query.Field) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.TextInput); err != nil {
		return nil, err
	}
	c.commits.Cancel(string(f))
	return c.commitLocked(f), nil
}

// OnSelectChange applies a new choice of the select bound to f at once.
func (c *Controller) OnSelectChange(f query.Field, value string) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkFieldLocked(f, page.SelectInput); err != nil {
		return nil, err
	}
	c.doc.SetValue(f, value)
	return c.applyLocked(query.FieldUpdate(f, value)), nil
}

// OnSortToggle handles a click on the sort control of f in direction dir.
// Clicking the active control clears the sort; any other control becomes
// the only active one. Fields without a control for dir are rejected.
func (c *Controller) OnSortToggle(f query.Field, dir query.Direction) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}
	if !c.bound(f) || len(c.doc.SortControls(f, dir)) == 0 {
		return nil, fmt.Errorf("%s %s sort: %w", f, dir, ErrNotBound)
	}
	s := query.Sort{Field: f, Dir: dir}
	if c.doc.IsActive(s) {
		s = query.Sort{}
	}
	return c.applyLocked(query.SortUpdate(s)), nil
}

// OnPageChange moves to the page identified by token, keeping every other
// parameter.
func (c *Controller) OnPageChange(token string) (*url.URL, error) {
	return c.ApplyUpdate(query.PageUpdate(token))
}

// ApplyUpdate merges u into the current URL, dropping the page parameter
// unless u sets it, and refreshes the view for the result. The refresh
// runs in the background; the new URL is returned immediately.
func (c *Controller) ApplyUpdate(u query.Update) (*url.URL, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return nil, err
	}
	return c.applyLocked(u), nil
}

func (c *Controller) applyLocked(u query.Update) *url.URL {
	next := query.ApplyURL(c.hist.Current(), u)
	c.log.Debug("apply update", zap.Stringer("update", u), zap.String("url", next.String()))
	c.hist.Push(next)
	c.syncUpdateLocked(u)
	c.refreshLocked(next)
	return next
}

// syncUpdateLocked makes the inputs and sort markers named by u show the
// values u assigns. Inputs u does not name keep whatever is being typed.
func (c *Controller) syncUpdateLocked(u query.Update) {
	for _, k := range u.Keys() {
		v, _ := u.Value(k)
		if k == query.SortParam {
			if s, err := query.ParseSort(v); err == nil {
				c.doc.SetActiveSort(s)
			}
			continue
		}
		f, err := query.ParseField(k)
		if err != nil || !c.bound(f) || c.doc.InputKind(f) == page.NoInput {
			continue
		}
		if c.doc.Value(f) != v {
			c.doc.SetValue(f, v)
		}
	}
}

// refreshLocked issues a fetch of u and shows the loader.
func (c *Controller) refreshLocked(u *url.URL) {
	c.issued++
	seq := c.issued
	c.showLoaderLocked(seq, u)

	target := *u
	c.queued = append(c.queued, func(ctx context.Context) {
		doc, err := c.fetcher.Fetch(ctx, &target)
		c.finish(ctx, seq, &target, doc, err)
	})
}

func (c *Controller) showLoaderLocked(seq uint64, u *url.URL) {
	c.loading = true
	c.doc.SetLoading(true)
	c.emitLocked(Event{Kind: EventLoading, Seq: seq, URL: u})
}

func (c *Controller) finish(ctx context.Context, seq uint64, u *url.URL, doc *page.Document, err error) {
	c.mu.Lock()
	if !c.finishLocked(seq, u, doc, err) {
		c.mu.Unlock()
		return
	}
	title := c.doc.Title
	c.mu.Unlock()
	c.record(ctx, u, title)
}

// finishLocked applies the outcome of request seq and reports whether the
// view changed.
func (c *Controller) finishLocked(seq uint64, u *url.URL, doc *page.Document, err error) bool {
	if c.closed {
		return false
	}
	if seq != c.issued {
		c.log.Debug("discarding superseded response", zap.Uint64("seq", seq), zap.Uint64("latest", c.issued))
		c.emitLocked(Event{Kind: EventDiscarded, Seq: seq, URL: u})
		return false
	}
	if err == nil {
		err = c.showLocked(doc)
	}
	if err != nil {
		// The loader stays up; there is no user-facing error.
		c.log.Debug("refresh failed", zap.String("url", u.String()), zap.Error(err))
		c.emitLocked(Event{Kind: EventFailed, Seq: seq, URL: u, Err: err})
		return false
	}
	for f, st := range c.states {
		if st == Committed {
			c.states[f] = Idle
		}
	}
	c.loading = c.pendingLocked()
	c.doc.SetLoading(c.loading)
	c.emitLocked(Event{Kind: EventRefreshed, Seq: seq, URL: u})
	return true
}

// showLocked puts a fetched document on screen according to the refresh
// mode.
// Text still being edited survives a full refresh.
func (c *Controller) showLocked(doc *page.Document) error {
	if c.opts.RefreshMode != config.RefreshFull {
		return c.doc.Splice(doc, c.opts.Regions)
	}
	for f, st := range c.states {
		if st == Editing && doc.InputKind(f) == page.TextInput {
			doc.SetValue(f, c.doc.Value(f))
		}
	}
	c.doc = doc
	return nil
}

// pendingLocked reports whether a debounced commit is still waiting, in
// which case the loader stays up.
func (c *Controller) pendingLocked() bool {
	if c.opts.CommitTrigger != config.CommitDebounce {
		return false
	}
	for _, st := range c.states {
		if st == Editing {
			return true
		}
	}
	return false
}

func (c *Controller) record(ctx context.Context, u *url.URL, title string) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.Record(ctx, u, title); err != nil {
		c.log.Warn("record visit", zap.String("url", u.String()), zap.Error(err))
	}
}

// Back re-displays the previous history entry without pushing a new one.
// It reports false when there is no earlier entry.
func (c *Controller) Back() (bool, error) {
	return c.travel((*history.Stack).Back)
}

// Forward re-displays the next history entry.
func (c *Controller) Forward() (bool, error) {
	return c.travel((*history.Stack).Forward)
}

func (c *Controller) travel(step func(*history.Stack) (*url.URL, bool)) (bool, error) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.readyLocked(); err != nil {
		return false, err
	}
	u, ok := step(c.hist)
	if !ok {
		return false, nil
	}
	for _, f := range c.opts.Fields {
		c.commits.Cancel(string(f))
	}
	c.syncInputsLocked(u)
	c.refreshLocked(u)
	return true, nil
}

// syncInputsLocked makes the inputs and sort markers outside the refreshed
// regions match the query of u.
func (c *Controller) syncInputsLocked(u *url.URL) {
	st := query.FromURL(u)
	for _, f := range c.opts.Fields {
		if c.doc.InputKind(f) == page.NoInput {
			continue
		}
		c.doc.SetValue(f, st.Filter(f))
		c.states[f] = Idle
	}
	s, err := st.Sort()
	if err != nil {
		s = query.Sort{}
	}
	c.doc.SetActiveSort(s)
}
