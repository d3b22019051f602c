package vtable

import (
	"fmt"

	"go.uber.org/zap"
)

// Frame is what a renderer needs for one paint: the materialized rows, where
// to put them, and whether the container is in motion.
type Frame[T any] struct {
	Window
	Rows      []T
	RowCount  int
	ScrollTop float64
	Scrolling bool
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	clock      Clock
	log        *zap.Logger
	onSettle   func()
	dumpWindow bool
}

// WithClock replaces the clock driving the quiescence timer.
func WithClock(c Clock) Option {
	return func(o *engineOptions) { o.clock = c }
}

// WithLogger attaches a logger. The engine logs under the "window" name.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) { o.log = l }
}

// WithSettleHook is called after every Scrolling→Idle transition. It runs on
// the timer goroutine; hosts with an event loop should forward it there.
func WithSettleHook(f func()) Option {
	return func(o *engineOptions) { o.onSettle = f }
}

// WithWindowDump logs every recomputed window at debug level.
func WithWindowDump(on bool) Option {
	return func(o *engineOptions) { o.dumpWindow = on }
}

// Engine ties the scroll tracker, geometry and slicer together. It holds the
// caller's row slice by reference and recomputes the window synchronously on
// every scroll, resize and collection replacement.
//
// Engine methods are meant to be called from a single event loop. Only the
// settle hook arrives from elsewhere.
type Engine[T any] struct {
	cfg     Config
	rows    []T
	window  Window
	tracker *Tracker
	log     *zap.Logger
	dump    bool
}

// New validates cfg and returns an engine with no rows at offset 0.
func New[T any](cfg Config, opts ...Option) (*Engine[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	o := engineOptions{clock: SystemClock, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	e := &Engine[T]{
		cfg:     cfg,
		tracker: NewTracker(cfg.Quiescence, o.clock, o.onSettle),
		log:     o.log.Named("window"),
		dump:    o.dumpWindow,
	}
	e.recompute("init")
	return e, nil
}

// SetRows replaces the backing collection. The window is recomputed at once
// against the unchanged scroll offset.
func (e *Engine[T]) SetRows(rows []T) Frame[T] {
	e.rows = rows
	e.recompute("rows")
	return e.Frame()
}

// Rows returns the current backing collection.
func (e *Engine[T]) Rows() []T {
	return e.rows
}

// Scroll applies a scroll-position event. Every event is applied; the window
// always reflects the latest offset.
func (e *Engine[T]) Scroll(top float64) Frame[T] {
	if !(top > 0) {
		top = 0
	}
	e.tracker.Scroll(top)
	e.recompute("scroll")
	return e.Frame()
}

// ScrollBy scrolls relative to the current offset, clamped to the content.
func (e *Engine[T]) ScrollBy(delta float64) Frame[T] {
	return e.Scroll(e.clamp(e.tracker.ScrollTop() + delta))
}

// ScrollToRow scrolls so row i is at the top of the viewport, as far as the
// content allows.
func (e *Engine[T]) ScrollToRow(i int) Frame[T] {
	return e.Scroll(e.clamp(float64(i) * e.cfg.RowHeight))
}

// Reposition moves the offset without a scroll event, for example to pull a
// container back inside shorter content. The motion state is unchanged.
func (e *Engine[T]) Reposition(top float64) Frame[T] {
	if !(top > 0) {
		top = 0
	}
	e.tracker.Set(top)
	e.recompute("reposition")
	return e.Frame()
}

// ClampScroll repositions the offset into [0, MaxScrollTop] if it has fallen
// outside, as a browser does when content shrinks under it.
func (e *Engine[T]) ClampScroll() Frame[T] {
	top := e.tracker.ScrollTop()
	if c := e.clamp(top); c != top {
		return e.Reposition(c)
	}
	return e.Frame()
}

// Resize changes the viewport height and recomputes through the same path as
// a scroll event.
func (e *Engine[T]) Resize(viewportHeight float64) (Frame[T], error) {
	cfg := e.cfg
	cfg.ViewportHeight = viewportHeight
	if err := cfg.Validate(); err != nil {
		return e.Frame(), fmt.Errorf("resize: %w", err)
	}
	e.cfg = cfg
	e.recompute("resize")
	return e.Frame(), nil
}

// Config returns the active configuration.
func (e *Engine[T]) Config() Config {
	return e.cfg
}

// Window returns the last computed window.
func (e *Engine[T]) Window() Window {
	return e.window
}

// ScrollTop returns the latest applied offset.
func (e *Engine[T]) ScrollTop() float64 {
	return e.tracker.ScrollTop()
}

// MaxScrollTop returns the largest offset the current content allows.
func (e *Engine[T]) MaxScrollTop() float64 {
	return MaxScrollTop(len(e.rows), e.cfg.RowHeight, e.cfg.ViewportHeight)
}

// Scrolling reports the advisory motion state.
func (e *Engine[T]) Scrolling() bool {
	return e.tracker.Scrolling()
}

// Frame assembles the output for the renderer from the current state.
func (e *Engine[T]) Frame() Frame[T] {
	return Frame[T]{
		Window:    e.window,
		Rows:      Slice(e.rows, e.window),
		RowCount:  len(e.rows),
		ScrollTop: e.tracker.ScrollTop(),
		Scrolling: e.tracker.Scrolling(),
	}
}

// Close stops the quiescence timer and detaches the tracker.
func (e *Engine[T]) Close() {
	e.tracker.Close()
}

func (e *Engine[T]) clamp(top float64) float64 {
	return ClampScrollTop(top, len(e.rows), e.cfg.RowHeight, e.cfg.ViewportHeight)
}

func (e *Engine[T]) recompute(cause string) {
	top := e.tracker.ScrollTop()
	e.window = ComputeWindow(len(e.rows), e.cfg.RowHeight, e.cfg.ViewportHeight, top, e.cfg.BufferSize)

	if e.dump {
		e.log.Debug("window",
			zap.String("cause", cause),
			zap.Float64("scroll_top", top),
			zap.Int("rows", len(e.rows)),
			zap.Int("start", e.window.Start),
			zap.Int("end", e.window.End),
			zap.Float64("offset_y", e.window.OffsetY),
			zap.Float64("content_height", e.window.ContentHeight),
		)
	}
	if n := e.window.Len(); n > e.cfg.MaxWindowLen() {
		e.log.Warn("window larger than expected", zap.Int("len", n), zap.Int("max", e.cfg.MaxWindowLen()))
	}
}
