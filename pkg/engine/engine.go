// Package engine coordinates the window store, the pagination strategy, the
// placeholder generator, and a transport into one virtual list. It owns the
// two load paths: explicit jumps (scroll-to-index) and boundary loads driven
// by scroll proximity to the edge of loaded data.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/longlist/pkg/config"
	"github.com/vanderheijden86/longlist/pkg/debug"
	"github.com/vanderheijden86/longlist/pkg/metrics"
	"github.com/vanderheijden86/longlist/pkg/model"
	"github.com/vanderheijden86/longlist/pkg/paginate"
	"github.com/vanderheijden86/longlist/pkg/placeholder"
	"github.com/vanderheijden86/longlist/pkg/transport"
	"github.com/vanderheijden86/longlist/pkg/viewport"
	"github.com/vanderheijden86/longlist/pkg/watcher"
	"github.com/vanderheijden86/longlist/pkg/window"
)

// jumpCoalesceWindow is how long two jumps to the same target count as one.
const jumpCoalesceWindow = 100 * time.Millisecond

// coldStartTicks is how many initial scroll ticks the boundary detector
// ignores, so layout jitter during startup cannot trigger loads.
const coldStartTicks = 2

// RenderFunc receives the visible slice and the pixel position of each entry.
// Invoked after every merge, settle, and scroll tick; may be called from
// multiple goroutines but never concurrently.
type RenderFunc func(items []model.Item, positions []viewport.Position)

// Option configures an Engine at construction.
type Option func(*Engine)

// WithRender sets the render collaborator.
func WithRender(fn RenderFunc) Option {
	return func(e *Engine) { e.render = fn }
}

// WithOnError sets a callback for asynchronous failures (jump aborts,
// boundary load errors). Synchronous invariant violations are returned
// directly and never reported here.
func WithOnError(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// WithAnimationEstimate holds a settling jump in progress for the expected
// scroll animation duration before the trailing viewport update runs.
func WithAnimationEstimate(d time.Duration) Option {
	return func(e *Engine) { e.animate = d }
}

// Engine is one virtual list: a bounded window of loaded records over an
// arbitrarily large remote dataset.
type Engine struct {
	opts      config.Options
	store     *window.Store
	strategy  paginate.Strategy
	transport transport.Transport
	transform model.Transform
	gen       *placeholder.Generator
	render    RenderFunc
	onError   func(error)
	animate   time.Duration

	mu           sync.Mutex
	jump         *JumpOperation
	pending      *int64
	lastTarget   int64
	lastTargetAt time.Time
	ticks        int64
	closed       bool

	failedMu sync.Mutex
	failed   map[int64]struct{}

	boundaryMu      sync.Mutex
	boundaryForward bool
	boundaryBack    bool

	renderMu sync.Mutex
	settle   *watcher.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an engine. A nil transform uses model.DefaultTransform. The
// cursor strategy forces id dedup regardless of options, since overlapping
// cursor batches are routine.
func New(opts config.Options, strat paginate.Strategy, tr transport.Transport, eopts ...Option) *Engine {
	opts.Normalize()
	dedupe := opts.DedupeItems || strat.Kind() == paginate.KindCursor
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:      opts,
		store:     window.NewStore(dedupe),
		strategy:  strat,
		transport: tr,
		transform: model.DefaultTransform,
		gen:       placeholder.NewGenerator(),
		failed:    make(map[int64]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	e.settle = watcher.NewDebouncer(opts.SettleDebounce)
	for _, o := range eopts {
		o(e)
	}
	return e
}

// SetTransform replaces the record transform. Must be called before any load.
func (e *Engine) SetTransform(t model.Transform) {
	if t != nil {
		e.transform = t
	}
}

// Store exposes the window store for read access.
func (e *Engine) Store() *window.Store {
	return e.store
}

// Snapshot returns the current window state.
func (e *Engine) Snapshot() window.Snapshot {
	return e.store.Snapshot()
}

// JumpState reports the phase of the in-flight jump, or JumpIdle.
func (e *Engine) JumpState() JumpState {
	e.mu.Lock()
	op := e.jump
	e.mu.Unlock()
	if op == nil {
		return JumpIdle
	}
	return op.State()
}

// SetViewport records the container extent and refreshes the visible slice.
func (e *Engine) SetViewport(container int64) {
	e.store.SetScroll(e.store.Scroll(), container)
	e.refreshVisible()
}

// ScrollToIndex jumps the window to an arbitrary index. Duplicate targets
// within the coalesce window fold into the in-flight operation; a different
// target supersedes it and runs once it finishes. Negative targets fail
// synchronously without touching state.
func (e *Engine) ScrollToIndex(target int64) error {
	if target < 0 {
		return ErrNegativeIndex
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if cur := e.jump; cur != nil {
		if cur.Target == target && time.Since(cur.StartedAt) < jumpCoalesceWindow {
			e.mu.Unlock()
			debug.Log("jump to %d coalesced into in-flight operation", target)
			return nil
		}
		t := target
		e.pending = &t
		cur.Supersede()
		curTarget := cur.Target
		e.mu.Unlock()
		debug.Log("jump to %d deferred behind in-flight jump to %d", target, curTarget)
		return nil
	}
	if e.lastTarget == target && time.Since(e.lastTargetAt) < jumpCoalesceWindow {
		e.mu.Unlock()
		debug.Log("jump to %d coalesced with just-finished operation", target)
		return nil
	}
	op := newJumpOperation(target)
	e.jump = op
	// Add while holding the lock so Close cannot observe a drained group and
	// return before this jump is tracked.
	e.wg.Add(1)
	e.mu.Unlock()

	go e.runJump(op)
	return nil
}

func (e *Engine) container() int64 {
	return e.store.Snapshot().ContainerExtent
}

func (e *Engine) runJump(op *JumpOperation) {
	defer e.wg.Done()
	doneCritical := metrics.Timer(metrics.JumpCritical)

	desired := viewport.WindowAround(op.Target, e.container(), e.opts.ItemExtent, e.opts.Overscan)
	if desired.Empty() {
		desired = viewport.Range{Start: op.Target, End: op.Target + int64(e.opts.PageSize)}
	}
	reqs, err := e.strategy.PlanFetch(desired)
	if err != nil {
		e.finishJump(op, err)
		return
	}

	op.setState(JumpFetching)

	responses := make([]paginate.Response, len(reqs))
	g, ctx := errgroup.WithContext(e.ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			page, err := e.read(ctx, req)
			if err != nil {
				e.strategy.Abandon(req)
				return &TransportError{Req: req, Err: err}
			}
			responses[i] = paginate.Response{
				Req:   req,
				Items: e.transformAll(page.Items),
				Meta:  page.Meta,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Abort: nothing merged, stored items and hasMore stand as they were.
		e.finishJump(op, err)
		return
	}
	doneCritical()

	e.applyResponses(responses, op.Target)

	op.setState(JumpSettling)
	if !op.Superseded() {
		e.store.SetScroll(op.Target*e.opts.ItemExtent, e.container())
		if e.animate > 0 {
			select {
			case <-time.After(e.animate):
			case <-e.ctx.Done():
			}
		}
		// Trailing update against the actual settled position.
		e.refreshVisible()
	} else {
		debug.Log("jump to %d superseded, merged without scrolling", op.Target)
		e.refreshVisible()
	}

	e.finishJump(op, nil)
	e.prefetchMargins(desired)
}

// applyResponses merges resolved fetches, authoritative one first so a
// Replace cannot discard sibling batches merged before it.
func (e *Engine) applyResponses(responses []paginate.Response, target int64) {
	defer metrics.Timer(metrics.MergeApply)()

	auth := -1
	for i := range responses {
		if requestCovers(responses[i].Req, target) {
			responses[i].Authoritative = true
			auth = i
			break
		}
	}
	if auth >= 0 {
		if err := e.strategy.ApplyResponse(e.store, responses[auth]); err != nil {
			debug.Log("apply authoritative response failed: %v", err)
		}
	}
	for i := range responses {
		if i == auth {
			continue
		}
		if err := e.strategy.ApplyResponse(e.store, responses[i]); err != nil {
			debug.Log("apply response failed: %v", err)
		}
	}
}

// requestCovers reports whether a fetch request's record range contains the
// given index. Cursor requests never do; a cursor jump degrades to a plain
// next-batch load.
func requestCovers(req model.FetchRequest, index int64) bool {
	switch {
	case req.Page > 0:
		start := int64(req.Page-1) * int64(req.Size)
		return index >= start && index < start+int64(req.Size)
	case req.Cursor != "":
		return false
	default:
		return index >= req.Offset && index < req.Offset+int64(req.Size)
	}
}

func (e *Engine) finishJump(op *JumpOperation, err error) {
	if err != nil {
		op.fail(err)
		debug.Log("jump to %d aborted: %v", op.Target, err)
		if e.onError != nil {
			e.onError(err)
		}
	} else {
		op.setState(JumpIdle)
	}

	e.mu.Lock()
	if e.jump == op {
		e.jump = nil
		e.lastTarget = op.Target
		e.lastTargetAt = time.Now()
	}
	var next *int64
	if e.pending != nil && !e.closed {
		next = e.pending
		e.pending = nil
	}
	e.mu.Unlock()

	if next != nil {
		e.ScrollToIndex(*next)
	}
}

// prefetchMargins loads batches around the just-fetched window: sequential,
// throttled, fire-and-forget. Errors are logged and swallowed.
func (e *Engine) prefetchMargins(win viewport.Range) {
	before, after := e.opts.PrefetchBefore, e.opts.PrefetchAfter
	if before == 0 && after == 0 {
		return
	}
	batch := int64(e.opts.PageSize)

	var ranges []viewport.Range
	for i := 1; i <= before; i++ {
		start := win.Start - int64(i)*batch
		end := start + batch
		if end <= 0 {
			break
		}
		if start < 0 {
			start = 0
		}
		ranges = append(ranges, viewport.Range{Start: start, End: end})
	}
	for i := 0; i < after; i++ {
		start := win.End + int64(i)*batch
		ranges = append(ranges, viewport.Range{Start: start, End: start + batch})
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for _, r := range ranges {
			select {
			case <-e.ctx.Done():
				return
			case <-time.After(e.opts.PrefetchDelay):
			}
			if len(e.store.Missing(r)) == 0 {
				continue
			}
			reqs, err := e.strategy.PlanFetch(r)
			if err != nil {
				debug.Log("prefetch plan for %v skipped: %v", r, err)
				continue
			}
			for _, req := range reqs {
				done := metrics.Timer(metrics.PrefetchRead)
				page, err := e.transport.Read(e.ctx, req)
				done()
				if err != nil {
					e.strategy.Abandon(req)
					debug.Log("prefetch read failed (%s): %v", req, err)
					continue
				}
				res := paginate.Response{Req: req, Items: e.transformAll(page.Items), Meta: page.Meta}
				if err := e.strategy.ApplyResponse(e.store, res); err != nil {
					debug.Log("prefetch apply failed: %v", err)
				}
			}
		}
		e.refreshVisible()
	}()
}

// OnScrollTick records a new scroll position, refreshes the visible slice,
// runs the boundary detector, and arms the settle debouncer.
func (e *Engine) OnScrollTick(scroll int64) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.ticks++
	ticks := e.ticks
	jumping := e.jump != nil
	e.mu.Unlock()

	e.store.SetScroll(scroll, e.container())
	e.refreshVisible()

	if !jumping && ticks > coldStartTicks {
		e.maybeBoundaryLoad(scroll)
	}

	e.settle.Trigger(e.onSettle)
}

// onSettle fires after scrolling has been quiet for the debounce window. If
// the viewport landed outside loaded data, the settle becomes a jump.
func (e *Engine) onSettle() {
	snap := e.store.Snapshot()
	if e.opts.ItemExtent <= 0 || snap.ContainerExtent <= 0 {
		return
	}
	visible := viewport.ComputeVisibleRange(snap.ScrollPosition, snap.ContainerExtent,
		e.opts.ItemExtent, e.opts.Overscan, snap.LoadedSpan)
	if !visible.Empty() {
		return
	}
	target := snap.ScrollPosition / e.opts.ItemExtent
	debug.Log("scroll settled outside loaded span, jumping to %d", target)
	if err := e.ScrollToIndex(target); err != nil {
		debug.Log("settle jump rejected: %v", err)
	}
}

// maybeBoundaryLoad extends the loaded span when the viewport nears either
// edge. One forward and one backward load may be in flight at a time; a jump
// in progress suppresses the detector entirely.
func (e *Engine) maybeBoundaryLoad(scroll int64) {
	snap := e.store.Snapshot()
	span := snap.LoadedSpan
	if span.Empty() || snap.ContainerExtent <= 0 {
		return
	}
	if snap.LoadedCount == 0 {
		return
	}
	// Cold-start guard: until two pages exist, edge loads fire only once the
	// user has actually scrolled, so startup layout cannot trigger them.
	if span.Len() < 2*int64(e.opts.PageSize) && scroll == 0 {
		return
	}

	threshold := int64(float64(snap.ContainerExtent) * e.opts.LoadThresholdFraction)
	if pagePx := int64(e.opts.PageSize) * e.opts.ItemExtent; threshold > pagePx {
		threshold = pagePx
	}

	endPx := span.End * e.opts.ItemExtent
	if snap.HasMore && endPx-(scroll+snap.ContainerExtent) <= threshold {
		e.boundaryLoad(viewport.Range{Start: span.End, End: span.End + int64(e.opts.PageSize)}, true)
	}

	startPx := span.Start * e.opts.ItemExtent
	if span.Start > 0 && scroll-startPx <= threshold {
		start := span.Start - int64(e.opts.PageSize)
		if start < 0 {
			start = 0
		}
		e.boundaryLoad(viewport.Range{Start: start, End: span.Start}, false)
	}
}

func (e *Engine) boundaryLoad(r viewport.Range, forward bool) {
	e.boundaryMu.Lock()
	busy := e.boundaryForward
	if !forward {
		busy = e.boundaryBack
	}
	if busy {
		e.boundaryMu.Unlock()
		return
	}
	if forward {
		e.boundaryForward = true
	} else {
		e.boundaryBack = true
	}
	e.boundaryMu.Unlock()

	clearBusy := func() {
		e.boundaryMu.Lock()
		if forward {
			e.boundaryForward = false
		} else {
			e.boundaryBack = false
		}
		e.boundaryMu.Unlock()
	}

	// A scroll tick can reach here after Close started waiting; re-check
	// under the lock so the goroutine is tracked before Wait can return.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		clearBusy()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer clearBusy()
		defer metrics.Timer(metrics.BoundaryLoad)()

		// A jump that started after the detector fired wins the tie.
		e.mu.Lock()
		jumping := e.jump != nil
		e.mu.Unlock()
		if jumping {
			debug.Log("boundary load for %v suppressed by active jump", r)
			return
		}

		reqs, err := e.strategy.PlanFetch(r)
		if err != nil {
			debug.Log("boundary plan for %v skipped: %v", r, err)
			return
		}
		for _, req := range reqs {
			page, err := e.read(e.ctx, req)
			if err != nil {
				e.strategy.Abandon(req)
				debug.Log("boundary read failed (%s): %v", req, err)
				if e.onError != nil {
					e.onError(&TransportError{Req: req, Err: err})
				}
				return
			}
			res := paginate.Response{Req: req, Items: e.transformAll(page.Items), Meta: page.Meta}
			if err := e.strategy.ApplyResponse(e.store, res); err != nil {
				debug.Log("boundary apply failed: %v", err)
			}
		}
		e.refreshVisible()
	}()
}

func (e *Engine) read(ctx context.Context, req model.FetchRequest) (model.Page, error) {
	done := metrics.Timer(metrics.FetchRead)
	start := time.Now()
	page, err := e.transport.Read(ctx, req)
	done()
	if err == nil {
		metrics.FetchLatency.Record(time.Since(start))
	}
	return page, err
}

// transformAll runs the caller's transform over one batch. A panic or error
// is isolated to the offending record: it is dropped from the merge and its
// index remembered so rendering can show an error placeholder.
func (e *Engine) transformAll(raw []model.RawItem) []model.Item {
	items := make([]model.Item, 0, len(raw))
	for _, r := range raw {
		it, err := e.safeTransform(r)
		if err != nil {
			debug.Log("%v", &TransformError{RawID: r.ID, Err: err})
			e.rememberFailed(r.ID)
			continue
		}
		items = append(items, it)
		e.forgetFailed(it.Index())
	}
	return items
}

func (e *Engine) safeTransform(r model.RawItem) (it model.Item, err error) {
	defer metrics.Timer(metrics.TransformRecord)()
	defer func() {
		if p := recover(); p != nil {
			err = &TransformError{RawID: r.ID, Err: panicError(p)}
		}
	}()
	return e.transform(r)
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}

func (e *Engine) rememberFailed(rawID string) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return
	}
	e.failedMu.Lock()
	e.failed[id-1] = struct{}{}
	e.failedMu.Unlock()
}

func (e *Engine) forgetFailed(index int64) {
	e.failedMu.Lock()
	delete(e.failed, index)
	e.failedMu.Unlock()
}

func (e *Engine) isFailed(index int64) bool {
	e.failedMu.Lock()
	defer e.failedMu.Unlock()
	_, ok := e.failed[index]
	return ok
}

// refreshVisible recomputes the visible range from the current scroll state
// and invokes the render collaborator.
func (e *Engine) refreshVisible() {
	snap := e.store.Snapshot()
	r := viewport.ComputeVisibleRange(snap.ScrollPosition, snap.ContainerExtent,
		e.opts.ItemExtent, e.opts.Overscan, snap.LoadedSpan)
	e.store.SetVisibleRange(r)
	e.renderNow()
}

// renderNow assembles the visible slice, filling gaps with placeholders. A
// viewport entirely outside loaded data renders synthesized placeholders for
// the window around the scroll position instead of going blank.
func (e *Engine) renderNow() {
	if e.render == nil {
		return
	}
	e.renderMu.Lock()
	defer e.renderMu.Unlock()
	defer metrics.Timer(metrics.RenderSlice)()

	snap := e.store.Snapshot()
	r := snap.VisibleRange
	if r.Empty() && snap.ContainerExtent > 0 && e.opts.ItemExtent > 0 {
		idx := snap.ScrollPosition / e.opts.ItemExtent
		r = viewport.WindowAround(idx, snap.ContainerExtent, e.opts.ItemExtent, e.opts.Overscan)
		if snap.TotalAuth && snap.Total >= 0 {
			r = r.Intersect(viewport.Range{Start: 0, End: snap.Total})
		}
	}
	if r.Empty() {
		e.render(nil, nil)
		return
	}

	items := make([]model.Item, 0, r.Len())
	for i := r.Start; i < r.End; i++ {
		if it, ok := e.store.Get(i + 1); ok {
			items = append(items, it)
			continue
		}
		if e.isFailed(i) {
			items = append(items, placeholder.ErrorFor(i))
			continue
		}
		items = append(items, e.gen.Generate(i))
	}
	e.gen.Observe(items)
	e.render(items, viewport.Positions(r, e.opts.ItemExtent))
}

// Refresh re-renders from current state. Used after external data changes.
func (e *Engine) Refresh() {
	e.refreshVisible()
}

// MarkDataChanged demotes the total to an estimate and re-renders; called
// when the backing dataset changed underneath the engine.
func (e *Engine) MarkDataChanged() {
	e.store.MarkTotalDirty()
	e.refreshVisible()
}

// Close cancels in-flight work and waits for it to drain. The transport is
// not closed; the caller owns it.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.pending = nil
	e.mu.Unlock()

	e.settle.Cancel()
	e.cancel()
	e.wg.Wait()
	return nil
}
