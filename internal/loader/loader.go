package loader

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/samvad-hq/newsfeed/internal/domain"
	"github.com/samvad-hq/newsfeed/internal/logger"
	"github.com/samvad-hq/newsfeed/internal/metrics"
	"github.com/samvad-hq/newsfeed/pkg/newsapi"
)

// State is the loader lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateDelivered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Outcome is the terminal result of one load cycle. A partial decode is delivered:
// Items holds what parsed and Err has Kind KindPartial.
type Outcome struct {
	Items      []domain.NewsItem
	Err        *LoadError
	Generation uint64
}

// Failed reports whether the outcome is a failure rather than a (possibly partial) delivery.
func (o Outcome) Failed() bool {
	return o.Err != nil && o.Err.Kind != KindPartial
}

func (o Outcome) resultLabel() string {
	switch {
	case o.Err == nil:
		return "delivered"
	default:
		return o.Err.Kind.String()
	}
}

// Option customizes a Loader.
type Option func(*Loader)

// WithDispatcher routes consumer deliveries through d.
func WithDispatcher(d Dispatcher) Option {
	return func(l *Loader) {
		if d != nil {
			l.dispatch = d
		}
	}
}

// WithLogger sets the loader's logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) { l.log = logger.Ensure(log) }
}

// WithContext sets the parent context of every load cycle.
func WithContext(ctx context.Context) Option {
	return func(l *Loader) {
		if ctx != nil {
			l.baseCtx = ctx
		}
	}
}

// Loader runs fetch and decode off the caller's goroutine, caches the last outcome and
// delivers it to the attached consumer. At most one load cycle is in flight.
type Loader struct {
	fetcher  Fetcher
	decoder  Decoder
	dispatch Dispatcher
	log      logger.Logger
	baseCtx  context.Context

	// deliverMu serializes consumer callbacks against Reset, Attach and Detach.
	deliverMu sync.Mutex

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	outcome  *Outcome
	consumer Consumer

	wg sync.WaitGroup
}

// New builds a Loader over the given pipeline stages.
func New(fetcher Fetcher, decoder Decoder, opts ...Option) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		decoder:  decoder,
		dispatch: inlineDispatcher,
		log:      logger.NopLogger{},
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins a load cycle for cfg against baseURL. It returns false without doing
// anything when a cycle is already loading; Reset first to force a new fetch.
func (l *Loader) Start(cfg domain.LoaderConfig, baseURL string) bool {
	l.mu.Lock()
	if l.state == StateLoading {
		gen := l.gen
		l.mu.Unlock()
		l.log.DebugObj("load already in flight", "loader_state", map[string]any{"generation": gen})
		return false
	}

	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(l.baseCtx)
	l.cancel = cancel
	l.state = StateLoading
	l.outcome = nil
	l.wg.Add(1)
	l.mu.Unlock()

	req := newsapi.BuildRequest(cfg, baseURL)
	metrics.LoadsStarted.Inc()
	l.log.InfoObj("load started", "loader_state", map[string]any{
		"generation": gen,
		"page_size":  newsapi.ClampPageSize(cfg.PageSize),
		"order_by":   cfg.SortOrder.String(),
	})

	go l.run(ctx, cancel, gen, req)
	return true
}

// Reset cancels any in-flight cycle, drops the cached outcome and returns to idle.
// A cancelled cycle is never delivered. Reset waits for a callback already running.
func (l *Loader) Reset() {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	prev := l.state
	l.state = StateIdle
	l.outcome = nil
	consumer := l.consumer
	l.mu.Unlock()

	l.log.DebugObj("loader reset", "loader_state", map[string]any{"previous_state": prev.String()})
	if consumer != nil {
		consumer.OnReset()
	}
}

// Attach makes c eligible for deliveries. A cached outcome is delivered to c right away.
func (l *Loader) Attach(c Consumer) {
	if c == nil {
		l.Detach()
		return
	}

	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	l.consumer = c
	var cached *Outcome
	if l.outcome != nil {
		cp := *l.outcome
		cached = &cp
	}
	l.mu.Unlock()

	if cached != nil {
		deliver(c, *cached)
	}
}

// Detach stops deliveries. Outcomes completing while detached are cached only.
// Once Detach returns the previous consumer receives no further callbacks.
func (l *Loader) Detach() {
	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	l.consumer = nil
	l.mu.Unlock()
}

// State returns the current lifecycle state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Outcome returns the cached outcome of the last completed cycle, if any.
func (l *Loader) Outcome() (Outcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcome == nil {
		return Outcome{}, false
	}
	return *l.outcome, true
}

// Wait blocks until every started worker has exited.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close resets the loader, detaches the consumer and waits for workers.
func (l *Loader) Close() {
	l.Reset()
	l.Detach()
	l.Wait()
}

func (l *Loader) run(ctx context.Context, cancel context.CancelFunc, gen uint64, req newsapi.Request) {
	defer l.wg.Done()

	out := l.execute(ctx, req)
	out.Generation = gen
	cancelled := ctx.Err() != nil
	cancel()

	if cancelled {
		// parent context cancelled without a Reset: nothing is delivered, go back to idle
		l.mu.Lock()
		if gen == l.gen && l.state == StateLoading {
			l.state = StateIdle
			l.cancel = nil
		}
		l.mu.Unlock()
		l.discard(gen, "cancelled")
		return
	}
	l.dispatch(func() { l.complete(gen, out) })
}

// execute runs the pipeline. Every failure, including a panic, becomes a LoadError.
func (l *Loader) execute(ctx context.Context, req newsapi.Request) (out Outcome) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			out = Outcome{Err: &LoadError{
				Kind:    KindMalformed,
				Message: "news pipeline panicked",
				Err:     fmt.Errorf("%v", r),
			}}
		}
	}()

	body, err := l.fetcher.Fetch(ctx, req)
	if err != nil {
		return Outcome{Err: classify(err)}
	}

	items, err := l.decoder.Decode(body)
	if err != nil {
		loadErr := classify(err)
		if loadErr.Kind == KindPartial {
			return Outcome{Items: items, Err: loadErr}
		}
		return Outcome{Err: loadErr}
	}
	return Outcome{Items: items}
}

// complete caches out and delivers it if gen is still current. The state moves to
// Delivered/Failed only after the consumer callback has returned.
func (l *Loader) complete(gen uint64, out Outcome) {
	l.mu.Lock()
	current := gen == l.gen && l.state == StateLoading
	attached := l.consumer != nil
	l.mu.Unlock()
	if !current {
		l.discard(gen, "stale")
		return
	}

	l.logOutcome(out, attached)

	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	// generation and consumer are read again: Reset or Detach may have run since the first check
	l.mu.Lock()
	if gen != l.gen || l.state != StateLoading {
		l.mu.Unlock()
		l.discard(gen, "stale")
		return
	}
	cached := out
	l.outcome = &cached
	consumer := l.consumer
	l.mu.Unlock()

	if consumer != nil {
		deliver(consumer, out)
	}

	l.mu.Lock()
	if gen == l.gen && l.state == StateLoading {
		if out.Failed() {
			l.state = StateFailed
		} else {
			l.state = StateDelivered
		}
	}
	l.mu.Unlock()
}

func (l *Loader) discard(gen uint64, reason string) {
	metrics.StaleCompletions.Inc()
	l.log.DebugObj("load result discarded", "loader_discard", map[string]any{
		"generation": gen,
		"reason":     reason,
	})
}

func (l *Loader) logOutcome(out Outcome, attached bool) {
	metrics.LoadOutcomes.WithLabelValues(out.resultLabel()).Inc()
	fields := map[string]any{
		"generation": out.Generation,
		"items":      len(out.Items),
		"attached":   attached,
	}
	if out.Err != nil {
		fields["kind"] = out.Err.Kind.String()
		fields["error"] = out.Err.Error()
	}

	switch {
	case out.Failed():
		l.log.WarnObj("load failed", "loader_outcome", fields)
	case out.Err != nil:
		l.log.WarnObj("load delivered with dropped articles", "loader_outcome", fields)
	default:
		l.log.InfoObj("load delivered", "loader_outcome", fields)
	}
}

// deliver invokes exactly one consumer callback for out.
func deliver(c Consumer, out Outcome) {
	if out.Failed() {
		c.OnError(out.Err)
		return
	}
	metrics.ItemsDelivered.Add(float64(len(out.Items)))
	c.OnResult(slices.Clone(out.Items))
}
