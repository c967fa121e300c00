// Package scan owns the scan lifecycle: input validation, the single
// prediction request, and the ViewState every renderer draws from.
package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/presenter"
)

// Predictor is the part of predictor.Predictor the controller needs.
type Predictor interface {
	Predict(ctx context.Context, url string) (*model.PredictionResult, error)
}

type Option func(*Controller)

// WithRecorder journals every failed scan to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithID overrides the generated controller (session) ID.
func WithID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.id = id
		}
	}
}

// Controller is the per-session scan state machine.
//
// The state only changes through Submit/Start. A submission while a scan is
// in flight is ignored, so at most one request per controller is outstanding.
type Controller struct {
	id        string
	cfg       Config
	predictor Predictor
	recorder  Recorder
	logger    logging.Logger

	mu      sync.Mutex
	state   ViewState
	gen     uint64
	subs    map[int]chan ViewState
	nextSub int
	closed  bool

	// cancel aborts the scan in flight, if any.
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController returns a controller in the idle phase.
func NewController(cfg Config, p Predictor, logger logging.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultConfig().SubscriberBuffer
	}
	c := &Controller{
		id:        uuid.New().String(),
		cfg:       cfg,
		predictor: p,
		state:     idleState(),
		subs:      make(map[int]chan ViewState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.With(
		logging.Field{Key: "component", Value: "scan"},
		logging.Field{Key: "session", Value: c.id},
	)
	return c
}

// ID identifies the controller, and the session owning it.
func (c *Controller) ID() string { return c.id }

// State returns the current ViewState.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit runs one scan of rawURL to completion and returns the terminal
// state. While another scan is loading it returns the current state untouched.
func (c *Controller) Submit(ctx context.Context, rawURL string) ViewState {
	st, job, outcome := c.begin(ctx, rawURL)
	if outcome != outcomeStarted {
		return st
	}
	defer c.wg.Done()
	return c.run(job)
}

// Start validates rawURL and moves to loading like Submit, but completes the
// request in the background. The returned state is either the loading state,
// an input failure, or the unchanged current state when busy.
func (c *Controller) Start(ctx context.Context, rawURL string) ViewState {
	st, _ := c.TryStart(ctx, rawURL)
	return st
}

// TryStart is Start, reporting ErrBusy when the submission was ignored
// because a scan is already in flight or the controller is closed.
func (c *Controller) TryStart(ctx context.Context, rawURL string) (ViewState, error) {
	st, job, outcome := c.begin(ctx, rawURL)
	switch outcome {
	case outcomeIgnored:
		return st, ErrBusy
	case outcomeRejected:
		return st, nil
	}
	go func() {
		defer c.wg.Done()
		c.run(job)
	}()
	return st, nil
}

type beginOutcome int

const (
	outcomeIgnored beginOutcome = iota
	outcomeRejected
	outcomeStarted
)

type pending struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	raw     string
	url     string
	target  *Target
	started time.Time
}

func (c *Controller) begin(ctx context.Context, raw string) (ViewState, pending, beginOutcome) {
	c.mu.Lock()
	if c.closed || c.state.Busy() {
		st := c.state
		c.mu.Unlock()
		c.logger.Debug("submission ignored", logging.Field{Key: "phase", Value: string(st.Phase)})
		return st, pending{}, outcomeIgnored
	}

	c.gen++
	gen := c.gen
	c.setLocked(ViewState{Phase: PhaseValidating, URL: raw, Generation: gen})

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		st := c.setLocked(ViewState{
			Phase:        PhaseFailure,
			URL:          raw,
			Generation:   gen,
			ErrorMessage: MsgInvalidURL,
		})
		c.mu.Unlock()

		c.logger.Info("rejected scan input", logging.Field{Key: "error", Value: ErrEmptyURL.Error()})
		c.record(ctx, FailureRecord{
			SessionID:  c.id,
			Generation: gen,
			URL:        raw,
			Kind:       FailureInput,
			Detail:     ErrEmptyURL.Error(),
			At:         st.UpdatedAt,
		})
		return st, pending{}, outcomeRejected
	}

	job := pending{gen: gen, raw: raw, url: trimmed, target: ParseTarget(trimmed), started: time.Now()}
	job.ctx, job.cancel = context.WithCancel(ctx)
	c.cancel = job.cancel
	st := c.setLocked(ViewState{
		Phase:      PhaseLoading,
		URL:        raw,
		Generation: gen,
		Target:     job.target,
	})
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("scan started",
		logging.Field{Key: "url", Value: trimmed},
		logging.Field{Key: "generation", Value: gen})
	return st, job, outcomeStarted
}

func (c *Controller) run(job pending) ViewState {
	defer job.cancel()
	ctx := job.ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	res, err := c.predictor.Predict(ctx, job.url)
	if err == nil && res == nil {
		err = &predictor.RequestError{Kind: predictor.KindDecode, Err: errors.New("empty prediction")}
	}

	if err != nil {
		rec := failureFor(ctx, err)
		rec.SessionID = c.id
		rec.Generation = job.gen
		rec.URL = job.url

		st := c.complete(job.gen, ViewState{
			Phase:        PhaseFailure,
			URL:          job.raw,
			Generation:   job.gen,
			ErrorMessage: MsgScanFailed,
			Target:       job.target,
		})
		rec.At = st.UpdatedAt

		c.logger.Warn("scan failed",
			logging.Field{Key: "url", Value: job.url},
			logging.Field{Key: "kind", Value: string(rec.Kind)},
			logging.Field{Key: "status", Value: rec.StatusCode},
			logging.Field{Key: "error", Value: err.Error()},
			logging.Field{Key: "duration_ms", Value: time.Since(job.started).Milliseconds()})
		// The scan context may already be expired; the journal gets its own.
		c.record(context.WithoutCancel(ctx), rec)
		return st
	}

	view := presenter.Normalize(*res)
	st := c.complete(job.gen, ViewState{
		Phase:      PhaseSuccess,
		URL:        job.raw,
		Generation: job.gen,
		Result:     &view,
		Target:     job.target,
	})
	c.logger.Info("scan completed",
		logging.Field{Key: "url", Value: job.url},
		logging.Field{Key: "prediction", Value: res.Prediction},
		logging.Field{Key: "duration_ms", Value: time.Since(job.started).Milliseconds()})
	return st
}

// complete installs next unless a newer scan has started since gen was issued.
func (c *Controller) complete(gen uint64, next ViewState) ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("dropping stale scan result",
			logging.Field{Key: "generation", Value: gen},
			logging.Field{Key: "current", Value: c.gen})
		return c.state
	}
	return c.setLocked(next)
}

// setLocked replaces the state and fans it out. c.mu must be held.
func (c *Controller) setLocked(next ViewState) ViewState {
	next.UpdatedAt = time.Now().UTC()
	next.SubmitEnabled = !next.Busy()
	c.state = next
	for _, ch := range c.subs {
		offer(ch, next)
	}
	return next
}

// offer delivers st without blocking, evicting the oldest queued state if the
// subscriber has fallen behind.
func offer(ch chan ViewState, st ViewState) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

// Subscribe returns a channel that immediately yields the current state and
// then every subsequent state. The channel is closed by cancel or Close.
func (c *Controller) Subscribe() (<-chan ViewState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ViewState, c.cfg.SubscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close aborts the scan in flight, waits for it to settle and closes all
// subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) record(ctx context.Context, rec FailureRecord) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordFailure(ctx, rec); err != nil {
		c.logger.Warn("recording scan failure", logging.Field{Key: "error", Value: err.Error()})
	}
}

func failureFor(ctx context.Context, err error) FailureRecord {
	rec := FailureRecord{Detail: err.Error()}

	var re *predictor.RequestError
	if errors.As(err, &re) {
		rec.StatusCode = re.StatusCode
		switch re.Kind {
		case predictor.KindStatus:
			rec.Kind = FailureStatus
			if re.Body != "" {
				rec.Detail = re.Error() + ": " + re.Body
			}
		case predictor.KindTimeout:
			rec.Kind = FailureTimeout
		case predictor.KindDecode:
			rec.Kind = FailureDecode
		default:
			rec.Kind = FailureTransport
		}
	} else {
		rec.Kind = FailureTransport
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		rec.Kind = FailureTimeout
	}
	return rec
}
