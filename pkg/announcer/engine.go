// Package announcer keeps track of the focused location inside the session and
// announces it on request.
//
// All state of an Engine is owned by the goroutine executing Engine.Run. Every
// public method hands a job over to this goroutine and waits for it; change
// notifications of the session graph and timers only enqueue work.
package announcer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/blaubaer/clip-announcer/pkg/common"
	"github.com/blaubaer/clip-announcer/pkg/lom"
	"github.com/blaubaer/clip-announcer/pkg/metrics"
	"github.com/blaubaer/clip-announcer/pkg/session"
	"github.com/blaubaer/clip-announcer/pkg/summary"
)

var (
	ErrViewUnavailable = errors.New("session view unavailable")
	ErrDebounced       = errors.New("announce skipped (debounce)")
	ErrStopped         = errors.New("engine stopped")
)

// observedViewProperties are the properties of the view which cause a
// refresh. highlighted_clip_slot is not observable at the host.
var observedViewProperties = []string{"selected_track", "selected_scene"}

// Outlet receives everything the Engine produces.
type Outlet interface {
	// Speak is called with the text of every accepted announce request.
	Speak(text string)
	// StateChanged is called whenever a refresh produced a State with a new
	// signature.
	StateChanged(state session.State, summary string)
}

// Entry is one accepted announcement.
type Entry struct {
	At   time.Time    `json:"at"`
	Kind summary.Kind `json:"kind"`
	Text string       `json:"text"`
}

func NewEngine(conf Configuration, graph lom.Graph, outlet Outlet) *Engine {
	result := &Engine{
		conf:     conf,
		graph:    graph,
		outlet:   outlet,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,

		jobs:        make(chan func(), 16),
		viewChanged: make(chan struct{}, 1),
		done:        make(chan struct{}),

		history: common.NewRing[Entry](conf.HistorySize),
	}
	result.scheduler = scheduler{
		delay:     conf.RefreshDelay,
		afterFunc: realAfterFunc,
		fire:      result.onTimer,
	}
	return result
}

type Engine struct {
	conf     Configuration
	graph    lom.Graph
	outlet   Outlet
	recorder metrics.Recorder
	now      func() time.Time

	jobs        chan func()
	viewChanged chan struct{}
	done        chan struct{}

	// Everything below is owned by the loop of Run.

	ctx           context.Context
	builder       *session.Builder
	cancels       []lom.Cancel
	unboundLogged bool
	scheduler     scheduler
	state         *session.State
	lastSignature session.Signature
	cooldownUntil time.Time
	history       *common.Ring[Entry]
}

// WithRecorder has to be called before Run.
func (this *Engine) WithRecorder(v metrics.Recorder) *Engine {
	if v == nil {
		v = metrics.NoopRecorder{}
	}
	this.recorder = v
	return this
}

// WithClock replaces the clock used for the announce debounce. It has to be
// called before Run.
func (this *Engine) WithClock(now func() time.Time) *Engine {
	this.now = now
	return this
}

// Run binds to the session view and executes all work of this Engine until
// ctx is done. It must only be called once.
func (this *Engine) Run(ctx context.Context) error {
	this.ctx = ctx
	defer close(this.done)
	defer this.teardown()

	this.execute(func() {
		_ = this.initialize(ctx)
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug("Announcer loop interrupted.")
			return nil
		case job := <-this.jobs:
			this.execute(job)
		case <-this.viewChanged:
			this.execute(this.scheduler.arm)
		}
	}
}

// Done is closed after Run returned.
func (this *Engine) Done() <-chan struct{} {
	return this.done
}

// Init drops the current binding to the session view and binds again.
func (this *Engine) Init(ctx context.Context) error {
	var err error
	if sErr := this.submit(ctx, func() {
		this.unbind()
		err = this.initialize(ctx)
	}); sErr != nil {
		return sErr
	}
	return err
}

// Refresh rebuilds the State right now.
func (this *Engine) Refresh(ctx context.Context) error {
	var err error
	if sErr := this.submit(ctx, func() {
		err = this.refresh(ctx)
	}); sErr != nil {
		return sErr
	}
	return err
}

// Announce rebuilds the State and hands the text of the requested kind to the
// Outlet. Requests within the announce debounce are rejected with
// ErrDebounced. An unchanged State is announced anyway.
func (this *Engine) Announce(ctx context.Context, kind summary.Kind) (string, error) {
	var text string
	var err error
	if sErr := this.submit(ctx, func() {
		text, err = this.announce(ctx, kind)
	}); sErr != nil {
		return "", sErr
	}
	return text, err
}

// DumpState rebuilds the State and returns it.
func (this *Engine) DumpState(ctx context.Context) (session.State, error) {
	var result session.State
	var err error
	if sErr := this.submit(ctx, func() {
		if err = this.refresh(ctx); err != nil {
			return
		}
		result = *this.state
		log.With("state", result.String()).
			Info("State dumped.")
	}); sErr != nil {
		return session.State{}, sErr
	}
	return result, err
}

// History returns the remembered announcements, the oldest first.
func (this *Engine) History(ctx context.Context) ([]Entry, error) {
	var result []Entry
	if err := this.submit(ctx, func() {
		result = this.history.Values()
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (this *Engine) submit(ctx context.Context, job func()) error {
	finished := make(chan struct{})
	var jobErr error
	wrapped := func() {
		defer close(finished)
		defer common.RecoverPanic("executing announcer request", &jobErr)
		job()
	}

	select {
	case this.jobs <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-this.done:
		return ErrStopped
	}

	select {
	case <-finished:
		return jobErr
	case <-ctx.Done():
		return ctx.Err()
	case <-this.done:
		select {
		case <-finished:
			return jobErr
		default:
			return ErrStopped
		}
	}
}

func (this *Engine) post(job func()) {
	select {
	case this.jobs <- job:
	case <-this.done:
	}
}

func (this *Engine) execute(job func()) {
	defer common.RecoverPanic("executing announcer job", nil)
	job()
}

func (this *Engine) onViewChanged() {
	this.recorder.IncViewChange()
	select {
	case this.viewChanged <- struct{}{}:
	default:
	}
}

func (this *Engine) onTimer(generation uint64) {
	this.post(func() {
		if !this.scheduler.fired(generation) {
			return
		}
		this.recorder.IncScheduledRefresh()
		_ = this.refresh(this.ctx)
	})
}

func (this *Engine) initialize(ctx context.Context) error {
	if err := this.bind(ctx); err != nil {
		return err
	}
	log.Info("Announcer initialized.")
	return this.refresh(ctx)
}

func (this *Engine) bind(ctx context.Context) error {
	view, err := this.graph.ByPath(ctx, lom.PathView)
	if err == nil && !lom.HasObjectId(view) {
		err = lom.ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrViewUnavailable, err)
		if !this.unboundLogged {
			this.unboundLogged = true
			log.WithError(err).
				Error("Unable to bind to the session view. Retrying with the next request.")
		}
		return err
	}
	this.unboundLogged = false

	liveSet, err := this.graph.ByPath(ctx, lom.PathLiveSet)
	if err != nil {
		log.WithError(err).
			Warn("Cannot resolve the live set; positions will be derived from paths only.")
	}

	for _, property := range observedViewProperties {
		cancel, err := this.graph.Observe(ctx, view, property, this.onViewChanged)
		if err != nil {
			log.With("property", property).
				WithError(err).
				Warn("Cannot observe the session view.")
			continue
		}
		this.cancels = append(this.cancels, cancel)
	}

	this.builder = &session.Builder{
		Graph:   this.graph,
		LiveSet: liveSet,
		View:    view,
	}
	return nil
}

func (this *Engine) unbind() {
	for _, cancel := range this.cancels {
		cancel()
	}
	this.cancels = nil
	this.builder = nil
}

func (this *Engine) teardown() {
	this.scheduler.cancel()
	this.unbind()
}

func (this *Engine) refresh(ctx context.Context) error {
	if this.builder == nil {
		if err := this.bind(ctx); err != nil {
			return err
		}
	}

	started := time.Now()
	next := this.builder.Build(ctx)
	this.state = &next

	signature := next.Signature()
	changed := signature != this.lastSignature
	if changed {
		this.lastSignature = signature
		text := summary.Full(next)
		log.With("state", next.String()).
			Info("State changed.")
		log.With("summary", text).
			Info("Summary.")
		this.outlet.StateChanged(next, text)
	}
	this.recorder.ObserveRefreshDuration(time.Since(started), changed)

	return nil
}

func (this *Engine) announce(ctx context.Context, kind summary.Kind) (string, error) {
	now := this.now()
	if now.Before(this.cooldownUntil) {
		log.With("kind", kind).
			Info("Announce skipped (debounce).")
		this.recorder.IncAnnounce(kind.String(), metrics.ResultDebounced)
		return "", ErrDebounced
	}
	this.cooldownUntil = now.Add(this.conf.AnnounceDebounce)

	if err := this.refresh(ctx); err != nil || this.state == nil {
		log.With("kind", kind).
			WithError(err).
			Error("Announce aborted: state unavailable.")
		this.recorder.IncAnnounce(kind.String(), metrics.ResultUnavailable)
		if err == nil {
			err = ErrViewUnavailable
		}
		return "", err
	}

	text := kind.Format(*this.state)
	log.With("kind", kind).
		With("summary", text).
		Info("Announce.")
	this.history.Add(Entry{At: now, Kind: kind, Text: text})
	this.recorder.IncAnnounce(kind.String(), metrics.ResultAnnounced)
	this.outlet.Speak(text)

	return text, nil
}
