// Package engine drives per-frame update callbacks.
//
// An Engine asks its Scheduler for one frame at a time and, on every frame,
// calls each registered callback with the seconds elapsed since the
// previous frame. App pairs an Engine with the objects of a scene.
//
//	e := engine.New(engine.WithFrameRate(30))
//	e.OnUpdate(func(dt float64) { angle += speed * dt })
//	e.Start()
//	defer e.Stop()
package engine

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the frame source.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithFrameRate uses an IntervalScheduler at hz frames per second.
func WithFrameRate(hz int) Option {
	return func(e *Engine) {
		e.sched = NewIntervalScheduler(hz)
	}
}

// WithClock sets the clock used to timestamp Start.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine broadcasts frame updates to registered callbacks.
// It is safe for concurrent use.
type Engine struct {
	sched  Scheduler
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	callbacks []func(dt float64)
	running   bool
	gen       uint64 // incremented by Start; frames from older runs are dropped
	last      time.Time
	cancel    func()
	frames    uint64
}

// New creates a stopped Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		sched:  NewIntervalScheduler(DefaultFrameRate),
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnUpdate registers fn to be called once per frame with the elapsed
// seconds since the previous frame. Nil callbacks are ignored.
func (e *Engine) OnUpdate(fn func(dt float64)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.callbacks = append(e.callbacks, fn)
	e.mu.Unlock()
}

// Start begins delivering frames. The first frame's elapsed time is
// measured from the call to Start. Starting a running Engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.gen++
	e.last = e.now()
	e.requestLocked(e.gen)
	e.logger.Debug("engine: started", "callbacks", len(e.callbacks))
}

// Stop halts future callbacks. A frame already being delivered completes.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.logger.Debug("engine: stopped", "frames", e.frames)
}

// Running reports whether the Engine is started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Frames returns the number of frames delivered so far.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *Engine) requestLocked(gen uint64) {
	e.cancel = e.sched.RequestFrame(func(now time.Time) { e.frame(gen, now) })
}

func (e *Engine) frame(gen uint64, now time.Time) {
	e.mu.Lock()
	if !e.running || gen != e.gen {
		e.mu.Unlock()
		return
	}
	dt := now.Sub(e.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	e.last = now
	e.frames++
	callbacks := slices.Clone(e.callbacks)
	e.mu.Unlock()

	for _, fn := range callbacks {
		fn(dt)
	}

	e.mu.Lock()
	if e.running && gen == e.gen {
		e.requestLocked(gen)
	}
	e.mu.Unlock()
}
