package engine

import "time"

// DefaultFrameRate is the frame rate used when none is configured.
const DefaultFrameRate = 60

// Scheduler delivers frames, the role a host's animation-frame primitive
// plays in a browser.
type Scheduler interface {
	// RequestFrame arranges for fn to run once, at the next frame, with the
	// frame timestamp. fn must not be called before RequestFrame returns.
	// The returned cancel function prevents a pending fn from running.
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// IntervalScheduler delivers a frame every Interval.
type IntervalScheduler struct {
	Interval time.Duration
}

// NewIntervalScheduler returns a scheduler running at hz frames per
// second. Non-positive rates select DefaultFrameRate.
func NewIntervalScheduler(hz int) *IntervalScheduler {
	if hz <= 0 {
		hz = DefaultFrameRate
	}
	return &IntervalScheduler{Interval: time.Second / time.Duration(hz)}
}

// RequestFrame runs fn on its own goroutine after one interval.
func (s *IntervalScheduler) RequestFrame(fn func(now time.Time)) func() {
	t := time.AfterFunc(s.Interval, func() { fn(time.Now()) })
	return func() { t.Stop() }
}
