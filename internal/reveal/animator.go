// Package reveal animates text onto the screen one character at a time.
package reveal

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultInterval is the tick period at 1x speed.
	DefaultInterval = 20 * time.Millisecond
	// MinInterval bounds the tick period from below at any speed.
	MinInterval = 5 * time.Millisecond

	MinSpeed = 0.25
	MaxSpeed = 3.0
)

// Clock creates tickers. It is the seam tests use to drive the animation.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

type systemTicker struct{ t *time.Ticker }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// SystemClock returns a Clock backed by time.Ticker.
func SystemClock() Clock { return systemClock{} }

// ClampSpeed limits a playback speed factor to [MinSpeed, MaxSpeed].
// Non-positive values mean 1x.
func ClampSpeed(speed float64) float64 {
	if speed <= 0 {
		return 1
	}
	return min(max(speed, MinSpeed), MaxSpeed)
}

// Interval derives the tick period from a base period and a speed factor.
func Interval(base time.Duration, speed float64) time.Duration {
	if base <= 0 {
		base = DefaultInterval
	}
	d := time.Duration(float64(base) / ClampSpeed(speed))
	if d < MinInterval {
		return MinInterval
	}
	return d
}

// State is the visible reveal state. Revealed is a prefix of Full.
type State struct {
	Full      string
	Revealed  string
	Revealing bool
}

// Frame is emitted after every tick. Done is set on the frame that
// completes the reveal.
type Frame struct {
	State
	Seq  uint64
	Done bool
}

// Animator reveals the unseen suffix of a target text, one rune per tick,
// on a single ticker.
//
// The frame callback runs on the animator's goroutine and must not call
// Reveal, Restore, Reset, SetSpeed or Stop.
type Animator struct {
	clock   Clock
	onFrame func(Frame)

	// ctl serializes control operations so only one ticker ever runs.
	ctl sync.Mutex

	mu        sync.Mutex
	base      time.Duration
	speed     float64
	full      []rune
	shown     int
	revealing bool
	seq       uint64
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates an Animator. A nil clock means SystemClock; a nil onFrame
// discards frames.
func New(clock Clock, base time.Duration, onFrame func(Frame)) *Animator {
	if clock == nil {
		clock = SystemClock()
	}
	if onFrame == nil {
		onFrame = func(Frame) {}
	}
	if base <= 0 {
		base = DefaultInterval
	}
	return &Animator{clock: clock, onFrame: onFrame, base: base, speed: 1}
}

// State returns a snapshot of the reveal state.
func (a *Animator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *Animator) stateLocked() State {
	return State{
		Full:      string(a.full),
		Revealed:  string(a.full[:a.shown]),
		Revealing: a.revealing,
	}
}

// Speed returns the current clamped speed factor.
func (a *Animator) Speed() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speed
}

// SetSpeed changes the playback speed. A running reveal continues from
// where it is at the new pace.
func (a *Animator) SetSpeed(speed float64) {
	a.ctl.Lock()
	defer a.ctl.Unlock()

	a.mu.Lock()
	a.speed = ClampSpeed(speed)
	running := a.revealing
	full := string(a.full)
	a.mu.Unlock()

	if running {
		a.stop()
		a.start(full)
	}
}

// Reveal animates full. When full extends the text already revealed only
// the new suffix is animated; otherwise the reveal restarts from empty.
// Any running reveal is cancelled first.
func (a *Animator) Reveal(full string) {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stop()
	a.start(full)
}

// Restore shows text immediately, without animating.
func (a *Animator) Restore(text string) {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.full = []rune(text)
	a.shown = len(a.full)
}

// Reset stops any reveal and clears the text.
func (a *Animator) Reset() {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.full = nil
	a.shown = 0
}

// Stop halts the running reveal, keeping what has been revealed so far.
// It is safe to call repeatedly; once it returns no more frames are emitted.
func (a *Animator) Stop() {
	a.ctl.Lock()
	defer a.ctl.Unlock()
	a.stop()
}

// stop must be called with ctl held.
func (a *Animator) stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.revealing = false
	a.seq++
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// start must be called with ctl held and no reveal running.
func (a *Animator) start(full string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	revealed := string(a.full[:a.shown])
	if !strings.HasPrefix(full, revealed) {
		a.shown = 0
	}
	a.full = []rune(full)
	if a.shown >= len(a.full) {
		return
	}

	a.revealing = true
	a.seq++
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel, a.done = cancel, done

	ticker := a.clock.NewTicker(Interval(a.base, a.speed))
	go a.run(ctx, a.seq, ticker, done)
}

func (a *Animator) run(ctx context.Context, seq uint64, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		frame, ok := a.advance(seq)
		if !ok {
			return
		}
		a.onFrame(frame)
		if frame.Done {
			a.detach(seq)
			return
		}
	}
}

// advance reveals one more rune if seq is still the live reveal.
func (a *Animator) advance(seq uint64) (Frame, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seq != seq || !a.revealing {
		return Frame{}, false
	}
	a.shown++
	done := a.shown >= len(a.full)
	if done {
		a.revealing = false
	}
	return Frame{State: a.stateLocked(), Seq: seq, Done: done}, true
}

// detach forgets a reveal that finished on its own so the next control
// operation does not wait on it.
func (a *Animator) detach(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seq == seq {
		a.cancel = nil
		a.done = nil
	}
}
