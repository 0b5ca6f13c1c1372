package pachinko

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Renderer receives a snapshot after every frame.
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Snapshot)

func (f RendererFunc) Render(s Snapshot) { f(s) }

var (
	ErrLoopStopped    = errors.New("loop stopped")
	ErrLoopNotStarted = errors.New("loop not started")
	ErrLoopStarted    = errors.New("loop already started")
)

// LoopConfig tunes the scheduling of a Loop. Zero values fall back to defaults.
type LoopConfig struct {
	FrameInterval  time.Duration // display cadence; defaults to TickDuration
	ChargeInterval time.Duration // charge timer cadence; defaults to ChargeInterval
	Renderer       Renderer
	OnOutcome      func(Outcome) // called on the loop goroutine for every resolved flight
}

// intents consumed by the loop goroutine
type (
	configureIntent struct {
		balls int
		reply chan error
	}
	pressIntent struct {
		reply chan error
	}
	releaseIntent struct {
		reply chan error
	}
	snapshotIntent struct {
		reply chan Snapshot
	}
	historyIntent struct {
		reply chan []Resolution
	}
)

// Loop is the single owner of a Session. Host input, the charge timer and the frame
// timer are all funneled into one goroutine, so session state is never touched
// concurrently. Callbacks (Renderer, OnOutcome, the session's finish callback) run on
// that goroutine and must not call back into the Loop synchronously.
type Loop struct {
	session *Session
	cfg     LoopConfig

	inbox chan any
	quit  chan struct{}
	done  chan struct{}

	started  atomic.Bool
	stopOnce sync.Once
}

// NewLoop wraps session. The loop does nothing until Start.
func NewLoop(session *Session, cfg LoopConfig) *Loop {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = TickDuration
	}
	if cfg.ChargeInterval <= 0 {
		cfg.ChargeInterval = ChargeInterval
	}
	return &Loop{
		session: session,
		cfg:     cfg,
		inbox:   make(chan any, 64),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the loop goroutine. Cancelling ctx has the same effect as Stop.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopStarted
	}
	go l.run(ctx)
	return nil
}

// Stop cancels both timers and waits for the loop goroutine to exit. It is safe to
// call more than once and before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	if l.started.CompareAndSwap(false, true) {
		// never started: nothing to wait for
		close(l.done)
		return
	}
	<-l.done
}

// Done is closed once the loop has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Configure sets the ball total.
func (l *Loop) Configure(balls int) error {
	reply := make(chan error, 1)
	if err := l.send(configureIntent{balls: balls, reply: reply}); err != nil {
		return err
	}
	return l.awaitErr(reply)
}

// Press starts charging the launcher.
func (l *Loop) Press() error {
	reply := make(chan error, 1)
	if err := l.send(pressIntent{reply: reply}); err != nil {
		return err
	}
	return l.awaitErr(reply)
}

// Release launches a ball with the power accumulated up to the last charge tick.
func (l *Loop) Release() error {
	reply := make(chan error, 1)
	if err := l.send(releaseIntent{reply: reply}); err != nil {
		return err
	}
	return l.awaitErr(reply)
}

// Snapshot returns the current render state.
func (l *Loop) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := l.send(snapshotIntent{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-l.done:
		return Snapshot{}, ErrLoopStopped
	}
}

// History returns per-ball resolutions so far.
func (l *Loop) History() ([]Resolution, error) {
	reply := make(chan []Resolution, 1)
	if err := l.send(historyIntent{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case h := <-reply:
		return h, nil
	case <-l.done:
		return nil, ErrLoopStopped
	}
}

func (l *Loop) send(intent any) error {
	if !l.started.Load() {
		return ErrLoopNotStarted
	}
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.inbox <- intent:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

func (l *Loop) awaitErr(reply chan error) error {
	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrLoopStopped
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	frame := time.NewTicker(l.cfg.FrameInterval)
	defer frame.Stop()

	var charge *time.Ticker
	var chargeC <-chan time.Time
	syncCharge := func() {
		switch {
		case l.session.Charging() && charge == nil:
			charge = time.NewTicker(l.cfg.ChargeInterval)
			chargeC = charge.C
		case !l.session.Charging() && charge != nil:
			charge.Stop()
			charge, chargeC = nil, nil
		}
	}
	defer func() {
		if charge != nil {
			charge.Stop()
		}
	}()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case intent := <-l.inbox:
			l.handle(intent)
			syncCharge()
		case <-chargeC:
			l.session.ChargeTick()
		case now := <-frame.C:
			elapsed := now.Sub(last)
			last = now
			for _, out := range l.session.Frame(elapsed) {
				if l.cfg.OnOutcome != nil {
					l.cfg.OnOutcome(out)
				}
			}
			if l.cfg.Renderer != nil {
				l.cfg.Renderer.Render(l.session.Snapshot())
			}
		}
	}
}

func (l *Loop) handle(intent any) {
	switch in := intent.(type) {
	case configureIntent:
		in.reply <- l.session.Configure(in.balls)
	case pressIntent:
		in.reply <- l.session.Press()
	case releaseIntent:
		in.reply <- l.session.Release()
	case snapshotIntent:
		in.reply <- l.session.Snapshot()
	case historyIntent:
		in.reply <- l.session.History()
	}
}
