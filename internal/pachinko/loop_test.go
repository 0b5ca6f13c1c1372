package pachinko

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastLoop(s *Session, r Renderer) *Loop {
	return NewLoop(s, LoopConfig{
		FrameInterval:  time.Millisecond,
		ChargeInterval: time.Millisecond,
		Renderer:       r,
	})
}

func TestLoopLifecycle(t *testing.T) {
	l := fastLoop(NewSession(MustDefaultBoard(), nil), nil)

	if err := l.Configure(3); !errors.Is(err, ErrLoopNotStarted) {
		t.Errorf("Configure before Start: err = %v, want ErrLoopNotStarted", err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(context.Background()); !errors.Is(err, ErrLoopStarted) {
		t.Errorf("second Start: err = %v, want ErrLoopStarted", err)
	}

	l.Stop()
	l.Stop()

	select {
	case <-l.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	if err := l.Press(); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Press after Stop: err = %v, want ErrLoopStopped", err)
	}
	if _, err := l.Snapshot(); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Snapshot after Stop: err = %v, want ErrLoopStopped", err)
	}
}

func TestLoopStopBeforeStart(t *testing.T) {
	l := fastLoop(NewSession(MustDefaultBoard(), nil), nil)
	l.Stop()

	if err := l.Start(context.Background()); !errors.Is(err, ErrLoopStarted) {
		t.Errorf("Start after Stop: err = %v, want ErrLoopStarted", err)
	}
	if err := l.Configure(3); !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Configure after Stop: err = %v, want ErrLoopStopped", err)
	}
}

func TestLoopContextCancel(t *testing.T) {
	l := fastLoop(NewSession(MustDefaultBoard(), nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after context cancel")
	}
	l.Stop()
}

func TestLoopChargeAndRelease(t *testing.T) {
	l := fastLoop(NewSession(MustDefaultBoard(), nil), nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	if err := l.Configure(4); !errors.Is(err, ErrInvalidBallCount) {
		t.Errorf("Configure(4): err = %v, want ErrInvalidBallCount", err)
	}
	if err := l.Configure(5); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := l.Press(); err != nil {
		t.Fatalf("Press: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := l.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.Power > 0 && snap.Charging {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("charge timer never advanced power")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	snap, err := l.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Charging || snap.Power != 0 {
		t.Errorf("launcher not reset after release: power=%d charging=%v", snap.Power, snap.Charging)
	}
	if snap.BallsRemaining != 4 {
		t.Errorf("balls remaining = %d, want 4", snap.BallsRemaining)
	}
	if err := l.Release(); !errors.Is(err, ErrBallInFlight) {
		t.Errorf("Release in flight: err = %v, want ErrBallInFlight", err)
	}
}

func TestLoopFinishesOnceAndRenders(t *testing.T) {
	finished := make(chan int, 4)
	s := NewSession(MustDefaultBoard(), func(score int) { finished <- score })
	s.SetFinishDelay(0)
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	s.scorer.BallsRemaining = 1
	if err := s.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	s.ball = Ball{Position: NewVec2(140, 435), Active: true}

	frames := make(chan Snapshot, 1)
	l := fastLoop(s, RendererFunc(func(snap Snapshot) {
		select {
		case frames <- snap:
		default:
		}
	}))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer l.Stop()

	select {
	case score := <-finished:
		if score != 100 {
			t.Errorf("final score = %d, want 100", score)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session never finished")
	}

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Error("renderer never called")
	}

	if err := l.Press(); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("Press after finish: err = %v, want ErrSessionFinished", err)
	}
	h, err := l.History()
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h) != 1 || h[0].Earned != 100 {
		t.Errorf("history = %+v", h)
	}

	time.Sleep(20 * time.Millisecond)
	if len(finished) != 0 {
		t.Errorf("finish callback fired again")
	}
}
