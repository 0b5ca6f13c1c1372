package pachinko

import (
	"errors"
	"testing"
	"time"
)

// dropInto places the in-flight ball at rest above x and runs ticks until it resolves.
func dropInto(t *testing.T, s *Session, x float64) Outcome {
	t.Helper()
	s.ball = Ball{Position: NewVec2(x, 435), Active: true}
	for i := 0; i < 200; i++ {
		if out := s.Step(); out.Kind != OutcomeNone {
			return out
		}
	}
	t.Fatalf("ball dropped at x=%.1f never resolved", x)
	return Outcome{}
}

func TestTwoBallSessionScoresAndFinishesOnce(t *testing.T) {
	var calls []int
	s := NewSession(MustDefaultBoard(), func(score int) { calls = append(calls, score) })
	if err := s.scorer.Load(2); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if out := dropInto(t, s, 140); out.Kind != OutcomeCapture || out.Bucket.Score != 100 {
		t.Fatalf("first ball = %+v, want capture of 100", out)
	}
	if sc := s.Scorer(); sc.Score != 100 || sc.Multiplier != 2 || sc.Status != StatusReady {
		t.Fatalf("after first ball: %+v", sc)
	}

	if err := s.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if out := dropInto(t, s, 38); out.Kind != OutcomeCapture || out.Bucket.Score != 10 {
		t.Fatalf("second ball = %+v, want capture of 10", out)
	}
	if sc := s.Scorer(); sc.Score != 120 || sc.Multiplier != 1 {
		t.Fatalf("after second ball: %+v", sc)
	}

	s.Advance(FinishDelayTicks - 1)
	if s.Status() == StatusFinished {
		t.Fatal("session finished before the delay elapsed")
	}
	if !s.Snapshot().FinishPending {
		t.Error("snapshot should report a pending finish")
	}

	s.Advance(1)
	if s.Status() != StatusFinished {
		t.Fatalf("status = %s, want FINISHED", s.Status())
	}
	if len(calls) != 1 || calls[0] != 120 {
		t.Fatalf("finish callback calls = %v, want [120]", calls)
	}

	if err := s.Press(); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("Press after finish: err = %v, want ErrSessionFinished", err)
	}
	if err := s.Release(); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("Release after finish: err = %v, want ErrSessionFinished", err)
	}
	s.Advance(100)
	if len(calls) != 1 {
		t.Errorf("finish callback fired %d times", len(calls))
	}
	if s.Scorer().Score != 120 {
		t.Errorf("score changed after finish: %d", s.Scorer().Score)
	}
}

func TestFinishAfterMiss(t *testing.T) {
	finished := 0
	s := NewSession(MustDefaultBoard(), func(int) { finished++ })
	s.SetFinishDelay(0)
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Release(); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
		if out := dropInto(t, s, 300); out.Kind != OutcomeMiss {
			t.Fatalf("ball %d = %s, want miss", i, out.Kind)
		}
	}
	if s.Status() != StatusFinished || finished != 1 {
		t.Errorf("status = %s, finished = %d; want FINISHED once", s.Status(), finished)
	}
	if s.Scorer().Score != 0 {
		t.Errorf("score = %d, want 0", s.Scorer().Score)
	}
	if h := s.History(); len(h) != 3 || h[2].Ball != 3 {
		t.Errorf("history = %+v", h)
	}
}

func TestFinishNow(t *testing.T) {
	finished := 0
	s := NewSession(MustDefaultBoard(), func(int) { finished++ })
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if s.FinishNow() {
		t.Fatal("FinishNow ended a session with balls left")
	}

	for i := 0; i < 3; i++ {
		if err := s.Release(); err != nil {
			t.Fatalf("Release %d: %v", i, err)
		}
		dropInto(t, s, 300)
	}
	if !s.Snapshot().FinishPending || s.Status() == StatusFinished {
		t.Fatalf("expected a pending finish, got %+v", s.Snapshot())
	}

	if !s.FinishNow() {
		t.Fatal("FinishNow should finish a pending session")
	}
	if s.Status() != StatusFinished || finished != 1 {
		t.Errorf("status = %s, finished = %d; want FINISHED once", s.Status(), finished)
	}
	if s.FinishNow() {
		t.Error("second FinishNow should report false")
	}
	s.Advance(FinishDelayTicks * 2)
	if finished != 1 {
		t.Errorf("finish callback fired %d times", finished)
	}
}

func TestPressAndReleaseRejectedWhileInFlight(t *testing.T) {
	s := NewSession(MustDefaultBoard(), nil)
	if err := s.Press(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Press while configuring: err = %v, want ErrNotReady", err)
	}
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if err := s.Press(); err != nil {
		t.Fatalf("Press: %v", err)
	}
	for i := 0; i < 5; i++ {
		s.ChargeTick()
	}
	if err := s.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if want := LaunchVelocity(5 * PowerStep); s.Ball().Velocity != want {
		t.Errorf("launch velocity = %+v, want %+v", s.Ball().Velocity, want)
	}

	before := s.Snapshot()
	if err := s.Press(); !errors.Is(err, ErrBallInFlight) {
		t.Errorf("Press in flight: err = %v, want ErrBallInFlight", err)
	}
	if err := s.Release(); !errors.Is(err, ErrBallInFlight) {
		t.Errorf("Release in flight: err = %v, want ErrBallInFlight", err)
	}
	after := s.Snapshot()
	if after.BallsRemaining != before.BallsRemaining || after.Charging {
		t.Errorf("rejected input changed state: before %+v after %+v", before, after)
	}
}

func TestReleaseWithoutPressLaunchesAtZeroPower(t *testing.T) {
	s := NewSession(MustDefaultBoard(), nil)
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if s.Ball().Velocity != LaunchVelocity(0) {
		t.Errorf("velocity = %+v, want %+v", s.Ball().Velocity, LaunchVelocity(0))
	}
	if s.Status() != StatusBallInFlight {
		t.Errorf("status = %s, want BALL_IN_FLIGHT", s.Status())
	}
}

func TestFrameAccumulator(t *testing.T) {
	s := NewSession(MustDefaultBoard(), nil)

	s.Frame(TickDuration / 2)
	if s.tick != 0 {
		t.Fatalf("half a tick advanced the simulation to %d", s.tick)
	}
	s.Frame(TickDuration / 2)
	if s.tick != 1 {
		t.Fatalf("tick = %d after a full tick of time, want 1", s.tick)
	}

	s.Frame(10 * TickDuration)
	if s.tick != 1+MaxTicksPerFrame {
		t.Errorf("tick = %d after a long stall, want %d", s.tick, 1+MaxTicksPerFrame)
	}
	if s.accumulator != 0 {
		t.Errorf("excess time kept: %v", s.accumulator)
	}

	s.Frame(-time.Second)
	if s.accumulator != 0 {
		t.Errorf("negative elapsed changed accumulator to %v", s.accumulator)
	}
}

func TestIdleTicksLeaveStateAlone(t *testing.T) {
	s := NewSession(MustDefaultBoard(), nil)
	if err := s.Configure(5); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	before := s.Snapshot()
	s.Advance(120)
	after := s.Snapshot()
	if after.Tick != before.Tick+120 {
		t.Errorf("tick = %d, want %d", after.Tick, before.Tick+120)
	}
	after.Tick = before.Tick
	if after != before {
		t.Errorf("idle ticks changed state: %+v -> %+v", before, after)
	}
}
