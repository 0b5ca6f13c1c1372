package pachinko

import (
	"errors"
	"testing"
)

func bucket(id, score int) Bucket {
	return Bucket{ID: id, Score: score}
}

func TestConfigureBallCounts(t *testing.T) {
	for _, n := range AllowedBallCounts {
		s := NewScorer()
		if err := s.Configure(n); err != nil {
			t.Errorf("Configure(%d): %v", n, err)
		}
		if s.Status != StatusReady || s.BallsRemaining != n || s.TotalBalls != n {
			t.Errorf("Configure(%d) left %+v", n, s)
		}
	}

	for _, n := range []int{-1, 0, 4, 7, 100} {
		s := NewScorer()
		if err := s.Configure(n); !errors.Is(err, ErrInvalidBallCount) {
			t.Errorf("Configure(%d): err = %v, want ErrInvalidBallCount", n, err)
		}
		if s.Status != StatusConfiguring {
			t.Errorf("rejected Configure(%d) changed status to %s", n, s.Status)
		}
	}
}

func TestConfigureOnlyOnce(t *testing.T) {
	s := NewScorer()
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := s.Configure(5); !errors.Is(err, ErrNotConfiguring) {
		t.Errorf("second Configure: err = %v, want ErrNotConfiguring", err)
	}
	if s.TotalBalls != 3 {
		t.Errorf("total balls = %d, want 3", s.TotalBalls)
	}
}

func TestComboMultiplier(t *testing.T) {
	s := NewScorer()
	if err := s.Configure(5); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	steps := []struct {
		score    int
		earned   int
		nextMult int
	}{
		{score: 100, earned: 100, nextMult: 2},
		{score: 50, earned: 100, nextMult: 3},
		{score: 20, earned: 60, nextMult: 1},
		{score: 100, earned: 100, nextMult: 2},
	}
	total := 0
	for i, st := range steps {
		if err := s.ConsumeBall(); err != nil {
			t.Fatalf("step %d ConsumeBall: %v", i, err)
		}
		got := s.Capture(bucket(i, st.score))
		total += st.earned
		if got != st.earned {
			t.Errorf("step %d earned %d, want %d", i, got, st.earned)
		}
		if s.Multiplier != st.nextMult {
			t.Errorf("step %d multiplier = %d, want %d", i, s.Multiplier, st.nextMult)
		}
		if s.Score != total {
			t.Errorf("step %d score = %d, want %d", i, s.Score, total)
		}
	}

	if err := s.ConsumeBall(); err != nil {
		t.Fatalf("ConsumeBall: %v", err)
	}
	s.Miss()
	if s.Multiplier != 1 {
		t.Errorf("multiplier after miss = %d, want 1", s.Multiplier)
	}
	if s.Score != total {
		t.Errorf("miss changed score to %d", s.Score)
	}
	if !s.Exhausted() {
		t.Error("scorer should be exhausted after every ball resolved")
	}

	last := s.History[len(s.History)-1]
	if last.Outcome != "miss" || last.BucketID != -1 || last.Earned != 0 {
		t.Errorf("miss resolution = %+v", last)
	}
	if s.History[1].Multiplier != 2 {
		t.Errorf("second resolution recorded multiplier %d, want the applied 2", s.History[1].Multiplier)
	}
}

func TestLaunchRejections(t *testing.T) {
	s := NewScorer()
	if err := s.CanLaunch(); !errors.Is(err, ErrNotReady) {
		t.Errorf("launch while configuring: err = %v, want ErrNotReady", err)
	}

	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := s.ConsumeBall(); err != nil {
		t.Fatalf("ConsumeBall: %v", err)
	}
	if err := s.ConsumeBall(); !errors.Is(err, ErrBallInFlight) {
		t.Errorf("launch with ball in flight: err = %v, want ErrBallInFlight", err)
	}
	if s.BallsRemaining != 2 {
		t.Errorf("rejected launch consumed a ball: %d remaining", s.BallsRemaining)
	}

	s.Miss()
	s.BallsRemaining = 0
	if err := s.CanLaunch(); !errors.Is(err, ErrNoBallsLeft) {
		t.Errorf("launch with no balls: err = %v, want ErrNoBallsLeft", err)
	}

	s.Finish()
	if err := s.CanLaunch(); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("launch after finish: err = %v, want ErrSessionFinished", err)
	}
	if s.Finish() {
		t.Error("second Finish should report false")
	}
}

func TestCaptureIgnoredWithoutFlight(t *testing.T) {
	s := NewScorer()
	if err := s.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got := s.Capture(bucket(2, 100)); got != 0 {
		t.Errorf("capture without flight earned %d", got)
	}
	s.Miss()
	if s.Score != 0 || len(s.History) != 0 || s.Multiplier != 1 {
		t.Errorf("scorer changed without a flight: %+v", s)
	}
}
