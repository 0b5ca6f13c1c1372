package pachinko

import "time"

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Tick           uint64 `json:"tick" msgpack:"tick"`
	Status         Status `json:"status" msgpack:"status"`
	Ball           Ball   `json:"ball" msgpack:"ball"`
	Score          int    `json:"score" msgpack:"score"`
	Multiplier     int    `json:"multiplier" msgpack:"multiplier"`
	BallsRemaining int    `json:"balls_remaining" msgpack:"balls_remaining"`
	TotalBalls     int    `json:"total_balls" msgpack:"total_balls"`
	Power          int    `json:"power" msgpack:"power"`
	Charging       bool   `json:"charging" msgpack:"charging"`
	FinishPending  bool   `json:"finish_pending" msgpack:"finish_pending"`
	Board          *Board `json:"board,omitempty" msgpack:"board,omitempty"`
}

// Session is the complete state of one pachinko game. It is not safe for concurrent
// use; Loop serializes access to it.
type Session struct {
	board    *Board
	physics  *PhysicsEngine
	launcher Launcher
	scorer   *Scorer
	ball     Ball

	tick        uint64
	accumulator time.Duration
	finishDelay int
	finishIn    int // ticks until Finished; 0 when no finish is pending

	onFinished func(finalScore int)
	reported   bool
}

// NewSession creates a session on board. onFinished, if set, is called exactly once
// with the final score when the session reaches Finished.
func NewSession(board *Board, onFinished func(finalScore int)) *Session {
	return &Session{
		board:       board,
		physics:     NewPhysicsEngine(board),
		scorer:      NewScorer(),
		finishDelay: FinishDelayTicks,
		onFinished:  onFinished,
	}
}

// SetFinishDelay overrides how many ticks pass between the last resolution and Finished.
func (s *Session) SetFinishDelay(ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	s.finishDelay = ticks
}

func (s *Session) Board() *Board { return s.board }
func (s *Session) Status() Status { return s.scorer.Status }
func (s *Session) Scorer() Scorer { return *s.scorer }
func (s *Session) Ball() Ball { return s.ball }
func (s *Session) Launcher() Launcher { return s.launcher }

// Configure seeds the ball total. Only valid while configuring.
func (s *Session) Configure(totalBalls int) error {
	return s.scorer.Configure(totalBalls)
}

// Press starts charging. It is rejected whenever a launch would be.
func (s *Session) Press() error {
	if err := s.canLaunch(); err != nil {
		return err
	}
	s.launcher.StartCharge()
	return nil
}

// ChargeTick advances the launcher by one charge step.
func (s *Session) ChargeTick() {
	s.launcher.Tick()
}

// Charging reports whether the launch input is held.
func (s *Session) Charging() bool {
	return s.launcher.Charging
}

// Release launches a ball with the current power. A release without a prior press
// launches at zero power.
func (s *Session) Release() error {
	if err := s.canLaunch(); err != nil {
		return err
	}
	if err := s.scorer.ConsumeBall(); err != nil {
		return err
	}
	s.ball = s.launcher.Release(s.board.LaunchOrigin())
	return nil
}

func (s *Session) canLaunch() error {
	if s.ball.Active {
		return ErrBallInFlight
	}
	return s.scorer.CanLaunch()
}

// Step runs one fixed simulation tick. Physics only runs while a ball is in flight;
// otherwise the tick only advances a pending finish.
func (s *Session) Step() Outcome {
	s.tick++

	if s.scorer.Status == StatusBallInFlight {
		out := s.physics.Step(&s.ball)
		switch out.Kind {
		case OutcomeCapture:
			s.scorer.Capture(out.Bucket)
		case OutcomeMiss:
			s.scorer.Miss()
		}
		if out.Kind != OutcomeNone && s.scorer.Exhausted() {
			s.finishIn = s.finishDelay
			if s.finishIn == 0 {
				s.finish()
			}
		}
		return out
	}

	if s.finishIn > 0 {
		s.finishIn--
		if s.finishIn == 0 {
			s.finish()
		}
	}
	return Outcome{}
}

// Frame feeds wall-clock time into the fixed-step accumulator and runs as many whole
// ticks as fit, up to MaxTicksPerFrame. Time beyond that is dropped. Resolved flights
// are returned in order.
func (s *Session) Frame(elapsed time.Duration) []Outcome {
	if elapsed > 0 {
		s.accumulator += elapsed
	}
	var outcomes []Outcome
	for n := 0; s.accumulator >= TickDuration; n++ {
		if n == MaxTicksPerFrame {
			s.accumulator = 0
			break
		}
		s.accumulator -= TickDuration
		if out := s.Step(); out.Kind != OutcomeNone {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes
}

// Advance runs exactly n ticks and returns resolved flights.
func (s *Session) Advance(n int) []Outcome {
	var outcomes []Outcome
	for i := 0; i < n; i++ {
		if out := s.Step(); out.Kind != OutcomeNone {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes
}

// FinishNow skips the rest of a pending finish delay. It reports whether this call
// finished the session; sessions with balls still to play are left alone.
func (s *Session) FinishNow() bool {
	if s.finishIn == 0 || s.reported {
		return false
	}
	s.finish()
	return s.reported
}

func (s *Session) finish() {
	s.finishIn = 0
	if !s.scorer.Finish() || s.reported {
		return
	}
	s.reported = true
	if s.onFinished != nil {
		s.onFinished(s.scorer.Score)
	}
}

// Snapshot captures the current render state. The board is shared, not copied.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Tick:           s.tick,
		Status:         s.scorer.Status,
		Ball:           s.ball,
		Score:          s.scorer.Score,
		Multiplier:     s.scorer.Multiplier,
		BallsRemaining: s.scorer.BallsRemaining,
		TotalBalls:     s.scorer.TotalBalls,
		Power:          s.launcher.Power,
		Charging:       s.launcher.Charging,
		FinishPending:  s.finishIn > 0,
		Board:          s.board,
	}
}

// History returns a copy of the per-ball resolutions so far.
func (s *Session) History() []Resolution {
	out := make([]Resolution, len(s.scorer.History))
	copy(out, s.scorer.History)
	return out
}
