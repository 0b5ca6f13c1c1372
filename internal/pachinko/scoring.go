package pachinko

import "errors"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusConfiguring  Status = "CONFIGURING"
	StatusReady        Status = "READY"
	StatusBallInFlight Status = "BALL_IN_FLIGHT"
	StatusFinished     Status = "FINISHED"
)

// Rejections. None of them change session state.
var (
	ErrInvalidBallCount = errors.New("ball count not allowed")
	ErrNotConfiguring   = errors.New("session already configured")
	ErrNotReady         = errors.New("session not ready to launch")
	ErrBallInFlight     = errors.New("a ball is already in flight")
	ErrNoBallsLeft      = errors.New("no balls remaining")
	ErrSessionFinished  = errors.New("session finished")
)

// Resolution records how one launched ball ended.
type Resolution struct {
	Ball        int    `json:"ball" msgpack:"ball"`
	Outcome     string `json:"outcome" msgpack:"outcome"`
	BucketID    int    `json:"bucket_id" msgpack:"bucket_id"`
	BucketScore int    `json:"bucket_score" msgpack:"bucket_score"`
	Multiplier  int    `json:"multiplier" msgpack:"multiplier"` // as applied, before the update
	Earned      int    `json:"earned" msgpack:"earned"`
}

// Scorer is the combo/scoring state machine.
type Scorer struct {
	TotalBalls     int          `json:"total_balls" msgpack:"total_balls"`
	BallsRemaining int          `json:"balls_remaining" msgpack:"balls_remaining"`
	Score          int          `json:"score" msgpack:"score"`
	Multiplier     int          `json:"multiplier" msgpack:"multiplier"`
	Status         Status       `json:"status" msgpack:"status"`
	History        []Resolution `json:"history" msgpack:"history"`
}

// NewScorer returns a scorer waiting for a ball count.
func NewScorer() *Scorer {
	return &Scorer{
		Multiplier: 1,
		Status:     StatusConfiguring,
	}
}

// ValidBallCount reports whether n is one of AllowedBallCounts.
func ValidBallCount(n int) bool {
	for _, c := range AllowedBallCounts {
		if c == n {
			return true
		}
	}
	return false
}

// Configure loads n balls, which must be one of AllowedBallCounts, and moves to Ready.
func (s *Scorer) Configure(n int) error {
	if s.Status == StatusConfiguring && !ValidBallCount(n) {
		return ErrInvalidBallCount
	}
	return s.Load(n)
}

// Load is Configure without the fixed choice list; any positive count is accepted.
func (s *Scorer) Load(n int) error {
	if s.Status != StatusConfiguring {
		return ErrNotConfiguring
	}
	if n <= 0 {
		return ErrInvalidBallCount
	}
	s.TotalBalls = n
	s.BallsRemaining = n
	s.Status = StatusReady
	return nil
}

// CanLaunch reports why a launch would be rejected, or nil.
func (s *Scorer) CanLaunch() error {
	switch s.Status {
	case StatusFinished:
		return ErrSessionFinished
	case StatusBallInFlight:
		return ErrBallInFlight
	case StatusReady:
	default:
		return ErrNotReady
	}
	if s.BallsRemaining <= 0 {
		return ErrNoBallsLeft
	}
	return nil
}

// ConsumeBall takes a ball for a launch. Balls are spent at launch, not at resolution.
func (s *Scorer) ConsumeBall() error {
	if err := s.CanLaunch(); err != nil {
		return err
	}
	s.BallsRemaining--
	s.Status = StatusBallInFlight
	return nil
}

// Capture scores a bucket hit with the current multiplier, then grows or resets
// the multiplier. It returns the points earned.
func (s *Scorer) Capture(bucket Bucket) int {
	if s.Status != StatusBallInFlight {
		return 0
	}
	earned := bucket.Score * s.Multiplier
	s.History = append(s.History, Resolution{
		Ball:        s.launched(),
		Outcome:     OutcomeCapture.String(),
		BucketID:    bucket.ID,
		BucketScore: bucket.Score,
		Multiplier:  s.Multiplier,
		Earned:      earned,
	})
	s.Score += earned
	if bucket.Score >= HighValueThreshold {
		s.Multiplier++
	} else {
		s.Multiplier = 1
	}
	s.Status = StatusReady
	return earned
}

// Miss resets the combo. Score is unchanged.
func (s *Scorer) Miss() {
	if s.Status != StatusBallInFlight {
		return
	}
	s.History = append(s.History, Resolution{
		Ball:       s.launched(),
		Outcome:    OutcomeMiss.String(),
		BucketID:   -1,
		Multiplier: s.Multiplier,
	})
	s.Multiplier = 1
	s.Status = StatusReady
}

// Exhausted reports whether every ball has been launched and resolved.
func (s *Scorer) Exhausted() bool {
	return s.Status == StatusReady && s.BallsRemaining == 0
}

// Finish moves to the terminal state. It reports false if already finished.
func (s *Scorer) Finish() bool {
	if s.Status == StatusFinished {
		return false
	}
	s.Status = StatusFinished
	return true
}

func (s *Scorer) launched() int {
	return s.TotalBalls - s.BallsRemaining
}
