package pachinko

import "math"

// Ball is the single mobile body on the board.
type Ball struct {
	Position Vec2 `json:"position" msgpack:"position"`
	Velocity Vec2 `json:"velocity" msgpack:"velocity"`
	Active   bool `json:"active" msgpack:"active"`
}

// OutcomeKind tells how a tick ended for the ball.
type OutcomeKind int

const (
	OutcomeNone OutcomeKind = iota
	OutcomeCapture
	OutcomeMiss
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCapture:
		return "capture"
	case OutcomeMiss:
		return "miss"
	default:
		return "none"
	}
}

// Outcome is reported by Step. Bucket is only meaningful for captures.
type Outcome struct {
	Kind   OutcomeKind
	Bucket Bucket
}

// ContactEvent records a wall or pin contact made during the last Step.
type ContactEvent struct {
	Type   string  `json:"type"` // "wall" or "pin"
	Target int     `json:"target"`
	Speed  float64 `json:"speed"`
}

// PhysicsEngine advances one ball against a static board.
type PhysicsEngine struct {
	Board    *Board
	Contacts []ContactEvent

	captureLine float64
	missLine    float64
	contactDist float64
}

// NewPhysicsEngine creates an integrator for the given board.
func NewPhysicsEngine(board *Board) *PhysicsEngine {
	return &PhysicsEngine{
		Board:       board,
		captureLine: board.BucketTop() + CaptureInset,
		missLine:    board.Height + MissMargin,
		contactDist: BallRadius + PinRadius,
	}
}

// Step advances the ball by one simulation tick. Inactive balls are left untouched.
func (pe *PhysicsEngine) Step(ball *Ball) Outcome {
	pe.Contacts = pe.Contacts[:0]
	if ball == nil || !ball.Active {
		return Outcome{}
	}

	ball.Velocity.Y += Gravity
	ball.Velocity = ball.Velocity.Times(Friction)
	ball.Position = ball.Position.Plus(ball.Velocity)

	pe.resolveWalls(ball)
	pe.resolvePins(ball)

	return pe.detectBuckets(ball)
}

// resolveWalls clamps against left, right and top. There is no floor.
func (pe *PhysicsEngine) resolveWalls(ball *Ball) {
	if ball.Position.X < BallRadius {
		ball.Position.X = BallRadius
		pe.wallContact(0, ball.Velocity.X)
		ball.Velocity.X *= -Bounce
	}
	if right := pe.Board.Width - BallRadius; ball.Position.X > right {
		ball.Position.X = right
		pe.wallContact(1, ball.Velocity.X)
		ball.Velocity.X *= -Bounce
	}
	if ball.Position.Y < BallRadius {
		ball.Position.Y = BallRadius
		pe.wallContact(2, ball.Velocity.Y)
		ball.Velocity.Y *= -Bounce
	}
}

func (pe *PhysicsEngine) wallContact(wall int, v float64) {
	pe.Contacts = append(pe.Contacts, ContactEvent{Type: "wall", Target: wall, Speed: math.Abs(v)})
}

// resolvePins handles every pin in order, once. Extra passes only run when a
// resolution left the ball inside another pin, which needs pins closer than
// twice the contact distance.
func (pe *PhysicsEngine) resolvePins(ball *Ball) {
	for pass := 0; pass < MaxResolvePasses; pass++ {
		if !pe.resolvePinsOnce(ball) || !pe.overlapsAnyPin(ball) {
			break
		}
	}
	if debugAssertions {
		for i, pin := range pe.Board.Pins {
			d := ball.Position.Distance(pin.Position)
			assertf(d >= pe.contactDist, "ball overlaps pin %d after resolution (dist=%.4f)", i, d)
		}
	}
}

func (pe *PhysicsEngine) resolvePinsOnce(ball *Ball) bool {
	hit := false
	for i, pin := range pe.Board.Pins {
		delta := ball.Position.Minus(pin.Position)
		if delta.Magnitude() >= pe.contactDist {
			continue
		}
		normal := delta.Bearing()
		speed := ball.Velocity.Magnitude()

		ball.Position = pin.Position.Plus(FromBearing(normal, pe.contactDist+PinPad))
		ball.Velocity = FromBearing(normal, speed*Bounce)

		pe.Contacts = append(pe.Contacts, ContactEvent{Type: "pin", Target: i, Speed: speed})
		hit = true
	}
	return hit
}

func (pe *PhysicsEngine) overlapsAnyPin(ball *Ball) bool {
	for _, pin := range pe.Board.Pins {
		if ball.Position.Distance(pin.Position) < pe.contactDist {
			return true
		}
	}
	return false
}

// detectBuckets captures the ball once it sinks past the capture line inside a
// bucket span, or reports a miss once it falls below the board.
func (pe *PhysicsEngine) detectBuckets(ball *Ball) Outcome {
	if ball.Position.Y <= pe.captureLine {
		return Outcome{}
	}
	if bucket, ok := pe.Board.BucketAt(ball.Position.X); ok {
		ball.Active = false
		return Outcome{Kind: OutcomeCapture, Bucket: bucket}
	}
	if ball.Position.Y > pe.missLine {
		ball.Active = false
		return Outcome{Kind: OutcomeMiss}
	}
	return Outcome{}
}

// Simulate steps the ball until it is captured, missed, or maxTicks elapse.
// It returns the final outcome and the number of ticks run.
func (pe *PhysicsEngine) Simulate(ball *Ball, maxTicks int) (Outcome, int) {
	for i := 1; i <= maxTicks; i++ {
		if out := pe.Step(ball); out.Kind != OutcomeNone {
			return out, i
		}
	}
	return Outcome{}, maxTicks
}
