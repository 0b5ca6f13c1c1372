package pachinko

import "time"

// Board geometry and physics constants. Units are board pixels and simulation ticks.
const (
	BoardWidth  = 320.0
	BoardHeight = 480.0
	LaneWidth   = 40.0 // launch lane on the right, outside the bucket row

	BallRadius = 8.0
	PinRadius  = 5.0
	PinPad     = 0.1 // extra separation after a pin contact

	Gravity  = 0.28
	Friction = 0.992
	Bounce   = 0.65

	PinRows     = 9
	PinStartY   = 120.0
	PinSpacingX = 34.0
	PinSpacingY = 38.0
	EvenRowPins = 8
	OddRowPins  = 7

	BucketHeight = 40.0
	CaptureInset = 5.0  // capture triggers this far below the bucket row's top edge
	MissMargin   = 30.0 // distance below the board bottom at which a ball counts as missed

	MaxResolvePasses = 4
)

// Launch controller constants.
const (
	LaunchOffset     = 20.0 // launch origin distance from the right and bottom edges
	LaunchVX         = -1.2
	MinLaunchSpeed   = 6.0
	LaunchSpeedRange = 14.0
	MaxPower         = 100
	PowerStep        = 3
	ChargeInterval   = 30 * time.Millisecond
)

// Scoring and timing constants.
const (
	HighValueThreshold = 50
	TickRate           = 60
	TickDuration       = time.Second / TickRate
	MaxTicksPerFrame   = 5
	FinishDelay        = 600 * time.Millisecond
	FinishDelayTicks   = int(FinishDelay / TickDuration)
)

// AllowedBallCounts are the ball totals a player may pick while configuring.
var AllowedBallCounts = []int{3, 5, 10, 20}
