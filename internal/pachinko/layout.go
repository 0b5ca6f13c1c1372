package pachinko

import (
	"errors"
	"fmt"
)

// Pin is a static round obstacle.
type Pin struct {
	Position Vec2 `json:"position" msgpack:"position"`
}

// Bucket is a capture slot along the bottom of the board.
type Bucket struct {
	ID    int     `json:"id" msgpack:"id"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	W     float64 `json:"w" msgpack:"w"`
	H     float64 `json:"h" msgpack:"h"`
	Score int     `json:"score" msgpack:"score"`
	Color string  `json:"color" msgpack:"color"`
}

// Contains reports whether x falls inside the bucket's horizontal span.
func (b Bucket) Contains(x float64) bool {
	return x >= b.X && x <= b.X+b.W
}

// BucketSpec is the score and display color of one slot, left to right.
type BucketSpec struct {
	Score int
	Color string
}

// LayoutParams describes the board a Board is generated from.
type LayoutParams struct {
	Width        float64
	Height       float64
	LaneWidth    float64
	Rows         int
	StartY       float64
	SpacingX     float64
	SpacingY     float64
	EvenRowPins  int
	OddRowPins   int
	BucketHeight float64
	Buckets      []BucketSpec
}

// Board holds the static geometry of one session. It is never mutated after NewBoard.
type Board struct {
	Width     float64  `json:"width" msgpack:"width"`
	Height    float64  `json:"height" msgpack:"height"`
	PlayWidth float64  `json:"play_width" msgpack:"play_width"`
	Pins      []Pin    `json:"pins" msgpack:"pins"`
	Buckets   []Bucket `json:"buckets" msgpack:"buckets"`
}

var (
	ErrInvalidBoardSize = errors.New("board dimensions must be positive")
	ErrNoPinRows        = errors.New("layout needs at least one pin row")
	ErrNoBuckets        = errors.New("layout needs at least one bucket")
)

// DefaultPalette is the fixed bucket palette, left to right.
var DefaultPalette = []BucketSpec{
	{Score: 10, Color: "#3b82f6"},
	{Score: 50, Color: "#22c55e"},
	{Score: 100, Color: "#eab308"},
	{Score: 20, Color: "#a855f7"},
	{Score: 10, Color: "#3b82f6"},
}

// DefaultLayout returns the standard board parameters.
func DefaultLayout() LayoutParams {
	palette := make([]BucketSpec, len(DefaultPalette))
	copy(palette, DefaultPalette)
	return LayoutParams{
		Width:        BoardWidth,
		Height:       BoardHeight,
		LaneWidth:    LaneWidth,
		Rows:         PinRows,
		StartY:       PinStartY,
		SpacingX:     PinSpacingX,
		SpacingY:     PinSpacingY,
		EvenRowPins:  EvenRowPins,
		OddRowPins:   OddRowPins,
		BucketHeight: BucketHeight,
		Buckets:      palette,
	}
}

// NewBoard generates pins in staggered rows, each centered in the playable width, and
// buckets that tile the playable width in equal slots. The output depends only on p.
func NewBoard(p LayoutParams) (*Board, error) {
	playWidth := p.Width - p.LaneWidth
	if p.Width <= 0 || p.Height <= 0 || playWidth <= 0 || p.BucketHeight <= 0 {
		return nil, ErrInvalidBoardSize
	}
	if p.Rows <= 0 || p.EvenRowPins <= 0 || p.OddRowPins <= 0 {
		return nil, ErrNoPinRows
	}
	if len(p.Buckets) == 0 {
		return nil, ErrNoBuckets
	}

	pins := make([]Pin, 0, (p.Rows/2+1)*p.EvenRowPins)
	for r := 0; r < p.Rows; r++ {
		n := p.EvenRowPins
		if r%2 == 1 {
			n = p.OddRowPins
		}
		rowWidth := float64(n-1) * p.SpacingX
		offsetX := (playWidth - rowWidth) / 2
		y := p.StartY + float64(r)*p.SpacingY
		for i := 0; i < n; i++ {
			pins = append(pins, Pin{Position: NewVec2(offsetX+float64(i)*p.SpacingX, y)})
		}
	}

	bucketW := playWidth / float64(len(p.Buckets))
	top := p.Height - p.BucketHeight
	buckets := make([]Bucket, len(p.Buckets))
	for i, bs := range p.Buckets {
		x := bucketW * float64(i)
		w := bucketW
		if i == len(p.Buckets)-1 {
			// absorb float drift so the last slot ends exactly at the play edge
			w = playWidth - x
		}
		buckets[i] = Bucket{
			ID:    i,
			X:     x,
			Y:     top,
			W:     w,
			H:     p.BucketHeight,
			Score: bs.Score,
			Color: bs.Color,
		}
	}

	return &Board{
		Width:     p.Width,
		Height:    p.Height,
		PlayWidth: playWidth,
		Pins:      pins,
		Buckets:   buckets,
	}, nil
}

// MustDefaultBoard builds the standard board and panics if the constants are inconsistent.
func MustDefaultBoard() *Board {
	b, err := NewBoard(DefaultLayout())
	if err != nil {
		panic(fmt.Sprintf("pachinko: default layout: %v", err))
	}
	return b
}

// BucketTop is the y of the bucket row's top edge.
func (b *Board) BucketTop() float64 {
	if len(b.Buckets) == 0 {
		return b.Height
	}
	return b.Buckets[0].Y
}

// BucketAt returns the bucket whose span contains x.
func (b *Board) BucketAt(x float64) (Bucket, bool) {
	for _, bk := range b.Buckets {
		if bk.Contains(x) {
			return bk, true
		}
	}
	return Bucket{}, false
}

// LaunchOrigin is where released balls start, inside the launch lane.
func (b *Board) LaunchOrigin() Vec2 {
	return NewVec2(b.Width-LaunchOffset, b.Height-LaunchOffset)
}
