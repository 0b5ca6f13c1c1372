package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

const hudLines = 3

var (
	styleFrame = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePin   = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleBall  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHUD   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHint  = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
)

// viewport maps board pixels onto terminal cells.
type viewport struct {
	cols, rows int
	sx, sy     float64
}

func newViewport(board *pachinko.Board, width, height int) viewport {
	rows := height - hudLines
	if rows < 1 {
		rows = 1
	}
	cols := width
	if cols < 1 {
		cols = 1
	}
	// cells are roughly twice as tall as wide
	sy := float64(rows) / board.Height
	sx := float64(cols) / board.Width
	if sx > 2*sy {
		sx = 2 * sy
	}
	return viewport{cols: int(math.Ceil(board.Width * sx)), rows: rows, sx: sx, sy: sy}
}

func (v viewport) cell(p pachinko.Vec2) (int, int) {
	return int(p.X * v.sx), int(p.Y*v.sy) + hudLines
}

func (v viewport) inside(x, y int) bool {
	return x >= 0 && x < v.cols && y >= hudLines && y < v.rows+hudLines
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func bucketStyle(b pachinko.Bucket) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.GetColor(b.Color))
}

// draw renders one frame of snap onto s.
func draw(s tcell.Screen, board *pachinko.Board, snap pachinko.Snapshot, msg string) {
	s.Clear()
	w, h := s.Size()
	v := newViewport(board, w, h)

	drawHUD(s, snap, msg)

	for _, b := range board.Buckets {
		x0, y0 := v.cell(pachinko.NewVec2(b.X, b.Y))
		x1, y1 := v.cell(pachinko.NewVec2(b.X+b.W, b.Y+b.H))
		style := bucketStyle(b)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if v.inside(x, y) {
					s.SetContent(x, y, ' ', nil, style)
				}
			}
		}
		label := fmt.Sprintf("%d", b.Score)
		lx := x0 + (x1-x0-len(label))/2
		drawText(s, lx, (y0+y1)/2, style, label)
	}

	// launch lane divider
	laneX, _ := v.cell(pachinko.NewVec2(board.PlayWidth, 0))
	_, laneTop := v.cell(pachinko.NewVec2(0, board.BucketTop()))
	for y := laneTop; y < v.rows+hudLines; y++ {
		if v.inside(laneX, y) {
			s.SetContent(laneX, y, '│', nil, styleFrame)
		}
	}

	for _, p := range board.Pins {
		x, y := v.cell(p.Position)
		if v.inside(x, y) {
			s.SetContent(x, y, '•', nil, stylePin)
		}
	}

	if snap.Ball.Active {
		x, y := v.cell(snap.Ball.Position)
		if v.inside(x, y) {
			s.SetContent(x, y, 'O', nil, styleBall)
		}
	}

	s.Show()
}

func drawHUD(s tcell.Screen, snap pachinko.Snapshot, msg string) {
	drawText(s, 0, 0, styleHUD, fmt.Sprintf("SCORE %-6d x%-2d  BALLS %d/%d", snap.Score, snap.Multiplier, snap.BallsRemaining, snap.TotalBalls))
	drawText(s, 0, 1, styleHUD, "POWER "+powerBar(snap.Power, 20))

	hint := msg
	if hint == "" {
		switch snap.Status {
		case pachinko.StatusConfiguring:
			hint = "1) 3 balls  2) 5  3) 10  4) 20    q quit"
		case pachinko.StatusReady:
			if snap.Charging {
				hint = "space to launch"
			} else {
				hint = "space to charge"
			}
		case pachinko.StatusBallInFlight:
			hint = "..."
		case pachinko.StatusFinished:
			hint = fmt.Sprintf("FINAL %d    r restart  q quit", snap.Score)
		}
	}
	drawText(s, 0, 2, styleHint, hint)
}

func powerBar(power, width int) string {
	if power < 0 {
		power = 0
	}
	if power > pachinko.MaxPower {
		power = pachinko.MaxPower
	}
	filled := power * width / pachinko.MaxPower
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return fmt.Sprintf("[%s] %3d", string(bar), power)
}
