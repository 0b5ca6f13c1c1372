package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

// ballChoices maps the number keys to ball counts while configuring.
var ballChoices = map[rune]int{'1': 3, '2': 5, '3': 10, '4': 20}

// Host plays one pachinko session after another in the terminal.
type Host struct {
	screen tcell.Screen
	sound  *Sound
	board  *pachinko.Board

	loop   *pachinko.Loop
	frames chan pachinko.Snapshot
	last   pachinko.Snapshot
	msg    string
}

func NewHost(screen tcell.Screen, sound *Sound) *Host {
	return &Host{
		screen: screen,
		sound:  sound,
		board:  pachinko.MustDefaultBoard(),
		frames: make(chan pachinko.Snapshot, 1),
	}
}

// start replaces the current session with a fresh one.
func (h *Host) start() error {
	if h.loop != nil {
		h.loop.Stop()
	}
	// frames of the stopped session must not drive input on the new one
	h.last = pachinko.Snapshot{}
	select {
	case <-h.frames:
	default:
	}

	session := pachinko.NewSession(h.board, func(score int) {
		log.Printf("[PACHINKO] session finished with %d", score)
		h.sound.Finish()
	})
	h.loop = pachinko.NewLoop(session, pachinko.LoopConfig{
		Renderer: pachinko.RendererFunc(h.offer),
		OnOutcome: func(out pachinko.Outcome) {
			switch out.Kind {
			case pachinko.OutcomeCapture:
				h.sound.Capture(out.Bucket.Score)
			case pachinko.OutcomeMiss:
				h.sound.Miss()
			}
		},
	})
	h.msg = ""
	return h.loop.Start(context.Background())
}

// offer keeps only the newest frame; it runs on the loop goroutine and must not block.
func (h *Host) offer(s pachinko.Snapshot) {
	select {
	case h.frames <- s:
		return
	default:
	}
	select {
	case <-h.frames:
	default:
	}
	select {
	case h.frames <- s:
	default:
	}
}

// handleKey applies a key press and reports whether the host should keep running.
func (h *Host) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
	default:
		return true
	}

	var err error
	switch r := ev.Rune(); r {
	case 'q':
		return false
	case 'r':
		err = h.start()
	case ' ':
		err = h.toggleLaunch()
	default:
		if n, ok := ballChoices[r]; ok {
			err = h.loop.Configure(n)
		}
	}
	h.report(err)
	return true
}

// toggleLaunch presses or releases depending on the session's live launcher state.
// Terminals send no key-up events, so space does both.
func (h *Host) toggleLaunch() error {
	snap, err := h.loop.Snapshot()
	if err != nil {
		return err
	}
	if snap.Charging {
		return h.loop.Release()
	}
	return h.loop.Press()
}

func (h *Host) report(err error) {
	switch {
	case err == nil:
		h.msg = ""
	case errors.Is(err, pachinko.ErrBallInFlight):
		h.msg = "wait for the ball to land"
	case errors.Is(err, pachinko.ErrNotReady):
		h.msg = "pick a ball count first (1-4)"
	case errors.Is(err, pachinko.ErrSessionFinished):
		h.msg = "game over - r to restart"
	case errors.Is(err, pachinko.ErrNotConfiguring):
		h.msg = ""
	default:
		h.msg = err.Error()
		log.Printf("[PACHINKO] input rejected: %v", err)
	}
}

func (h *Host) run() {
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := h.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	// redraw at least this often so resizes and messages show up while idle
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !h.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				h.screen.Sync()
			}
			draw(h.screen, h.board, h.last, h.msg)
		case snap := <-h.frames:
			h.last = snap
			draw(h.screen, h.board, h.last, h.msg)
		case <-ticker.C:
			draw(h.screen, h.board, h.last, h.msg)
		}
	}
}

func (h *Host) Close() {
	if h.loop != nil {
		h.loop.Stop()
	}
}

func main() {
	logPath := flag.String("log", "pachinko.log", "log file (the terminal is owned by the game)")
	muted := flag.Bool("mute", false, "disable sound")
	flag.Parse()

	if f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	sound := NewSound(*muted)
	defer sound.Close()

	host := NewHost(screen, sound)
	defer host.Close()
	if err := host.start(); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}
	host.run()
}
