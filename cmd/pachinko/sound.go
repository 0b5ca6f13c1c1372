package main

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sound plays short cues for captures and misses. A failed speaker init leaves it silent.
type Sound struct {
	mu      sync.Mutex
	enabled bool
}

func NewSound(muted bool) *Sound {
	s := &Sound{}
	if muted {
		return s
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return s
	}
	s.enabled = true
	return s
}

// Capture plays a rising chirp; higher value buckets chirp higher.
func (s *Sound) Capture(score int) {
	base := 440.0 + 4*float64(score)
	s.play(beep.Seq(s.tone(base, 50*time.Millisecond), s.tone(base*1.5, 70*time.Millisecond)))
}

// Miss plays a short descending buzz.
func (s *Sound) Miss() {
	s.play(newSweep(220, 110, 150*time.Millisecond))
}

// Finish plays a three note arpeggio.
func (s *Sound) Finish() {
	s.play(beep.Seq(
		s.tone(523.25, 90*time.Millisecond),
		s.tone(659.25, 90*time.Millisecond),
		s.tone(783.99, 160*time.Millisecond),
	))
}

func (s *Sound) tone(freq float64, d time.Duration) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return beep.Silence(sampleRate.N(d))
	}
	return beep.Take(sampleRate.N(d), sine)
}

func (s *Sound) play(st beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	speaker.Play(st)
}

func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		speaker.Close()
		s.enabled = false
	}
}

// sweep is a sine whose frequency slides linearly from one pitch to another, fading out.
type sweep struct {
	from, to float64
	phase    float64
	pos, n   int
}

func newSweep(from, to float64, d time.Duration) *sweep {
	return &sweep{from: from, to: to, n: sampleRate.N(d)}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.pos >= s.n {
			return i, i > 0
		}
		t := float64(s.pos) / float64(s.n)
		freq := s.from + (s.to-s.from)*t
		val := math.Sin(2*math.Pi*s.phase) * (1 - t) * 0.5
		samples[i][0] = val
		samples[i][1] = val
		s.phase += freq / float64(sampleRate)
		s.phase -= math.Floor(s.phase)
		s.pos++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }
