package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/playmatatu/pachinko/internal/pachinko"
)

func waitRoomSize(t *testing.T, h *Hub, token string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.RoomSize(token) != want {
		if time.Now().After(deadline) {
			t.Fatalf("room %s size = %d, want %d", token, h.RoomSize(token), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubRoomsAndReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	owner := newClient(h, nil, 1, "s1", false)
	watcher := newClient(h, nil, 2, "s1", true)
	h.Register(owner)
	h.Register(watcher)
	waitRoomSize(t, h, "s1", 2)

	h.BroadcastToSession("s1", map[string]string{"type": "ping"})
	for _, c := range []*Client{owner, watcher} {
		select {
		case data := <-c.send:
			var m map[string]string
			json.Unmarshal(data, &m)
			if m["type"] != "ping" {
				t.Errorf("player %d got %s", c.playerID, data)
			}
		default:
			t.Errorf("player %d got nothing", c.playerID)
		}
	}

	again := newClient(h, nil, 1, "s1", false)
	h.Register(again)
	waitRoomSize(t, h, "s1", 2)
	if _, ok := <-owner.send; ok {
		t.Error("replaced connection should have its queue closed")
	}
	if owner.enqueue([]byte("x")) {
		t.Error("enqueue on a closed client should fail")
	}

	h.Unregister(owner)
	waitRoomSize(t, h, "s1", 2)

	h.CloseRoom("s1")
	if h.RoomSize("s1") != 0 {
		t.Error("CloseRoom left clients behind")
	}
	h.Unregister(watcher)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := newClient(h, nil, 1, "s1", false)
	for i := 0; i < sendBuffer; i++ {
		if !c.enqueue([]byte("x")) {
			t.Fatalf("enqueue %d failed early", i)
		}
	}
	if c.enqueue([]byte("x")) {
		t.Error("enqueue beyond the buffer should drop")
	}
}

func TestRegisterAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	cancel()
	<-h.done
	if h.Register(newClient(h, nil, 1, "s1", false)) {
		t.Error("Register should fail once the hub stopped")
	}
}

func TestHubRendererThrottles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)
	c := newClient(h, nil, 1, "s1", false)
	h.Register(c)
	waitRoomSize(t, h, "s1", 1)

	r := NewHubRenderer(h, "s1", 3)
	board := pachinko.MustDefaultBoard()
	snap := pachinko.Snapshot{Status: pachinko.StatusReady, TotalBalls: 3, BallsRemaining: 3, Board: board}

	r.Render(snap) // first frame is always sent
	for i := 1; i <= 5; i++ {
		snap.Tick = uint64(i)
		r.Render(snap) // unchanged apart from the tick
	}
	if n := len(c.send); n != 1 {
		t.Fatalf("queued %d frames for an idle session, want 1", n)
	}
	var first map[string]map[string]interface{}
	json.Unmarshal(<-c.send, &first)
	if _, ok := first["snapshot"]["board"]; ok {
		t.Error("streamed frame carried the board")
	}

	snap.Charging = true
	for p := 1; p <= 6; p++ {
		snap.Power = p
		r.Render(snap)
	}
	if n := len(c.send); n != 2 {
		t.Errorf("queued %d charging frames, want every 3rd of 6", n)
	}
	for len(c.send) > 0 {
		<-c.send
	}

	snap.Status = pachinko.StatusBallInFlight
	r.Render(snap)
	if len(c.send) != 1 {
		t.Error("status change was not sent immediately")
	}
}
