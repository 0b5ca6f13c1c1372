package ws

import "github.com/playmatatu/pachinko/internal/pachinko"

// HubRenderer streams loop frames to a session's room. Frames identical to the last
// one sent are skipped, every Nth changed frame is sent, and a status change is always
// sent. The board layout is only sent on connect.
type HubRenderer struct {
	hub   *Hub
	token string
	every int

	frames     int
	last       pachinko.Snapshot
	sentAny    bool
	lastStatus pachinko.Status
}

func NewHubRenderer(hub *Hub, token string, every int) *HubRenderer {
	if every < 1 {
		every = 1
	}
	return &HubRenderer{hub: hub, token: token, every: every}
}

// Render implements pachinko.Renderer. It runs on the session's loop goroutine.
func (r *HubRenderer) Render(s pachinko.Snapshot) {
	s.Board = nil

	cmp := s
	cmp.Tick = r.last.Tick
	if r.sentAny && cmp == r.last {
		return
	}

	statusChanged := !r.sentAny || s.Status != r.lastStatus
	r.frames++
	if !statusChanged && r.frames%r.every != 0 {
		return
	}

	r.last = s
	r.lastStatus = s.Status
	r.sentAny = true
	if r.hub.RoomSize(r.token) == 0 {
		return
	}
	r.hub.BroadcastToSession(r.token, snapshotMessage(s))
}

func snapshotMessage(s pachinko.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":     "snapshot",
		"snapshot": s,
	}
}
