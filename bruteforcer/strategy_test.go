package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestBFS(t *testing.T) {
	s := NewChaseStrategy(5)
	s.markBody([]Position{{2, 2}})

	path := s.BFS(Position{2, 2}, Position{4, 2})
	if len(path) != 2 || path[0] != "right" || path[1] != "right" {
		t.Errorf("Expected [right right], got %v", path)
	}

	if path := s.BFS(Position{1, 1}, Position{1, 1}); len(path) != 0 {
		t.Errorf("Expected empty path to self, got %v", path)
	}
}

func TestBFS_AroundBody(t *testing.T) {
	s := NewChaseStrategy(5)
	// Wall of body between head and target; tail at (2,4) is free
	s.markBody([]Position{{1, 2}, {2, 2}, {2, 1}, {2, 0}, {2, 3}, {2, 4}})

	path := s.BFS(Position{1, 2}, Position{3, 2})
	if path == nil {
		t.Fatal("Expected a path through the moving tail")
	}
	for _, p := range []Position{{2, 0}, {2, 1}, {2, 2}, {2, 3}} {
		if !s.blocked[p] {
			t.Errorf("Expected %v to be blocked", p)
		}
	}
	if s.blocked[Position{2, 4}] {
		t.Error("Expected the tail to be free")
	}
}

func TestNextMove_ChasesTarget(t *testing.T) {
	s := NewChaseStrategy(10)
	board := &Snapshot{
		Status:  "running",
		Heading: "right",
		Body:    []Position{{5, 5}},
		Target:  Position{5, 2},
		Grid:    10,
	}

	if dir := s.NextMove(board); dir != "up" {
		t.Errorf("Expected up, got %s", dir)
	}
	if s.PlanLength() != 3 {
		t.Errorf("Expected a 3 step plan, got %d", s.PlanLength())
	}
}

func TestNextMove_NeverReverses(t *testing.T) {
	s := NewChaseStrategy(10)
	board := &Snapshot{
		Heading: "right",
		Body:    []Position{{5, 5}, {4, 5}},
		Target:  Position{0, 5},
		Grid:    10,
	}

	dir := s.NextMove(board)
	if dir == "left" || dir == "" {
		t.Errorf("Expected a turn, got %q", dir)
	}
}

func TestNextMove_AvoidsWall(t *testing.T) {
	s := NewChaseStrategy(4)
	// Head in the top right corner heading right, neck to the left
	board := &Snapshot{
		Heading: "right",
		Body:    []Position{{3, 0}, {2, 0}, {1, 0}},
		Target:  Position{0, 0},
		Grid:    4,
	}

	if dir := s.NextMove(board); dir != "down" {
		t.Errorf("Expected down, got %s", dir)
	}
}

func TestNextMove_Trapped(t *testing.T) {
	s := NewChaseStrategy(3)
	// Head at (0,0) boxed in by its own body
	board := &Snapshot{
		Body:   []Position{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 2}},
		Target: Position{2, 2},
		Grid:   3,
	}

	if dir := s.NextMove(board); dir != "" {
		t.Errorf("Expected no move, got %s", dir)
	}
}

func TestRoomAfter(t *testing.T) {
	s := NewChaseStrategy(3)
	body := []Position{{1, 1}}
	s.markBody(body)

	// Everything but the head is reachable
	if room := s.roomAfter(Position{0, 1}, body); room != 8 {
		t.Errorf("Expected room 8, got %d", room)
	}
	if room := s.roomAfter(Position{-1, 1}, body); room != 0 {
		t.Errorf("Expected room 0 off grid, got %d", room)
	}
}

func TestControlsKeyFor(t *testing.T) {
	c := Controls{Up: "KeyW", Down: "KeyS", Left: "KeyA", Right: "KeyD"}
	tests := map[string]string{"up": "KeyW", "down": "KeyS", "left": "KeyA", "right": "KeyD", "sideways": ""}
	for dir, expected := range tests {
		if key := c.KeyFor(dir); key != expected {
			t.Errorf("KeyFor(%s) = %q, expected %q", dir, key, expected)
		}
	}
}

// fakeBoard serves a scripted sequence of board states and records keys
type fakeBoard struct {
	mu     sync.Mutex
	states []BoardState
	index  int
	keys   []string
}

func (f *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/board", "/api/board/start", "/api/board/restart":
		state := f.states[f.index]
		if f.index < len(f.states)-1 {
			f.index++
		}
		json.NewEncoder(w).Encode(state)
	case "/api/board/keys":
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		f.keys = append(f.keys, req["key"])
		json.NewEncoder(w).Encode(PressResponse{Key: req["key"], Delivered: 1})
	default:
		http.NotFound(w, r)
	}
}

func TestAutopilotPlay(t *testing.T) {
	running := func(tick uint64, head Position) BoardState {
		return BoardState{Mounted: true, Running: true, Board: &Snapshot{
			Status:   "running",
			Heading:  "right",
			Body:     []Position{head},
			Target:   Position{head.X, 0},
			Grid:     10,
			Tick:     tick,
			Controls: Controls{Up: "KeyW", Down: "KeyS", Left: "KeyA", Right: "KeyD"},
		}}
	}
	final := BoardState{Mounted: true, Board: &Snapshot{Status: "over", Reason: "out_of_bounds", Score: 2, Tick: 3}}

	fake := &fakeBoard{states: []BoardState{
		running(2, Position{5, 5}),
		final,
	}}
	server := httptest.NewServer(fake)
	defer server.Close()

	pilot := &Autopilot{
		client:   NewClient(server.URL),
		strategy: NewChaseStrategy(10),
		poll:     time.Millisecond,
	}

	result, err := pilot.play(&BoardState{Mounted: true, Board: running(1, Position{5, 5}).Board})
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if result.Score != 2 || result.Reason != "out_of_bounds" || result.Won {
		t.Errorf("Unexpected result: %+v", result)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.keys) == 0 || fake.keys[0] != "KeyW" {
		t.Errorf("Expected KeyW to be pressed, got %v", fake.keys)
	}
}

func TestAutopilotPlay_TickLimit(t *testing.T) {
	pilot := &Autopilot{strategy: NewChaseStrategy(10), maxTicks: 5}

	result, err := pilot.play(&BoardState{Mounted: true, Board: &Snapshot{Status: "running", Body: []Position{{1, 1}}, Tick: 5, Score: 1}})
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if result.Reason != "tick limit" || result.Score != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestAutopilotPlay_NotMounted(t *testing.T) {
	pilot := &Autopilot{strategy: NewChaseStrategy(10)}

	if _, err := pilot.play(&BoardState{}); err == nil {
		t.Error("Expected an error for an unmounted board")
	}
}

func TestClientStartError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"profile validation: name is required"}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).Start(400, "broken"); err == nil {
		t.Error("Expected start to fail on HTTP 400")
	}
}
