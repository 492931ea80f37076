package engine

import "testing"

func newSessionWith(grid int, body []Position, heading Direction, target Position) *gameSession {
	return &gameSession{
		grid:    grid,
		body:    append([]Position(nil), body...),
		heading: heading,
		target:  target,
		status:  StatusRunning,
		queue:   NewInputQueue(DefaultInputCapacity),
	}
}

func TestNewGameSessionLayout(t *testing.T) {
	tuning := DefaultTuning()
	tuning.InitialLength = 3

	s := newGameSession(20, tuning, &sequencePlacer{cells: []Position{{0, 0}}})

	expected := []Position{{10, 10}, {9, 10}, {8, 10}}
	if len(s.body) != len(expected) {
		t.Fatalf("Expected %d cells, got %d", len(expected), len(s.body))
	}
	for i, p := range expected {
		if s.body[i] != p {
			t.Errorf("Cell %d: expected %+v, got %+v", i, p, s.body[i])
		}
	}
	if s.heading != Right {
		t.Errorf("Expected heading right, got %s", s.heading)
	}
	if s.status != StatusRunning {
		t.Errorf("Expected running, got %s", s.status)
	}
	if s.target != (Position{0, 0}) {
		t.Errorf("Expected target (0,0), got %+v", s.target)
	}
}

func TestStepMovesEachHeading(t *testing.T) {
	tests := []struct {
		heading  Direction
		expected Position
	}{
		{Up, Position{5, 4}},
		{Right, Position{6, 5}},
		{Down, Position{5, 6}},
		{Left, Position{4, 5}},
	}

	for _, test := range tests {
		s := newSessionWith(10, []Position{{5, 5}}, test.heading, Position{0, 0})
		res := s.step(&sequencePlacer{}, 1, 1)
		if res.Ended != EndNone {
			t.Errorf("%s: unexpected end %s", test.heading, res.Ended)
		}
		if s.body[0] != test.expected {
			t.Errorf("%s: expected %+v, got %+v", test.heading, test.expected, s.body[0])
		}
		if s.tick != 1 {
			t.Errorf("%s: expected tick 1, got %d", test.heading, s.tick)
		}
	}
}

func TestStepOutOfBoundsEachEdge(t *testing.T) {
	tests := []struct {
		name    string
		head    Position
		heading Direction
	}{
		{"top", Position{3, 0}, Up},
		{"right", Position{9, 3}, Right},
		{"bottom", Position{3, 9}, Down},
		{"left", Position{0, 3}, Left},
	}

	for _, test := range tests {
		s := newSessionWith(10, []Position{test.head}, test.heading, Position{5, 5})
		res := s.step(&sequencePlacer{}, 1, 1)
		if res.Ended != EndOutOfBounds {
			t.Errorf("%s: expected out_of_bounds, got %q", test.name, res.Ended)
		}
		if s.status != StatusOver {
			t.Errorf("%s: expected over, got %s", test.name, s.status)
		}
		if s.body[0] != test.head {
			t.Errorf("%s: expected the head to stay at %+v, got %+v", test.name, test.head, s.body[0])
		}
	}
}

func TestStepIntoVacatingTail(t *testing.T) {
	// Head (10,10) moving down onto the tail at (10,11)
	body := []Position{{10, 10}, {9, 10}, {9, 11}, {10, 11}}
	s := newSessionWith(20, body, Down, Position{0, 0})

	res := s.step(&sequencePlacer{}, 1, 1)
	if res.Ended != EndNone {
		t.Fatalf("Expected the tail cell to be free, got %s", res.Ended)
	}
	if s.body[0] != (Position{10, 11}) || len(s.body) != 4 {
		t.Errorf("Expected head (10,11) with length 4, got %v", s.body)
	}
}

func TestStepIntoTailWhileGrowing(t *testing.T) {
	body := []Position{{10, 10}, {9, 10}, {9, 11}, {10, 11}}
	s := newSessionWith(20, body, Down, Position{0, 0})
	s.growth = 1

	res := s.step(&sequencePlacer{}, 1, 1)
	if res.Ended != EndSelfCollision {
		t.Errorf("Expected self collision while the tail stays, got %q", res.Ended)
	}
}

func TestStepGrowthSpreadsOverTicks(t *testing.T) {
	s := newSessionWith(20, []Position{{5, 5}}, Right, Position{6, 5})
	placer := &sequencePlacer{cells: []Position{{0, 0}}}

	res := s.step(placer, 3, 3)
	if !res.Ate || s.score != 1 {
		t.Fatalf("Expected to eat, got %+v score %d", res, s.score)
	}
	lengths := []int{len(s.body)}
	for i := 0; i < 3; i++ {
		s.step(placer, 3, 3)
		lengths = append(lengths, len(s.body))
	}

	expected := []int{2, 3, 4, 4}
	for i := range expected {
		if lengths[i] != expected[i] {
			t.Errorf("Tick %d: expected length %d, got %d", i+1, expected[i], lengths[i])
		}
	}
}

func TestSpawnTargetRetries(t *testing.T) {
	s := newSessionWith(10, []Position{{5, 5}, {4, 5}}, Right, Position{0, 0})
	placer := &sequencePlacer{cells: []Position{{5, 5}, {4, 5}, {-1, 2}, {7, 7}}}

	fallback, ok := s.spawnTarget(placer, 4)
	if !ok || fallback {
		t.Fatalf("Expected a random placement, got fallback=%v ok=%v", fallback, ok)
	}
	if s.target != (Position{7, 7}) {
		t.Errorf("Expected (7,7), got %+v", s.target)
	}
}

func TestSpawnTargetFallback(t *testing.T) {
	s := newSessionWith(10, []Position{{0, 0}, {1, 0}}, Right, Position{5, 5})
	placer := &sequencePlacer{cells: []Position{{0, 0}}}

	fallback, ok := s.spawnTarget(placer, DefaultRespawnRetries)
	if !ok || !fallback {
		t.Fatalf("Expected a fallback placement, got fallback=%v ok=%v", fallback, ok)
	}
	if s.target != (Position{2, 0}) {
		t.Errorf("Expected first free cell (2,0), got %+v", s.target)
	}
}

func TestBoardFullEndsWon(t *testing.T) {
	// 2x2 grid, three cells taken, the target is the last free one
	s := newSessionWith(2, []Position{{0, 0}, {0, 1}, {1, 1}}, Right, Position{1, 0})

	res := s.step(&sequencePlacer{cells: []Position{{0, 0}}}, 3, 1)
	if !res.Ate {
		t.Fatal("Expected the last target to be eaten")
	}
	if res.Ended != EndBoardFull {
		t.Errorf("Expected board_full, got %q", res.Ended)
	}
	if !s.won || s.status != StatusOver {
		t.Errorf("Expected a won, finished session, got won=%v status=%s", s.won, s.status)
	}
	if len(s.body) != 4 {
		t.Errorf("Expected the body to cover the grid, got %d cells", len(s.body))
	}
}

func TestStepNoopWhenOver(t *testing.T) {
	s := newSessionWith(10, []Position{{5, 5}}, Right, Position{0, 0})
	s.end(EndOutOfBounds)

	res := s.step(&sequencePlacer{}, 1, 1)
	if res != (stepResult{}) {
		t.Errorf("Expected an empty result, got %+v", res)
	}
	if s.tick != 0 || s.body[0] != (Position{5, 5}) {
		t.Errorf("Expected nothing to change, got tick %d head %+v", s.tick, s.body[0])
	}
}

func TestEndClearsQueue(t *testing.T) {
	s := newSessionWith(10, []Position{{5, 5}}, Right, Position{0, 0})
	s.queue.Push(Up)
	s.queue.Push(Left)

	s.end(EndSelfCollision)
	if s.queue.Len() != 0 {
		t.Errorf("Expected an empty queue, got %d", s.queue.Len())
	}
	if s.reason != EndSelfCollision {
		t.Errorf("Expected reason self_collision, got %s", s.reason)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := newSessionWith(10, []Position{{5, 5}, {4, 5}}, Right, Position{0, 0})
	snap := s.snapshot()
	snap.Body[0] = Position{9, 9}

	if s.body[0] != (Position{5, 5}) {
		t.Error("Expected snapshot body to be detached from the session")
	}
}
