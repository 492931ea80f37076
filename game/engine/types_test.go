package engine

import (
	"encoding/json"
	"testing"
)

func TestDirectionDelta(t *testing.T) {
	tests := []struct {
		dir      Direction
		dx, dy   int
		opposite Direction
		name     string
	}{
		{Up, 0, -1, Down, "up"},
		{Right, 1, 0, Left, "right"},
		{Down, 0, 1, Up, "down"},
		{Left, -1, 0, Right, "left"},
	}

	for _, test := range tests {
		dx, dy := test.dir.Delta()
		if dx != test.dx || dy != test.dy {
			t.Errorf("%s: expected delta (%d,%d), got (%d,%d)", test.name, test.dx, test.dy, dx, dy)
		}
		if test.dir.Opposite() != test.opposite {
			t.Errorf("%s: expected opposite %s, got %s", test.name, test.opposite, test.dir.Opposite())
		}
		if test.dir.String() != test.name {
			t.Errorf("Expected name %s, got %s", test.name, test.dir.String())
		}
		parsed, ok := ParseDirection(test.name)
		if !ok || parsed != test.dir {
			t.Errorf("ParseDirection(%q) = %s, %v", test.name, parsed, ok)
		}
	}

	if _, ok := ParseDirection("north"); ok {
		t.Error("Expected unknown direction to fail")
	}
}

func TestPositionStep(t *testing.T) {
	p := Position{X: 3, Y: 3}
	if got := p.Step(Up); got != (Position{X: 3, Y: 2}) {
		t.Errorf("Expected (3,2), got %+v", got)
	}
	if got := p.Step(Left).Step(Left); got != (Position{X: 1, Y: 3}) {
		t.Errorf("Expected (1,3), got %+v", got)
	}
}

func TestControlMapLookup(t *testing.T) {
	tests := []struct {
		key      string
		expected Direction
		ok       bool
	}{
		{"ArrowUp", Up, true},
		{"ArrowDown", Down, true},
		{"ArrowLeft", Left, true},
		{"ArrowRight", Right, true},
		{"KeyW", 0, false},
		{"", 0, false},
	}

	for _, test := range tests {
		d, ok := DefaultControls.Lookup(test.key)
		if ok != test.ok || (ok && d != test.expected) {
			t.Errorf("Lookup(%q): expected %s/%v, got %s/%v", test.key, test.expected, test.ok, d, ok)
		}
	}
}

func TestControlMapKeyFor(t *testing.T) {
	wasd := ControlMap{Up: "KeyW", Down: "KeyS", Left: "KeyA", Right: "KeyD"}
	for _, d := range []Direction{Up, Down, Left, Right} {
		got, ok := wasd.Lookup(wasd.KeyFor(d))
		if !ok || got != d {
			t.Errorf("KeyFor(%s) does not round trip through Lookup", d)
		}
	}
	if DefaultControls.KeyFor(Direction(9)) != "" {
		t.Error("unknown direction should have no key")
	}
}

func TestSnapshotJSON(t *testing.T) {
	snap := Snapshot{
		Status:  StatusRunning,
		Score:   2,
		Heading: Left,
		Body:    []Position{{X: 4, Y: 5}, {X: 5, Y: 5}},
		Target:  Position{X: 1, Y: 1},
		Grid:    20,
		Pending: 1,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if raw["heading"] != "left" {
		t.Errorf("Expected heading \"left\", got %v", raw["heading"])
	}
	if raw["pending_inputs"] != float64(1) {
		t.Errorf("Expected pending_inputs 1, got %v", raw["pending_inputs"])
	}
	if _, ok := raw["reason"]; ok {
		t.Error("Expected empty reason to be omitted")
	}

	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Decoding snapshot failed: %v", err)
	}
	if back.Heading != Left {
		t.Errorf("Expected heading left after decoding, got %s", back.Heading)
	}
}

func TestSnapshotHead(t *testing.T) {
	var empty Snapshot
	if _, ok := empty.Head(); ok {
		t.Error("Expected no head on an empty snapshot")
	}
}
