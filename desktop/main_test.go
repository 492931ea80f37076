package main

import (
	"image/color"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input    string
		expected color.RGBA
	}{
		{"#50ff50", color.RGBA{0x50, 0xff, 0x50, 255}},
		{"#101418", color.RGBA{0x10, 0x14, 0x18, 255}},
		{"#fff", color.RGBA{0xff, 0xff, 0xff, 255}},
		{"ff5050", color.RGBA{0xff, 0x50, 0x50, 255}},
		{"red", color.RGBA{200, 200, 200, 255}},
		{"#zzzzzz", color.RGBA{200, 200, 200, 255}},
	}

	for _, test := range tests {
		result := parseHexColor(test.input)
		if result != test.expected {
			t.Errorf("parseHexColor(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		base     string
		profile  string
		spectate bool
		expected string
	}{
		{"http://localhost:8080", "", false, "ws://localhost:8080/ws?size=640"},
		{"http://localhost:8080", "fast", false, "ws://localhost:8080/ws?profile=fast&size=640"},
		{"https://board.example.com/", "", false, "wss://board.example.com/ws?size=640"},
		{"http://localhost:8080", "fast", true, "ws://localhost:8080/ws"},
	}

	for _, test := range tests {
		result, err := socketURL(test.base, test.profile, test.spectate)
		if err != nil {
			t.Fatalf("socketURL(%q) failed: %v", test.base, err)
		}
		if result != test.expected {
			t.Errorf("socketURL(%q, %q, %v) = %s, expected %s", test.base, test.profile, test.spectate, result, test.expected)
		}
	}
}

func TestKeyCode(t *testing.T) {
	tests := []struct {
		key      ebiten.Key
		expected string
	}{
		{ebiten.KeyArrowUp, "ArrowUp"},
		{ebiten.KeyArrowLeft, "ArrowLeft"},
		{ebiten.KeyA, "KeyA"},
		{ebiten.KeyW, "KeyW"},
		{ebiten.KeyZ, "KeyZ"},
		{ebiten.KeyDigit3, "Digit3"},
		{ebiten.KeySpace, "Space"},
		{ebiten.KeyF2, ""},
		{ebiten.KeyEscape, ""},
	}

	for _, test := range tests {
		if result := keyCode(test.key); result != test.expected {
			t.Errorf("keyCode(%v) = %q, expected %q", test.key, result, test.expected)
		}
	}
}

func TestApply(t *testing.T) {
	g := &Game{welcomeScreen: &WelcomeScreen{}}

	g.apply(&WSMessage{Event: "hello", ClientID: "abc"})
	g.apply(&WSMessage{Event: "frame", Frame: &Frame{Size: 400, Ops: []DrawOp{{Op: "clear", W: 400, H: 400}}}})
	g.apply(&WSMessage{Event: "state", State: &BoardState{Mounted: true, Board: &Snapshot{Status: "running"}}})
	g.apply(&WSMessage{Event: "error", Error: "unknown message type: x"})

	if g.clientID != "abc" {
		t.Errorf("Expected client id abc, got %s", g.clientID)
	}
	if g.frame == nil || g.frame.Size != 400 || len(g.frame.Ops) != 1 {
		t.Errorf("Unexpected frame: %+v", g.frame)
	}
	if g.state == nil || !g.state.Mounted {
		t.Errorf("Unexpected state: %+v", g.state)
	}
	if g.lastError != "unknown message type: x" {
		t.Errorf("Unexpected error: %s", g.lastError)
	}

	// A frame event without a frame keeps the last one
	g.apply(&WSMessage{Event: "frame"})
	if g.frame == nil {
		t.Error("Expected the previous frame to be kept")
	}
}

func TestHeaderLine(t *testing.T) {
	tests := []struct {
		name      string
		state     *BoardState
		connected bool
		expected  string
	}{
		{"no state", nil, true, "[WS] waiting for state"},
		{"unmounted", &BoardState{}, false, "[OFFLINE] board not mounted"},
		{
			"running",
			&BoardState{Mounted: true, Profile: "classic", Board: &Snapshot{Status: "running", Score: 3, Heading: "up", Tick: 42}},
			true,
			"[WS] RUNNING | SC:3 | up | TICK:42 | classic",
		},
		{
			"over",
			&BoardState{Mounted: true, Board: &Snapshot{Status: "over", Score: 1, Heading: "right", Tick: 9}},
			true,
			"[WS] OVER | SC:1 | right | TICK:9 GAME OVER",
		},
		{
			"cleared",
			&BoardState{Mounted: true, Board: &Snapshot{Status: "over", Won: true, Score: 15, Heading: "left", Tick: 99}},
			true,
			"[WS] OVER | SC:15 | left | TICK:99 CLEARED!",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := headerLine(test.state, test.connected); result != test.expected {
				t.Errorf("headerLine() = %q, expected %q", result, test.expected)
			}
		})
	}
}
