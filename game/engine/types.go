package engine

import "fmt"

// Direction is one of the four logical headings
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// String returns the lowercase name used in JSON and logs
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Delta returns the cell offset for one step. Y grows downwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 0, 0
	}
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return d
	}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, ok := ParseDirection(string(text))
	if !ok {
		return fmt.Errorf("unknown direction %q", text)
	}
	*d = parsed
	return nil
}

// ParseDirection maps "up", "down", "left" or "right" to a Direction
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "up":
		return Up, true
	case "right":
		return Right, true
	case "down":
		return Down, true
	case "left":
		return Left, true
	}
	return 0, false
}

// Status is the lifecycle state of a game session
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusOver    Status = "over"
)

// Position is a grid cell coordinate
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighbouring cell in direction d
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// ControlMap binds the four directions to key identifiers such as "ArrowUp"
type ControlMap struct {
	Up    string `json:"up" yaml:"up"`
	Down  string `json:"down" yaml:"down"`
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// DefaultControls are the browser arrow keys
var DefaultControls = ControlMap{
	Up:    "ArrowUp",
	Down:  "ArrowDown",
	Left:  "ArrowLeft",
	Right: "ArrowRight",
}

// Lookup returns the direction bound to key
func (c ControlMap) Lookup(key string) (Direction, bool) {
	if key == "" {
		return 0, false
	}
	switch key {
	case c.Up:
		return Up, true
	case c.Down:
		return Down, true
	case c.Left:
		return Left, true
	case c.Right:
		return Right, true
	}
	return 0, false
}

// Keys returns the bound keys in up, down, left, right order
func (c ControlMap) Keys() []string {
	return []string{c.Up, c.Down, c.Left, c.Right}
}

// EndReason explains why a session reached StatusOver
type EndReason string

const (
	EndNone          EndReason = ""
	EndOutOfBounds   EndReason = "out_of_bounds"
	EndSelfCollision EndReason = "self_collision"
	EndBoardFull     EndReason = "board_full"
)

// Snapshot is a copy of the session state, safe to hand to other goroutines
type Snapshot struct {
	Status       Status     `json:"status"`
	Reason       EndReason  `json:"reason,omitempty"`
	Won          bool       `json:"won"`
	Score        int        `json:"score"`
	Heading      Direction  `json:"heading"`
	Body         []Position `json:"body"`
	Target       Position   `json:"target"`
	Grid         int        `json:"grid"`
	Size         int        `json:"size"`
	CellSize     int        `json:"cell_size"`
	Tick         uint64     `json:"tick"`
	Pending      int        `json:"pending_inputs"`
	RenderErrors int        `json:"render_errors"`
	Controls     ControlMap `json:"controls"`
}

// Head returns the first body cell, or false when there is no body
func (s *Snapshot) Head() (Position, bool) {
	if len(s.Body) == 0 {
		return Position{}, false
	}
	return s.Body[0], true
}

// KeyFor returns the key bound to d
func (c ControlMap) KeyFor(d Direction) string {
	switch d {
	case Up:
		return c.Up
	case Down:
		return c.Down
	case Left:
		return c.Left
	case Right:
		return c.Right
	}
	return ""
}
