package engine

import (
	"fmt"
	"sync"
)

// Surface is the drawing capability the board renders onto. It mirrors the
// subset of a 2D canvas context the board needs; coordinates are pixels.
type Surface interface {
	ClearRect(x, y, w, h int)
	FillRect(x, y, w, h int, color string)
	FillText(text string, x, y int, color string)
}

// Presenter is implemented by surfaces that buffer a frame and flush it
type Presenter interface {
	Present() error
}

// Palette used by the renderer
const (
	ColorBackground = "#101418"
	ColorBody       = "#50ff50"
	ColorHead       = "#50d1ff"
	ColorTarget     = "#ff5050"
	ColorText       = "#eeeeee"
	ColorGameOver   = "#ffd14a"
)

// Overlay texts
const (
	TextGameOver = "GAME OVER"
	TextCleared  = "BOARD CLEARED"
)

// OpKind identifies a recorded draw call
type OpKind string

const (
	OpClear OpKind = "clear"
	OpFill  OpKind = "fill"
	OpText  OpKind = "text"
)

// DrawOp is one draw call. It doubles as the wire format for remote canvases.
type DrawOp struct {
	Kind  OpKind `json:"op"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w,omitempty"`
	H     int    `json:"h,omitempty"`
	Color string `json:"color,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Frame is the ordered list of draw calls between two clears
type Frame struct {
	Size int      `json:"size"`
	Ops  []DrawOp `json:"ops"`
}

// Texts returns the text of every OpText in the frame
func (f *Frame) Texts() []string {
	var out []string
	for _, op := range f.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// RecordingSurface keeps every frame drawn on it. Each ClearRect of the full
// surface starts a new frame. It is used by headless hosts and tests.
type RecordingSurface struct {
	mu       sync.Mutex
	size     int
	frames   []Frame
	limit    int
	presents int

	// FailOn makes the next draw call of that kind panic, to exercise render error paths
	FailOn OpKind
}

// NewRecordingSurface creates a surface keeping at most limit frames (0 keeps all)
func NewRecordingSurface(size, limit int) *RecordingSurface {
	return &RecordingSurface{size: size, limit: limit}
}

// ClearRect implements Surface
func (r *RecordingSurface) ClearRect(x, y, w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeFail(OpClear)
	r.frames = append(r.frames, Frame{Size: r.size})
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = r.frames[len(r.frames)-r.limit:]
	}
	r.appendOp(DrawOp{Kind: OpClear, X: x, Y: y, W: w, H: h})
}

// FillRect implements Surface
func (r *RecordingSurface) FillRect(x, y, w, h int, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeFail(OpFill)
	r.appendOp(DrawOp{Kind: OpFill, X: x, Y: y, W: w, H: h, Color: color})
}

// FillText implements Surface
func (r *RecordingSurface) FillText(text string, x, y int, color string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maybeFail(OpText)
	r.appendOp(DrawOp{Kind: OpText, X: x, Y: y, Color: color, Text: text})
}

// Present implements Presenter
func (r *RecordingSurface) Present() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presents++
	return nil
}

// Frames returns a copy of the recorded frames
func (r *RecordingSurface) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	for i, f := range r.frames {
		out[i] = Frame{Size: f.Size, Ops: append([]DrawOp(nil), f.Ops...)}
	}
	return out
}

// LastFrame returns the most recent frame
func (r *RecordingSurface) LastFrame() (Frame, bool) {
	frames := r.Frames()
	if len(frames) == 0 {
		return Frame{}, false
	}
	return frames[len(frames)-1], true
}

// FrameCount returns the number of frames started, capped by the limit
func (r *RecordingSurface) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Presents returns how many frames were presented
func (r *RecordingSurface) Presents() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presents
}

func (r *RecordingSurface) appendOp(op DrawOp) {
	if len(r.frames) == 0 {
		r.frames = append(r.frames, Frame{Size: r.size})
	}
	last := &r.frames[len(r.frames)-1]
	last.Ops = append(last.Ops, op)
}

func (r *RecordingSurface) maybeFail(kind OpKind) {
	if r.FailOn != "" && r.FailOn == kind {
		r.FailOn = ""
		panic(fmt.Sprintf("recording surface: injected %s failure", kind))
	}
}
