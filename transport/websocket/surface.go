package websocket

import (
	"errors"
	"sync"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

// ErrHubSaturated is returned by Present when a frame could not be queued
var ErrHubSaturated = errors.New("websocket hub saturated, frame dropped")

// Broadcaster is the part of Hub a RemoteSurface needs
type Broadcaster interface {
	Broadcast(msg *Message) bool
}

// RemoteSurface is an engine.Surface that buffers the draw calls of one frame
// and ships them to every browser canvas on Present
type RemoteSurface struct {
	mu     sync.Mutex
	hub    Broadcaster
	frame  engine.Frame
	frames int
}

// NewRemoteSurface creates a surface broadcasting through hub
func NewRemoteSurface(hub Broadcaster) *RemoteSurface {
	return &RemoteSurface{hub: hub}
}

// ClearRect implements engine.Surface. A clear at the origin starts a new frame.
func (s *RemoteSurface) ClearRect(x, y, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x == 0 && y == 0 {
		s.frame = engine.Frame{Size: w}
	}
	s.frame.Ops = append(s.frame.Ops, engine.DrawOp{Kind: engine.OpClear, X: x, Y: y, W: w, H: h})
}

// FillRect implements engine.Surface
func (s *RemoteSurface) FillRect(x, y, w, h int, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Ops = append(s.frame.Ops, engine.DrawOp{Kind: engine.OpFill, X: x, Y: y, W: w, H: h, Color: color})
}

// FillText implements engine.Surface
func (s *RemoteSurface) FillText(text string, x, y int, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Ops = append(s.frame.Ops, engine.DrawOp{Kind: engine.OpText, X: x, Y: y, Color: color, Text: text})
}

// Present implements engine.Presenter
func (s *RemoteSurface) Present() error {
	s.mu.Lock()
	frame := s.frame
	s.frame = engine.Frame{Size: frame.Size}
	s.frames++
	s.mu.Unlock()

	if !s.hub.Broadcast(&Message{Event: EventFrame, Frame: &frame}) {
		return ErrHubSaturated
	}
	return nil
}

// Frames returns how many frames were presented
func (s *RemoteSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
