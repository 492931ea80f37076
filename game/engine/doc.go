// Package engine provides the real-time board engine for snakeboard.
//
// The engine package implements:
//   - A fixed-interval tick loop driven by an injectable Scheduler
//   - Key input translation through a ControlMap and a bounded InputQueue
//   - Out-of-bounds, self-collision and target detection, in that order
//   - Target respawn with bounded random retries and a free-cell fallback
//   - Full-frame rendering onto a canvas-like Surface
//   - Session lifecycle: start, restart and idempotent close
//
// Core Types:
//
// Board owns one game session, its scheduled tick and its key subscription.
// Config is the surface binding (surface, pixel size, controls) supplied by
// the host; Tuning carries the simulation constants; Options injects the
// Scheduler, InputSource, Placer, logger and metrics Recorder.
//
// Usage:
//
//	keys := engine.NewKeyBroadcaster()
//	board, err := engine.NewBoard(engine.Config{
//		Surface:  surface,
//		Size:     400,
//		Controls: engine.DefaultControls,
//	}, engine.Options{Input: keys})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board.Start()
//	keys.Dispatch("ArrowUp")
//	state := board.Snapshot()
//	board.Close()
//
// Game Rules:
//
// The body starts at the centre of a size/cell_size square grid heading
// right. Each tick consumes at most one queued heading, moves the head one
// cell and checks, in order, the grid bounds, the body, and the target.
// Reaching the target scores a point and grows the body. Leaving the grid or
// running into the body ends the session; the final frame shows GAME OVER and
// stays inspectable until the board is restarted or closed.
//
// Testing:
//
// ManualScheduler fires ticks on demand and RecordingSurface keeps every
// frame, so a whole game can be replayed deterministically without timers
// or a real canvas.
package engine
