package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InputResult tells a caller what happened to a key
type InputResult string

const (
	InputQueued  InputResult = "queued"
	InputDropped InputResult = "dropped" // queued, oldest pending intent discarded
	InputIgnored InputResult = "ignored"
)

// EndStopped is reported to the recorder when a running session is torn down
// by Close, Restart or a reconfigure. It never appears in a Snapshot.
const EndStopped EndReason = "stopped"

// Recorder receives engine telemetry. telemetry.Collector implements it.
type Recorder interface {
	TickProcessed()
	FrameRendered(d time.Duration, err error)
	InputReceived(result string)
	SessionStarted()
	SessionEnded(reason string, score int)
	TargetRespawned(fallback bool)
}

type nopRecorder struct{}

func (nopRecorder) TickProcessed() {}

func (nopRecorder) FrameRendered(time.Duration, error) {}

func (nopRecorder) InputReceived(string) {}

func (nopRecorder) SessionStarted() {}

func (nopRecorder) SessionEnded(string, int) {}

func (nopRecorder) TargetRespawned(bool) {}

// Options are the capabilities injected into a board
type Options struct {
	Tuning    Tuning
	Scheduler Scheduler
	Input     InputSource
	Placer    Placer
	Logger    logrus.FieldLogger
	Metrics   Recorder

	// OnError is called, without the board lock held, for every failed frame
	OnError func(error)
}

func (o Options) withDefaults() Options {
	o.Tuning = o.Tuning.WithDefaults()
	if o.Scheduler == nil {
		o.Scheduler = NewTickerScheduler()
	}
	if o.Input == nil {
		o.Input = NewKeyBroadcaster()
	}
	if o.Placer == nil {
		o.Placer = NewRandomPlacer(o.Tuning.Seed)
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Metrics == nil {
		o.Metrics = nopRecorder{}
	}
	return o
}

// Board owns one game session, its tick loop and its key subscription. All
// methods are safe for concurrent use; ticks, keys and calls are serialized.
type Board struct {
	mu   sync.Mutex
	opts Options
	log  logrus.FieldLogger

	surface  Surface
	size     int
	controls ControlMap

	session      *gameSession
	running      bool
	generation   uint64
	cancelTick   func()
	unsubscribe  func()
	renderErrors int
}

// NewBoard validates the binding and returns an idle board
func NewBoard(cfg Config, opts Options) (*Board, error) {
	opts = opts.withDefaults()
	if err := ValidateTuning(opts.Tuning); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg, opts.Tuning); err != nil {
		return nil, err
	}

	return &Board{
		opts:     opts,
		log:      opts.Logger.WithField("component", "board"),
		surface:  cfg.Surface,
		size:     cfg.Size,
		controls: cfg.Controls,
	}, nil
}

// Reconfigure swaps the surface binding. A change of size or controls ends the
// current session; the next Start builds a fresh one.
func (b *Board) Reconfigure(cfg Config) error {
	if err := ValidateConfig(cfg, b.opts.Tuning); err != nil {
		return err
	}

	b.mu.Lock()
	rebuild := cfg.Size != b.size || cfg.Controls != b.controls
	b.surface = cfg.Surface
	b.size = cfg.Size
	b.controls = cfg.Controls

	var renderErr error
	if rebuild && b.session != nil {
		b.teardownLocked()
		b.session = nil
		b.log.WithField("size", cfg.Size).Info("board rebound, session reset")
	} else if b.session != nil {
		renderErr = b.renderLocked()
	}
	b.mu.Unlock()

	b.report(renderErr)
	return nil
}

// Start begins a fresh session unless one is already running. The first
// frame is drawn before the first tick is scheduled.
func (b *Board) Start() error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	if b.surface == nil {
		b.mu.Unlock()
		return &ConfigurationError{Field: "ctx", Reason: "board has no drawing surface"}
	}
	renderErr := b.startLocked()
	b.mu.Unlock()

	b.report(renderErr)
	return nil
}

// Restart discards the current session, running or finished, and starts anew
func (b *Board) Restart() error {
	b.mu.Lock()
	if b.surface == nil {
		b.mu.Unlock()
		return &ConfigurationError{Field: "ctx", Reason: "board has no drawing surface"}
	}
	b.teardownLocked()
	renderErr := b.startLocked()
	b.mu.Unlock()

	b.report(renderErr)
	return nil
}

// Close cancels the tick, detaches the key subscription, drops the session
// and releases the surface. Calling it again does nothing.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	hadWork := b.cancelTick != nil || b.unsubscribe != nil || b.session != nil || b.surface != nil
	b.teardownLocked()
	b.session = nil
	b.surface = nil
	if hadWork {
		b.log.Info("board closed")
	}
}

// HandleKey queues the direction bound to key. Unbound keys, and keys that
// arrive while no session runs, are ignored.
func (b *Board) HandleKey(key string) InputResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := InputIgnored
	if b.running && b.session != nil {
		if d, ok := b.controls.Lookup(key); ok {
			result = InputQueued
			if b.session.queue.Push(d) {
				result = InputDropped
			}
		}
	}
	b.opts.Metrics.InputReceived(string(result))
	return result
}

// Snapshot returns a copy of the current state
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{Status: StatusIdle, Grid: b.size / b.opts.Tuning.CellSize}
	if b.session != nil {
		snap = b.session.snapshot()
	}
	snap.Size = b.size
	snap.CellSize = b.opts.Tuning.CellSize
	snap.RenderErrors = b.renderErrors
	snap.Controls = b.controls
	return snap
}

// Running reports whether a tick loop is active
func (b *Board) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Bound reports whether the board still holds a surface
func (b *Board) Bound() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface != nil
}

// Tuning returns the constants the board runs with
func (b *Board) Tuning() Tuning {
	return b.opts.Tuning
}

// startLocked replaces any previous session and schedules the loop
func (b *Board) startLocked() error {
	b.teardownLocked()

	t := b.opts.Tuning
	b.session = newGameSession(b.size/t.CellSize, t, b.opts.Placer)
	b.generation++
	gen := b.generation
	b.running = true
	b.unsubscribe = b.opts.Input.Subscribe(func(key string) { b.HandleKey(key) })

	// First frame before the first interval elapses
	err := b.renderLocked()
	b.cancelTick = b.opts.Scheduler.Every(t.TickInterval, func() { b.tick(gen) })

	b.opts.Metrics.SessionStarted()
	b.log.WithFields(logrus.Fields{
		"grid":     b.session.grid,
		"interval": t.TickInterval,
		"target":   b.session.target,
	}).Info("session started")
	return err
}

// teardownLocked stops the loop and detaches listeners, keeping the session
// for inspection
func (b *Board) teardownLocked() {
	if b.running && b.session != nil {
		b.opts.Metrics.SessionEnded(string(EndStopped), b.session.score)
	}
	b.stopLoopLocked()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.session != nil {
		b.session.queue.Clear()
	}
}

// stopLoopLocked cancels the scheduled tick. The generation bump makes a tick
// that was already queued return without touching anything.
func (b *Board) stopLoopLocked() {
	b.running = false
	b.generation++
	if b.cancelTick != nil {
		b.cancelTick()
		b.cancelTick = nil
	}
}

// tick is the scheduled callback for loop generation gen
func (b *Board) tick(gen uint64) {
	b.mu.Lock()
	if !b.running || gen != b.generation || b.session == nil {
		b.mu.Unlock()
		return
	}

	s := b.session
	t := b.opts.Tuning
	res := s.step(b.opts.Placer, t.RespawnRetries, t.Growth)
	b.opts.Metrics.TickProcessed()
	if res.Rejected {
		b.opts.Metrics.InputReceived("rejected")
	}
	if res.Ate {
		b.opts.Metrics.TargetRespawned(res.Fallback)
		b.log.WithFields(logrus.Fields{"tick": s.tick, "score": s.score, "target": s.target}).Debug("target reached")
	}
	if res.Ended != EndNone {
		b.stopLoopLocked()
		b.opts.Metrics.SessionEnded(string(res.Ended), s.score)
		b.log.WithFields(logrus.Fields{"tick": s.tick, "score": s.score, "reason": res.Ended}).Info("session over")
	}

	err := b.renderLocked()
	b.mu.Unlock()

	b.report(err)
}

// renderLocked draws the whole session. A panicking surface becomes an error
// and the frame is skipped.
func (b *Board) renderLocked() (err error) {
	if b.surface == nil || b.session == nil {
		return nil
	}
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render: surface panicked: %v", r)
		}
		if err != nil {
			b.renderErrors++
		}
		b.opts.Metrics.FrameRendered(time.Since(began), err)
	}()

	s := b.session
	cs := b.opts.Tuning.CellSize
	surface := b.surface

	surface.ClearRect(0, 0, b.size, b.size)
	for i, p := range s.body {
		color := ColorBody
		if i == 0 {
			color = ColorHead
		}
		surface.FillRect(p.X*cs, p.Y*cs, cs, cs, color)
	}
	if !s.won {
		surface.FillRect(s.target.X*cs, s.target.Y*cs, cs, cs, ColorTarget)
	}
	surface.FillText(fmt.Sprintf("Score: %d", s.score), 4, 16, ColorText)
	if s.status == StatusOver {
		text := TextGameOver
		if s.won {
			text = TextCleared
		}
		surface.FillText(text, b.size/4, b.size/2, ColorGameOver)
	}

	if p, ok := surface.(Presenter); ok {
		if perr := p.Present(); perr != nil {
			return fmt.Errorf("render: present: %w", perr)
		}
	}
	return nil
}

// report logs a failed frame and forwards it to OnError
func (b *Board) report(err error) {
	if err == nil {
		return
	}
	b.log.WithError(err).Warn("frame skipped")
	if b.opts.OnError != nil {
		b.opts.OnError(err)
	}
}
