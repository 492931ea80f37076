package session

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

var (
	ErrNotAcquired = errors.New("no board acquired")
	ErrNotOwner    = errors.New("binding owned by another client")
)

// Binding describes who holds the current board and since when
type Binding struct {
	Owner      string    `json:"owner,omitempty"`
	Size       int       `json:"size"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Holder owns the board for one surface. There is never more than one board
// per holder: Acquire reuses the live board and Release closes it.
type Holder struct {
	mu      sync.Mutex
	opts    engine.Options
	log     logrus.FieldLogger
	board   *engine.Board
	binding Binding
}

// NewHolder creates an empty holder. opts are handed to every board it builds.
func NewHolder(opts engine.Options) *Holder {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Holder{
		opts: opts,
		log:  logger.WithField("component", "holder"),
	}
}

// Acquire returns the board, creating it on first use and reconfiguring it
// with cfg afterwards
func (h *Holder) Acquire(cfg engine.Config) (*engine.Board, error) {
	return h.AcquireFor("", cfg)
}

// AcquireFor is Acquire on behalf of owner. The latest caller becomes the
// owner of the binding.
func (h *Holder) AcquireFor(owner string, cfg engine.Config) (*engine.Board, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.board == nil {
		board, err := engine.NewBoard(cfg, h.opts)
		if err != nil {
			return nil, err
		}
		h.board = board
		h.log.WithFields(logrus.Fields{"owner": owner, "size": cfg.Size}).Info("board created")
	} else if err := h.board.Reconfigure(cfg); err != nil {
		return nil, err
	}

	h.binding = Binding{Owner: owner, Size: cfg.Size, AcquiredAt: time.Now()}
	return h.board, nil
}

// Release closes and forgets the board. It reports whether there was one.
func (h *Holder) Release() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releaseLocked()
}

// ReleaseIf releases the board only while owner still holds the binding
func (h *Holder) ReleaseIf(owner string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.board == nil {
		return ErrNotAcquired
	}
	if h.binding.Owner != owner {
		return ErrNotOwner
	}
	h.releaseLocked()
	return nil
}

// Current returns the live board, if any
func (h *Holder) Current() (*engine.Board, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.board, h.board != nil
}

// Binding returns the current binding; ok is false when nothing is acquired
func (h *Holder) Binding() (Binding, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.binding, h.board != nil
}

// SetTuning changes the tuning used for the next board. A live board built
// with different constants is released and reports true.
func (h *Holder) SetTuning(t engine.Tuning) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	t = t.WithDefaults()
	if t == h.opts.Tuning.WithDefaults() {
		return false
	}
	h.opts.Tuning = t
	if h.board == nil {
		return false
	}
	h.log.Info("tuning changed, releasing board")
	return h.releaseLocked()
}

// Tuning returns the tuning boards are built with
func (h *Holder) Tuning() engine.Tuning {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts.Tuning.WithDefaults()
}

func (h *Holder) releaseLocked() bool {
	if h.board == nil {
		return false
	}
	h.board.Close()
	h.board = nil
	h.log.WithField("owner", h.binding.Owner).Info("board released")
	h.binding = Binding{}
	return true
}

var (
	defaultMu     sync.Mutex
	defaultHolder = NewHolder(engine.Options{})
)

// Default returns the process-wide holder behind GetInstance and DeleteInstance
func Default() *Holder {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultHolder
}

// SetDefault replaces the process-wide holder, releasing the previous one.
// Hosts call it once at startup to inject their scheduler, logger and metrics.
func SetDefault(h *Holder) {
	defaultMu.Lock()
	prev := defaultHolder
	defaultHolder = h
	defaultMu.Unlock()

	if prev != h {
		prev.Release()
	}
}

// GetInstance acquires the board of the default holder
func GetInstance(cfg engine.Config) (*engine.Board, error) {
	return Default().Acquire(cfg)
}

// DeleteInstance releases the board of the default holder. Calling it with
// nothing acquired is a no-op.
func DeleteInstance() {
	Default().Release()
}
