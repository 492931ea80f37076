package terminal

import (
	"context"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

// KeyName maps a terminal key event to the browser KeyboardEvent.code used in
// control maps: arrows become "ArrowUp", letters "KeyW", digits "Digit1".
func KeyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyEscape:
		return "Escape"
	case tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r == ' ':
			return "Space"
		case r >= '0' && r <= '9':
			return "Digit" + string(r)
		case unicode.IsLetter(r) && r < unicode.MaxASCII:
			return "Key" + string(unicode.ToUpper(r))
		}
	}
	return ""
}

// Board is the part of engine.Board the player drives
type Board interface {
	Restart() error
	Snapshot() engine.Snapshot
}

// Dispatcher receives the key identifiers. engine.KeyBroadcaster implements it.
type Dispatcher interface {
	Dispatch(key string) int
}

// Player runs the terminal event loop for one board
type Player struct {
	screen tcell.Screen
	board  Board
	keys   Dispatcher
	log    logrus.FieldLogger
}

// NewPlayer creates a player reading keys from screen
func NewPlayer(screen tcell.Screen, board Board, keys Dispatcher, logger logrus.FieldLogger) *Player {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Player{
		screen: screen,
		board:  board,
		keys:   keys,
		log:    logger.WithField("component", "terminal"),
	}
}

// Run polls terminal events until ctx is done, Ctrl-C or Escape is pressed,
// or q is pressed while it is not bound to a direction. r (or Enter once the
// game is over) restarts.
func (p *Player) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				p.screen.Sync()
			case *tcell.EventKey:
				if quit := p.handleKey(ev); quit {
					return nil
				}
			}
		}
	}
}

// handleKey reports whether the player asked to quit
func (p *Player) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
		return true
	}

	name := KeyName(ev)
	snap := p.board.Snapshot()
	if _, bound := snap.Controls.Lookup(name); bound {
		p.keys.Dispatch(name)
		return false
	}

	switch {
	case name == "KeyQ":
		return true
	case name == "KeyR", name == "Enter" && snap.Status == engine.StatusOver:
		if err := p.board.Restart(); err != nil {
			p.log.WithError(err).Warn("restart failed")
		}
	}
	return false
}
