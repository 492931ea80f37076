package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Surface is an engine.Surface drawing onto a tcell screen. One board cell
// becomes two terminal columns so the grid looks square.
type Surface struct {
	mu       sync.Mutex
	screen   tcell.Screen
	cellSize int
	base     tcell.Style
}

// NewSurface draws onto screen, scaling pixels down by cellSize
func NewSurface(screen tcell.Screen, cellSize int) *Surface {
	if cellSize < 1 {
		cellSize = 1
	}
	return &Surface{
		screen:   screen,
		cellSize: cellSize,
		base:     tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite),
	}
}

// cols returns the terminal columns covering pixel span [x, x+w)
func (s *Surface) cols(x, w int) (int, int) {
	from := x / s.cellSize * 2
	to := (x + w + s.cellSize - 1) / s.cellSize * 2
	return from, to
}

// rows returns the terminal rows covering pixel span [y, y+h)
func (s *Surface) rows(y, h int) (int, int) {
	return y / s.cellSize, (y + h + s.cellSize - 1) / s.cellSize
}

func (s *Surface) fill(x, y, w, h int, style tcell.Style) {
	c0, c1 := s.cols(x, w)
	r0, r1 := s.rows(y, h)
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			s.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

// ClearRect implements engine.Surface
func (s *Surface) ClearRect(x, y, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill(x, y, w, h, s.base)
}

// FillRect implements engine.Surface
func (s *Surface) FillRect(x, y, w, h int, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fill(x, y, w, h, s.base.Background(tcell.GetColor(color)))
}

// FillText implements engine.Surface. y is a baseline, so the text lands on
// the row above it.
func (s *Surface) FillText(text string, x, y int, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := (y - 1) / s.cellSize
	if row < 0 {
		row = 0
	}
	col, _ := s.cols(x, 0)
	style := s.base.Foreground(tcell.GetColor(color)).Bold(true)
	for _, r := range text {
		s.screen.SetContent(col, row, r, nil, style)
		col++
	}
}

// Present implements engine.Presenter
func (s *Surface) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Show()
	return nil
}
