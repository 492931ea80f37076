package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Placer proposes a cell for a new target on a grid x grid board
type Placer interface {
	Place(grid int) Position
}

// RandomPlacer draws uniformly distributed cells
type RandomPlacer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPlacer seeds a placer; seed 0 uses the clock
func NewRandomPlacer(seed int64) *RandomPlacer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPlacer{rng: rand.New(rand.NewSource(seed))}
}

// Place implements Placer
func (p *RandomPlacer) Place(grid int) Position {
	if grid <= 0 {
		return Position{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Position{X: p.rng.Intn(grid), Y: p.rng.Intn(grid)}
}

// firstFreeCell scans row by row for a cell not covered by body
func firstFreeCell(grid int, body []Position) (Position, bool) {
	taken := make(map[Position]struct{}, len(body))
	for _, b := range body {
		taken[b] = struct{}{}
	}
	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			p := Position{X: x, Y: y}
			if _, ok := taken[p]; !ok {
				return p, true
			}
		}
	}
	return Position{}, false
}

// ManhattanDistance returns |dx| + |dy| between two cells
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
