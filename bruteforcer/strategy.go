package main

// Directions in the order the strategy tries them
var directions = []string{"up", "down", "left", "right"}

// ChaseStrategy steers the snake toward the target along a shortest path and
// falls back to the move that keeps the most room when no safe path exists.
type ChaseStrategy struct {
	grid     int
	blocked  map[Position]bool
	lastPlan []string
}

// NewChaseStrategy creates a strategy for a grid x grid board
func NewChaseStrategy(grid int) *ChaseStrategy {
	return &ChaseStrategy{grid: grid}
}

// NextMove picks the heading for the next tick. An empty result means every
// neighbour is fatal.
func (s *ChaseStrategy) NextMove(board *Snapshot) string {
	if board == nil || len(board.Body) == 0 {
		return ""
	}
	if board.Grid > 0 {
		s.grid = board.Grid
	}
	s.markBody(board.Body)
	head := board.Body[0]

	if path := s.BFS(head, board.Target); len(path) > 0 {
		next := s.getNewPosition(head, path[0])
		if s.roomAfter(next, board.Body) >= len(board.Body) {
			s.lastPlan = path
			return path[0]
		}
	}

	s.lastPlan = nil
	return s.safestMove(board)
}

// safestMove returns the legal move with the largest reachable area, breaking
// ties by distance to the target
func (s *ChaseStrategy) safestMove(board *Snapshot) string {
	head := board.Body[0]
	best := ""
	bestRoom, bestDist := -1, 0
	for _, dir := range directions {
		next := s.getNewPosition(head, dir)
		if !s.isValidPosition(next) {
			continue
		}
		room := s.roomAfter(next, board.Body)
		dist := s.manhattanDistance(next, board.Target)
		if room > bestRoom || (room == bestRoom && dist < bestDist) {
			best, bestRoom, bestDist = dir, room, dist
		}
	}
	return best
}

// markBody blocks every body cell except the tail, which moves away this
// tick. The neck stays blocked since the board ignores a reversal.
func (s *ChaseStrategy) markBody(body []Position) {
	s.blocked = make(map[Position]bool, len(body))
	for i, p := range body {
		if i == len(body)-1 && len(body) > 2 {
			break
		}
		s.blocked[p] = true
	}
}

// roomAfter counts the free cells reachable from next once the head has
// moved there
func (s *ChaseStrategy) roomAfter(next Position, body []Position) int {
	if !s.isValidPosition(next) {
		return 0
	}

	visited := map[Position]bool{next: true}
	if len(body) > 0 {
		visited[body[0]] = true
	}
	queue := []Position{next}
	count := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		count++

		for _, dir := range directions {
			p := s.getNewPosition(current, dir)
			if visited[p] || !s.isValidPosition(p) {
				continue
			}
			visited[p] = true
			queue = append(queue, p)
		}
	}
	return count
}

// BFS returns the shortest list of moves from start to goal over free cells
func (s *ChaseStrategy) BFS(start, goal Position) []string {
	if start == goal {
		return []string{}
	}

	type QueueItem struct {
		pos  Position
		path []string
	}

	queue := []QueueItem{{pos: start, path: []string{}}}
	visited := make(map[Position]bool)
	visited[start] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range directions {
			newPos := s.getNewPosition(current.pos, dir)

			if visited[newPos] || !s.isValidPosition(newPos) {
				continue
			}

			newPath := append([]string{}, current.path...)
			newPath = append(newPath, dir)

			if newPos == goal {
				return newPath
			}

			visited[newPos] = true
			queue = append(queue, QueueItem{pos: newPos, path: newPath})
		}
	}

	return nil
}

func (s *ChaseStrategy) isValidPosition(pos Position) bool {
	if pos.X < 0 || pos.Y < 0 || pos.X >= s.grid || pos.Y >= s.grid {
		return false
	}
	return !s.blocked[pos]
}

func (s *ChaseStrategy) getNewPosition(pos Position, dir string) Position {
	switch dir {
	case "up":
		return Position{X: pos.X, Y: pos.Y - 1}
	case "down":
		return Position{X: pos.X, Y: pos.Y + 1}
	case "left":
		return Position{X: pos.X - 1, Y: pos.Y}
	case "right":
		return Position{X: pos.X + 1, Y: pos.Y}
	}
	return pos
}

func (s *ChaseStrategy) manhattanDistance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PlanLength returns the length of the path NextMove last followed
func (s *ChaseStrategy) PlanLength() int {
	return len(s.lastPlan)
}

// Reset forgets the previous plan
func (s *ChaseStrategy) Reset() {
	s.blocked = nil
	s.lastPlan = nil
}
