package engine

// gameSession is the live simulation state owned by a Board
type gameSession struct {
	grid    int
	body    []Position // head first
	heading Direction
	target  Position
	score   int
	status  Status
	reason  EndReason
	won     bool
	growth  int // cells still to add at the tail
	tick    uint64
	queue   *InputQueue
}

// stepResult describes what one tick did to the session
type stepResult struct {
	Consumed bool      // an intent was dequeued
	Rejected bool      // the dequeued intent reversed onto the neck
	Ate      bool      // the head reached the target
	Fallback bool      // the new target came from the free-cell scan
	Ended    EndReason // set when the tick ended the session
}

// newGameSession lays the body out leftwards from the centre, heading right
func newGameSession(grid int, t Tuning, placer Placer) *gameSession {
	start := Position{X: grid / 2, Y: grid / 2}
	body := make([]Position, 0, t.InitialLength)
	for i := 0; i < t.InitialLength; i++ {
		body = append(body, Position{X: start.X - i, Y: start.Y})
	}

	s := &gameSession{
		grid:    grid,
		body:    body,
		heading: Right,
		status:  StatusRunning,
		queue:   NewInputQueue(t.InputCapacity),
	}
	s.spawnTarget(placer, t.RespawnRetries)
	return s
}

// inBounds reports whether p lies on the grid
func (s *gameSession) inBounds(p Position) bool {
	return p.X >= 0 && p.X < s.grid && p.Y >= 0 && p.Y < s.grid
}

// occupied reports whether any body cell is p
func (s *gameSession) occupied(p Position) bool {
	for _, b := range s.body {
		if b == p {
			return true
		}
	}
	return false
}

// applyInput consumes at most one queued intent
func (s *gameSession) applyInput(res *stepResult) {
	d, ok := s.queue.Pop()
	if !ok {
		return
	}
	res.Consumed = true
	if len(s.body) > 1 && s.body[0].Step(d) == s.body[1] {
		res.Rejected = true
		return
	}
	s.heading = d
}

// step advances the session by one tick. The check order is out of bounds,
// self collision, then target.
func (s *gameSession) step(placer Placer, retries, growth int) stepResult {
	var res stepResult
	if s.status != StatusRunning || len(s.body) == 0 {
		return res
	}
	s.tick++

	s.applyInput(&res)
	next := s.body[0].Step(s.heading)

	if !s.inBounds(next) {
		s.end(EndOutOfBounds)
		res.Ended = EndOutOfBounds
		return res
	}

	willEat := next == s.target
	check := s.body
	if s.growth == 0 && !willEat && len(check) > 0 {
		// The tail moves out of the way this same tick
		check = check[:len(check)-1]
	}
	for _, c := range check {
		if c == next {
			s.end(EndSelfCollision)
			res.Ended = EndSelfCollision
			return res
		}
	}

	s.body = append(s.body, Position{})
	copy(s.body[1:], s.body)
	s.body[0] = next

	if willEat {
		res.Ate = true
		s.score++
		s.growth += growth
	}
	if s.growth > 0 {
		s.growth--
	} else {
		s.body = s.body[:len(s.body)-1]
	}

	if willEat {
		fallback, ok := s.spawnTarget(placer, retries)
		res.Fallback = fallback
		if !ok {
			s.won = true
			s.end(EndBoardFull)
			res.Ended = EndBoardFull
		}
	}
	return res
}

// end moves the session to StatusOver
func (s *gameSession) end(reason EndReason) {
	s.status = StatusOver
	s.reason = reason
	s.queue.Clear()
}

// spawnTarget draws up to retries random cells, then scans for the first free
// cell. It returns false when the body covers the whole grid.
func (s *gameSession) spawnTarget(placer Placer, retries int) (fallback bool, ok bool) {
	for i := 0; i < retries; i++ {
		p := placer.Place(s.grid)
		if s.inBounds(p) && !s.occupied(p) {
			s.target = p
			return false, true
		}
	}
	if p, found := firstFreeCell(s.grid, s.body); found {
		s.target = p
		return true, true
	}
	return true, false
}

// snapshot copies the session into a Snapshot
func (s *gameSession) snapshot() Snapshot {
	return Snapshot{
		Status:  s.status,
		Reason:  s.reason,
		Won:     s.won,
		Score:   s.score,
		Heading: s.heading,
		Body:    append([]Position(nil), s.body...),
		Target:  s.target,
		Grid:    s.grid,
		Tick:    s.tick,
		Pending: s.queue.Len(),
	}
}
