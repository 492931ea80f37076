package engine

import "sync"

// KeyHandler receives one key-down identifier
type KeyHandler func(key string)

// InputSource delivers key-down events to subscribers
type InputSource interface {
	Subscribe(handler KeyHandler) (unsubscribe func())
}

// InputQueue is a bounded FIFO of pending headings. When full, the oldest
// intent is dropped so the most recent ones survive.
type InputQueue struct {
	items    []Direction
	capacity int
}

// NewInputQueue creates a queue holding at most capacity intents
func NewInputQueue(capacity int) *InputQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &InputQueue{items: make([]Direction, 0, capacity), capacity: capacity}
}

// Push appends d and reports whether an older intent was dropped to make room
func (q *InputQueue) Push(d Direction) (dropped bool) {
	if len(q.items) == q.capacity {
		copy(q.items, q.items[1:])
		q.items = q.items[:len(q.items)-1]
		dropped = true
	}
	q.items = append(q.items, d)
	return dropped
}

// Pop removes and returns the oldest intent
func (q *InputQueue) Pop() (Direction, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	d := q.items[0]
	copy(q.items, q.items[1:])
	q.items = q.items[:len(q.items)-1]
	return d, true
}

// Len returns the number of pending intents
func (q *InputQueue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity
func (q *InputQueue) Cap() int {
	return q.capacity
}

// Pending returns a copy of the queued intents, oldest first
func (q *InputQueue) Pending() []Direction {
	return append([]Direction(nil), q.items...)
}

// Clear drops every pending intent
func (q *InputQueue) Clear() {
	q.items = q.items[:0]
}

// KeyBroadcaster is an InputSource fed by Dispatch. Transports push the keys
// they receive into it; the board subscribes while a session runs.
type KeyBroadcaster struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]KeyHandler
}

// NewKeyBroadcaster creates a broadcaster with no subscribers
func NewKeyBroadcaster() *KeyBroadcaster {
	return &KeyBroadcaster{handlers: make(map[int]KeyHandler)}
}

// Subscribe implements InputSource
func (b *KeyBroadcaster) Subscribe(handler KeyHandler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Dispatch delivers key to every subscriber and returns how many received it
func (b *KeyBroadcaster) Dispatch(key string) int {
	b.mu.RLock()
	handlers := make([]KeyHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(key)
	}
	return len(handlers)
}

// Subscribers returns the number of attached handlers
func (b *KeyBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
