package engine

import (
	"sync"
	"testing"
)

func TestInputQueueFIFO(t *testing.T) {
	q := NewInputQueue(3)
	q.Push(Up)
	q.Push(Left)

	d, ok := q.Pop()
	if !ok || d != Up {
		t.Errorf("Expected up first, got %s", d)
	}
	d, ok = q.Pop()
	if !ok || d != Left {
		t.Errorf("Expected left second, got %s", d)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Expected empty queue")
	}
}

func TestInputQueueDropsOldest(t *testing.T) {
	q := NewInputQueue(2)
	if q.Push(Up) || q.Push(Left) {
		t.Fatal("Expected no drop below capacity")
	}
	if !q.Push(Down) {
		t.Error("Expected a drop at capacity")
	}

	pending := q.Pending()
	if len(pending) != 2 || pending[0] != Left || pending[1] != Down {
		t.Errorf("Expected [left down], got %v", pending)
	}
	if q.Len() != q.Cap() {
		t.Errorf("Expected a full queue, got %d of %d", q.Len(), q.Cap())
	}

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Expected cleared queue, got %d", q.Len())
	}
}

func TestInputQueueMinimumCapacity(t *testing.T) {
	q := NewInputQueue(0)
	if q.Cap() != 1 {
		t.Errorf("Expected capacity 1, got %d", q.Cap())
	}
}

func TestKeyBroadcaster(t *testing.T) {
	b := NewKeyBroadcaster()

	var mu sync.Mutex
	var got []string
	unsubscribe := b.Subscribe(func(key string) {
		mu.Lock()
		got = append(got, key)
		mu.Unlock()
	})

	if n := b.Dispatch("ArrowUp"); n != 1 {
		t.Errorf("Expected 1 receiver, got %d", n)
	}

	unsubscribe()
	unsubscribe()
	if n := b.Dispatch("ArrowDown"); n != 0 {
		t.Errorf("Expected 0 receivers after unsubscribe, got %d", n)
	}
	if b.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", b.Subscribers())
	}
	if len(got) != 1 || got[0] != "ArrowUp" {
		t.Errorf("Expected [ArrowUp], got %v", got)
	}
}

func TestKeyBroadcasterConcurrentDispatch(t *testing.T) {
	b := NewKeyBroadcaster()
	var mu sync.Mutex
	count := 0
	b.Subscribe(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Dispatch("ArrowLeft")
		}()
	}
	wg.Wait()

	if count != 20 {
		t.Errorf("Expected 20 deliveries, got %d", count)
	}
}
