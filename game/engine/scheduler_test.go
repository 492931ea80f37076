package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualSchedulerCancel(t *testing.T) {
	s := NewManualScheduler()
	var calls int
	cancel := s.Every(time.Second, func() { calls++ })

	s.TickN(3)
	cancel()
	cancel()
	s.Tick()

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if s.Active() != 0 || s.Started() != 1 {
		t.Errorf("Expected 0 active of 1 started, got %d of %d", s.Active(), s.Started())
	}
}

func TestManualSchedulerOrder(t *testing.T) {
	s := NewManualScheduler()
	var order []int
	s.Every(time.Second, func() { order = append(order, 1) })
	s.Every(2*time.Second, func() { order = append(order, 2) })

	s.Tick()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("Expected registration order, got %v", order)
	}
	intervals := s.Intervals()
	if len(intervals) != 2 || intervals[1] != 2*time.Second {
		t.Errorf("Unexpected intervals %v", intervals)
	}
}

func TestTickerSchedulerStops(t *testing.T) {
	s := NewTickerScheduler()
	var calls int32
	cancel := s.Every(5*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	cancel()

	stopped := atomic.LoadInt32(&calls)
	if stopped < 2 {
		t.Fatalf("Expected at least 2 ticks, got %d", stopped)
	}
	time.Sleep(30 * time.Millisecond)
	// One callback may have been in flight when cancel ran
	if after := atomic.LoadInt32(&calls); after > stopped+1 {
		t.Errorf("Expected ticks to stop, went from %d to %d", stopped, after)
	}
}

func TestBoardOnTickerScheduler(t *testing.T) {
	surface := NewRecordingSurface(400, 0)
	board, err := NewBoard(Config{Surface: surface, Size: 400, Controls: DefaultControls}, Options{
		Tuning: Tuning{TickInterval: 10 * time.Millisecond},
		Placer: &sequencePlacer{cells: []Position{{1, 1}}},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	board.Start()
	deadline := time.Now().Add(2 * time.Second)
	for board.Snapshot().Tick < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	board.Close()

	if board.Snapshot().Status != StatusIdle {
		t.Error("Expected idle after close")
	}
	if surface.FrameCount() < 4 {
		t.Errorf("Expected at least 4 frames, got %d", surface.FrameCount())
	}
}
