package session

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

func newTestHolder() (*Holder, *engine.ManualScheduler, *engine.KeyBroadcaster) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	sched := engine.NewManualScheduler()
	keys := engine.NewKeyBroadcaster()
	return NewHolder(engine.Options{
		Scheduler: sched,
		Input:     keys,
		Placer:    engine.NewRandomPlacer(7),
		Logger:    logger,
	}), sched, keys
}

func testConfig(size int) engine.Config {
	return engine.Config{
		Surface:  engine.NewRecordingSurface(size, 8),
		Size:     size,
		Controls: engine.DefaultControls,
	}
}

func TestHolder_AcquireCreatesOnce(t *testing.T) {
	h, sched, _ := newTestHolder()

	first, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	require.NoError(t, first.Start())

	second, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, second.Start())
	assert.Equal(t, 1, sched.Active(), "only one loop may run")
	assert.Equal(t, 1, sched.Started())
}

func TestHolder_AcquireInvalidConfig(t *testing.T) {
	h, _, _ := newTestHolder()

	_, err := h.Acquire(engine.Config{Size: 400, Controls: engine.DefaultControls})
	var cfgErr *engine.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "ctx", cfgErr.Field)

	_, ok := h.Current()
	assert.False(t, ok, "a rejected config must not leave a board behind")
}

func TestHolder_ReacquireRebinds(t *testing.T) {
	h, _, _ := newTestHolder()

	board, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	require.NoError(t, board.Start())

	_, err = h.Acquire(testConfig(200))
	require.NoError(t, err)

	snap := board.Snapshot()
	assert.Equal(t, engine.StatusIdle, snap.Status)
	assert.Equal(t, 10, snap.Grid)

	binding, ok := h.Binding()
	require.True(t, ok)
	assert.Equal(t, 200, binding.Size)
}

func TestHolder_ReleaseIsIdempotent(t *testing.T) {
	h, sched, keys := newTestHolder()

	board, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	require.NoError(t, board.Start())

	assert.True(t, h.Release())
	assert.False(t, h.Release())

	assert.Equal(t, 0, sched.Active())
	assert.Equal(t, 0, keys.Subscribers())
	assert.False(t, board.Bound())

	fresh, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	assert.NotSame(t, board, fresh, "release must drop the old board")
}

func TestHolder_ReleaseIf(t *testing.T) {
	h, _, _ := newTestHolder()

	assert.ErrorIs(t, h.ReleaseIf("a"), ErrNotAcquired)

	_, err := h.AcquireFor("a", testConfig(400))
	require.NoError(t, err)
	_, err = h.AcquireFor("b", testConfig(400))
	require.NoError(t, err)

	assert.ErrorIs(t, h.ReleaseIf("a"), ErrNotOwner)
	_, ok := h.Current()
	assert.True(t, ok, "a stale owner must not unmount the board")

	assert.NoError(t, h.ReleaseIf("b"))
	_, ok = h.Current()
	assert.False(t, ok)
}

func TestHolder_SetTuning(t *testing.T) {
	h, _, _ := newTestHolder()

	assert.False(t, h.SetTuning(engine.Tuning{}), "defaults equal the current tuning")

	board, err := h.Acquire(testConfig(400))
	require.NoError(t, err)

	fast := engine.Tuning{TickInterval: 60 * time.Millisecond}
	assert.True(t, h.SetTuning(fast))
	assert.False(t, board.Bound())
	assert.Equal(t, 60*time.Millisecond, h.Tuning().TickInterval)

	next, err := h.Acquire(testConfig(400))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Millisecond, next.Tuning().TickInterval)
}

func TestHolder_ConcurrentAcquire(t *testing.T) {
	h, _, _ := newTestHolder()

	var wg sync.WaitGroup
	boards := make([]*engine.Board, 10)
	for i := range boards {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := h.Acquire(testConfig(400))
			if assert.NoError(t, err) {
				boards[i] = b
			}
		}(i)
	}
	wg.Wait()

	for _, b := range boards {
		assert.Same(t, boards[0], b)
	}
}

func TestDefaultInstance(t *testing.T) {
	h, sched, _ := newTestHolder()
	SetDefault(h)
	t.Cleanup(func() { SetDefault(NewHolder(engine.Options{})) })

	board, err := GetInstance(testConfig(400))
	require.NoError(t, err)
	require.NoError(t, board.Start())

	again, err := GetInstance(testConfig(400))
	require.NoError(t, err)
	assert.Same(t, board, again)

	DeleteInstance()
	DeleteInstance()
	assert.Equal(t, 0, sched.Active())
	_, ok := Default().Current()
	assert.False(t, ok)
}
