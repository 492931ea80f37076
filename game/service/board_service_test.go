package service_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
	"github.com/wricardo/mcp-training/snakeboard/game/session"
)

// MockProfileManager implements service.ProfileManager for testing
type MockProfileManager struct {
	profiles map[string]*engine.Profile
}

func NewMockProfileManager() *MockProfileManager {
	return &MockProfileManager{profiles: map[string]*engine.Profile{
		"classic": {Name: "Classic", Tuning: engine.DefaultTuning()},
		"fast":    {Name: "Fast", Tuning: engine.Tuning{TickInterval: 60 * time.Millisecond}},
		"wasd": {
			Name:     "WASD",
			Controls: engine.ControlMap{Up: "KeyW", Down: "KeyS", Left: "KeyA", Right: "KeyD"},
		},
	}}
}

func (m *MockProfileManager) LoadProfile(name string) (*engine.Profile, error) {
	p, ok := m.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrProfileNotFound, name)
	}
	return p, nil
}

func (m *MockProfileManager) ListProfiles() ([]*service.ProfileInfo, error) {
	infos := make([]*service.ProfileInfo, 0, len(m.profiles))
	for id, p := range m.profiles {
		infos = append(infos, &service.ProfileInfo{ProfileID: id, Name: p.Name})
	}
	return infos, nil
}

func (m *MockProfileManager) GetDefault() *engine.Profile {
	return m.profiles["classic"]
}

type fixture struct {
	svc    service.BoardService
	sched  *engine.ManualScheduler
	keys   *engine.KeyBroadcaster
	holder *session.Holder
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		sched: engine.NewManualScheduler(),
		keys:  engine.NewKeyBroadcaster(),
	}
	f.holder = session.NewHolder(engine.Options{
		Scheduler: f.sched,
		Input:     f.keys,
		Placer:    engine.NewRandomPlacer(3),
		Logger:    logger,
	})
	opts = append([]service.Option{service.WithLogger(logger)}, opts...)
	f.svc = service.NewBoardService(f.holder, NewMockProfileManager(), f.keys, opts...)
	return f
}

func mountReq(owner string, size int) service.MountRequest {
	return service.MountRequest{Owner: owner, Surface: engine.NewRecordingSurface(size, 4), Size: size}
}

func TestMountStartsBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.Mount(ctx, mountReq("client-1", 400))
	require.NoError(t, err)

	assert.True(t, state.Mounted)
	assert.True(t, state.Running)
	assert.Equal(t, "client-1", state.Owner)
	assert.Equal(t, "default", state.Profile)
	require.NotNil(t, state.Board)
	assert.Equal(t, engine.StatusRunning, state.Board.Status)
	assert.Equal(t, 20, state.Board.Grid)
	assert.NotNil(t, state.MountedAt)
	assert.Equal(t, 1, f.sched.Active())
}

func TestMountInvalidSize(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Mount(context.Background(), mountReq("client-1", 20))
	var cfgErr *engine.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "size", cfgErr.Field)
}

func TestFailedMountKeepsLiveBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)

	// Different tuning and a size that cannot hold the grid
	req := mountReq("b", 10)
	req.Profile = "fast"
	_, err = f.svc.Mount(ctx, req)
	var cfgErr *engine.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "size", cfgErr.Field)

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.Mounted)
	assert.True(t, state.Running)
	assert.Equal(t, "a", state.Owner)
	assert.Equal(t, "default", state.Profile)
	assert.Equal(t, engine.DefaultTickInterval, f.holder.Tuning().TickInterval)
	assert.Equal(t, 1, f.sched.Active())
}

func TestMountTwiceKeepsOneLoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)
	state, err := f.svc.Mount(ctx, mountReq("b", 400))
	require.NoError(t, err)

	assert.Equal(t, "b", state.Owner)
	assert.Equal(t, 1, f.sched.Active())
	assert.Equal(t, 1, f.keys.Subscribers())
}

func TestMountWithProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.Mount(ctx, service.MountRequest{
		Owner: "a", Surface: engine.NewRecordingSurface(400, 4), Size: 400, Profile: "fast",
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", state.Profile)
	assert.Equal(t, []time.Duration{60 * time.Millisecond}, f.sched.Intervals())

	_, err = f.svc.Mount(ctx, service.MountRequest{
		Owner: "a", Surface: engine.NewRecordingSurface(400, 4), Size: 400, Profile: "missing",
	})
	assert.ErrorIs(t, err, service.ErrProfileNotFound)
	assert.Contains(t, err.Error(), "available")
}

func TestMountProfileControls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.svc.Mount(ctx, service.MountRequest{
		Owner: "a", Surface: engine.NewRecordingSurface(400, 4), Size: 400, Profile: "wasd",
	})
	require.NoError(t, err)
	assert.Equal(t, "KeyW", state.Board.Controls.Up)

	_, err = f.svc.Press(ctx, "KeyW")
	require.NoError(t, err)
	f.sched.Tick()

	state, err = f.svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.Up, state.Board.Heading)
}

func TestUnmountOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Unmount(ctx, "a"), service.ErrNotMounted)

	_, err := f.svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)
	_, err = f.svc.Mount(ctx, mountReq("b", 400))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Unmount(ctx, "a"), service.ErrNotOwner)
	require.NoError(t, f.svc.Unmount(ctx, "b"))

	state, err := f.svc.State(ctx)
	require.NoError(t, err)
	assert.False(t, state.Mounted)
	assert.Equal(t, 0, f.sched.Active())
	assert.Equal(t, 0, f.keys.Subscribers())
}

func TestStartWithoutMount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(context.Background(), service.StartRequest{})
	assert.ErrorIs(t, err, service.ErrNotMounted)
}

func TestStartMountsHeadlessSurface(t *testing.T) {
	headless := engine.NewRecordingSurface(300, 4)
	f := newFixture(t, service.WithHeadlessSurface(headless, 300))
	ctx := context.Background()

	state, err := f.svc.Start(ctx, service.StartRequest{})
	require.NoError(t, err)
	assert.Equal(t, service.HeadlessOwner, state.Owner)
	assert.Equal(t, 15, state.Board.Grid)
	assert.Equal(t, 1, headless.FrameCount())

	// Start again is a no-op on the running board
	_, err = f.svc.Start(ctx, service.StartRequest{Size: 200})
	require.NoError(t, err)
	assert.Equal(t, 1, f.sched.Started())
}

func TestRestartAndStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Restart(ctx)
	assert.ErrorIs(t, err, service.ErrNotMounted)
	assert.ErrorIs(t, f.svc.Stop(ctx), service.ErrNotMounted)

	_, err = f.svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)
	f.sched.TickN(3)

	state, err := f.svc.Restart(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), state.Board.Tick)
	assert.Equal(t, 1, f.sched.Active())

	require.NoError(t, f.svc.Stop(ctx))
	assert.Equal(t, 0, f.sched.Active())
	assert.ErrorIs(t, f.svc.Stop(ctx), service.ErrNotMounted)
}

func TestPress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Press(ctx, "ArrowUp")
	assert.ErrorIs(t, err, service.ErrNotMounted)

	_, err = f.svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)

	_, err = f.svc.Press(ctx, "")
	assert.ErrorIs(t, err, service.ErrInvalidKey)

	result, err := f.svc.Press(ctx, "ArrowUp")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 1, result.State.Board.Pending)

	f.sched.Tick()
	state, _ := f.svc.State(ctx)
	head, _ := state.Board.Head()
	assert.Equal(t, engine.Position{X: 10, Y: 9}, head)
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	infos, err := f.svc.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 3)

	p, err := f.svc.GetProfile(ctx, "fast")
	require.NoError(t, err)
	assert.Equal(t, "Fast", p.Name)

	_, err = f.svc.GetProfile(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrProfileNotFound)
}

func TestNilProfileManager(t *testing.T) {
	keys := engine.NewKeyBroadcaster()
	holder := session.NewHolder(engine.Options{Scheduler: engine.NewManualScheduler(), Input: keys})
	svc := service.NewBoardService(holder, nil, keys)
	ctx := context.Background()

	infos, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	state, err := svc.Mount(ctx, mountReq("a", 400))
	require.NoError(t, err)
	assert.Equal(t, "default", state.Profile)
	require.NoError(t, svc.Stop(ctx))
}
