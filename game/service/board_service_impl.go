package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/session"
)

// HeadlessOwner owns bindings made by Start when no surface is mounted
const HeadlessOwner = "api"

// DefaultHeadlessSize is the pixel size of the fallback surface
const DefaultHeadlessSize = 400

// Option configures the board service
type Option func(*boardServiceImpl)

// WithHeadlessSurface lets Start mount surface when no client has mounted one
func WithHeadlessSurface(surface engine.Surface, size int) Option {
	return func(s *boardServiceImpl) {
		s.headless = surface
		if size > 0 {
			s.headlessSize = size
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *boardServiceImpl) {
		s.log = logger.WithField("component", "service")
	}
}

// boardServiceImpl implements the BoardService interface
type boardServiceImpl struct {
	holder   BoardHolder
	profiles ProfileManager
	keys     KeyDispatcher
	log      logrus.FieldLogger

	headless     engine.Surface
	headlessSize int

	mu      sync.Mutex
	profile string
}

// NewBoardService creates a new board service. profiles may be nil, in which
// case every mount runs with the default tuning.
func NewBoardService(holder BoardHolder, profiles ProfileManager, keys KeyDispatcher, opts ...Option) BoardService {
	s := &boardServiceImpl{
		holder:       holder,
		profiles:     profiles,
		keys:         keys,
		log:          logrus.StandardLogger().WithField("component", "service"),
		headlessSize: DefaultHeadlessSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount binds a surface and starts the board on it
func (s *boardServiceImpl) Mount(ctx context.Context, req MountRequest) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mountLocked(req)
}

func (s *boardServiceImpl) mountLocked(req MountRequest) (*BoardState, error) {
	profileID, profile, err := s.resolveProfile(req.Profile)
	if err != nil {
		return nil, err
	}

	cfg := engine.Config{
		Surface:  req.Surface,
		Size:     req.Size,
		Controls: profile.ControlsOrDefault(),
	}

	// A tuning change releases the live board, so the new binding must be
	// known good before the holder sees it.
	tuning := profile.Tuning.WithDefaults()
	if err := engine.ValidateTuning(tuning); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	if err := engine.ValidateConfig(cfg, tuning); err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	s.holder.SetTuning(profile.Tuning)
	board, err := s.holder.AcquireFor(req.Owner, cfg)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	s.profile = profileID

	if err := board.Start(); err != nil {
		return nil, fmt.Errorf("mount: start: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"owner":   req.Owner,
		"size":    req.Size,
		"profile": profileID,
	}).Info("surface mounted")
	return s.stateLocked(), nil
}

// Unmount releases the board if owner still holds the binding
func (s *boardServiceImpl) Unmount(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.holder.ReleaseIf(owner); err != nil {
		switch {
		case errors.Is(err, session.ErrNotAcquired):
			return ErrNotMounted
		case errors.Is(err, session.ErrNotOwner):
			return ErrNotOwner
		}
		return fmt.Errorf("unmount: %w", err)
	}

	s.log.WithField("owner", owner).Info("surface unmounted")
	return nil
}

// Start starts the mounted board, mounting the headless surface first when
// nothing is bound
func (s *boardServiceImpl) Start(ctx context.Context, req StartRequest) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.holder.Current()
	if !ok {
		if s.headless == nil {
			return nil, ErrNotMounted
		}
		size := req.Size
		if size <= 0 {
			size = s.headlessSize
		}
		return s.mountLocked(MountRequest{
			Owner:   HeadlessOwner,
			Surface: s.headless,
			Size:    size,
			Profile: req.Profile,
		})
	}

	if err := board.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return s.stateLocked(), nil
}

// Restart discards the current session and starts a fresh one
func (s *boardServiceImpl) Restart(ctx context.Context) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, ok := s.holder.Current()
	if !ok {
		return nil, ErrNotMounted
	}
	if err := board.Restart(); err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	return s.stateLocked(), nil
}

// Stop releases the board whoever mounted it
func (s *boardServiceImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.holder.Release() {
		return ErrNotMounted
	}
	s.profile = ""
	s.log.Info("board stopped")
	return nil
}

// Press hands a key to the board's input source
func (s *boardServiceImpl) Press(ctx context.Context, key string) (*PressResult, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.holder.Current(); !ok {
		return nil, ErrNotMounted
	}
	delivered := s.keys.Dispatch(key)
	return &PressResult{
		Key:       key,
		Delivered: delivered,
		State:     s.stateLocked(),
	}, nil
}

// State reports the board; it never fails when nothing is mounted
func (s *boardServiceImpl) State(ctx context.Context) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(), nil
}

// ListProfiles returns the available tuning profiles
func (s *boardServiceImpl) ListProfiles(ctx context.Context) ([]*ProfileInfo, error) {
	if s.profiles == nil {
		return []*ProfileInfo{}, nil
	}
	profiles, err := s.profiles.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// GetProfile loads one profile by id
func (s *boardServiceImpl) GetProfile(ctx context.Context, name string) (*engine.Profile, error) {
	_, profile, err := s.resolveProfile(name)
	return profile, err
}

// resolveProfile maps an id to a profile; "" selects the default
func (s *boardServiceImpl) resolveProfile(name string) (string, *engine.Profile, error) {
	if s.profiles == nil {
		if name != "" {
			return "", nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return "default", &engine.Profile{Name: "default", Tuning: engine.DefaultTuning()}, nil
	}

	if name == "" {
		profile := s.profiles.GetDefault()
		if profile == nil {
			profile = &engine.Profile{Name: "default", Tuning: engine.DefaultTuning()}
		}
		return "default", profile, nil
	}

	profile, err := s.profiles.LoadProfile(name)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", nil, s.profileNotFound(name)
		}
		return "", nil, fmt.Errorf("failed to load profile %s: %w", name, err)
	}
	return name, profile, nil
}

// profileNotFound lists the available ids to help the caller
func (s *boardServiceImpl) profileNotFound(name string) error {
	infos, err := s.profiles.ListProfiles()
	if err != nil || len(infos) == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	ids := make([]string, 0, len(infos))
	for _, info := range infos {
		ids = append(ids, info.ProfileID)
	}
	return fmt.Errorf("%w: %s (available: %v)", ErrProfileNotFound, name, ids)
}

func (s *boardServiceImpl) stateLocked() *BoardState {
	board, ok := s.holder.Current()
	if !ok {
		return &BoardState{}
	}

	snap := board.Snapshot()
	state := &BoardState{
		Mounted: true,
		Running: board.Running(),
		Profile: s.profile,
		Board:   &snap,
	}
	if binding, ok := s.holder.Binding(); ok {
		state.Owner = binding.Owner
		mountedAt := binding.AcquiredAt
		state.MountedAt = &mountedAt
	}
	return state
}
