package service

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/session"
)

var (
	ErrNotMounted      = errors.New("no board mounted")
	ErrNotOwner        = errors.New("board mounted by another client")
	ErrInvalidKey      = errors.New("key is required")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidProfile  = errors.New("invalid profile")
)

// BoardService defines every board operation the transports expose
type BoardService interface {
	// Surface binding
	Mount(ctx context.Context, req MountRequest) (*BoardState, error)
	Unmount(ctx context.Context, owner string) error

	// Lifecycle
	Start(ctx context.Context, req StartRequest) (*BoardState, error)
	Restart(ctx context.Context) (*BoardState, error)
	Stop(ctx context.Context) error

	// Input and state
	Press(ctx context.Context, key string) (*PressResult, error)
	State(ctx context.Context) (*BoardState, error)

	// Profiles
	ListProfiles(ctx context.Context) ([]*ProfileInfo, error)
	GetProfile(ctx context.Context, name string) (*engine.Profile, error)
}

// BoardHolder owns the single board. session.Holder implements it.
type BoardHolder interface {
	AcquireFor(owner string, cfg engine.Config) (*engine.Board, error)
	ReleaseIf(owner string) error
	Release() bool
	Current() (*engine.Board, bool)
	Binding() (session.Binding, bool)
	SetTuning(t engine.Tuning) bool
}

// ProfileManager loads tuning profiles. config.Manager implements it.
type ProfileManager interface {
	LoadProfile(name string) (*engine.Profile, error)
	ListProfiles() ([]*ProfileInfo, error)
	GetDefault() *engine.Profile
}

// KeyDispatcher fans a key out to the board's input source
type KeyDispatcher interface {
	Dispatch(key string) int
}
