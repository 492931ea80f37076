package service

import (
	"time"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

// MountRequest binds a drawing surface to the board
type MountRequest struct {
	Owner   string         `json:"owner"`
	Surface engine.Surface `json:"-"`
	Size    int            `json:"size"`
	Profile string         `json:"profile,omitempty"`
}

// StartRequest starts the board. Size and Profile are only used when nothing
// is mounted and the service falls back to its headless surface.
type StartRequest struct {
	Size    int    `json:"size,omitempty"`
	Profile string `json:"profile,omitempty"`
}

// BoardState is what transports report about the board
type BoardState struct {
	Mounted   bool             `json:"mounted"`
	Running   bool             `json:"running"`
	Profile   string           `json:"profile,omitempty"`
	Owner     string           `json:"owner,omitempty"`
	MountedAt *time.Time       `json:"mounted_at,omitempty"`
	Board     *engine.Snapshot `json:"board,omitempty"`
}

// PressResult contains the outcome of a key press
type PressResult struct {
	Key       string      `json:"key"`
	Delivered int         `json:"delivered"` // subscribers that received the key
	State     *BoardState `json:"state"`
}

// ProfileInfo provides information about a tuning profile file
type ProfileInfo struct {
	Filename     string `json:"filename"`
	ProfileID    string `json:"profile_id"` // The identifier to pass as profile
	Name         string `json:"name"`
	Description  string `json:"description"`
	TickInterval string `json:"tick_interval"`
	CellSize     int    `json:"cell_size"`
}
