package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Profile is a named, file-backed set of tuning constants and controls
type Profile struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Tuning      Tuning     `json:"tuning" yaml:"tuning"`
	Controls    ControlMap `json:"controls" yaml:"controls"`
}

// ControlsOrDefault returns the profile controls, or DefaultControls when none are set
func (p *Profile) ControlsOrDefault() ControlMap {
	if p.Controls == (ControlMap{}) {
		return DefaultControls
	}
	return p.Controls
}

// ValidateProfile checks a profile before it is used or saved
func ValidateProfile(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile validation: profile is nil")
	}
	if p.Name == "" {
		return fmt.Errorf("profile validation: name is required")
	}
	if err := ValidateTuning(p.Tuning.WithDefaults()); err != nil {
		return fmt.Errorf("profile validation: %w", err)
	}

	seen := make(map[string]bool, 4)
	for _, key := range p.ControlsOrDefault().Keys() {
		if key == "" {
			return fmt.Errorf("profile validation: controls must bind all four directions")
		}
		if seen[key] {
			return fmt.Errorf("profile validation: key %q bound twice", key)
		}
		seen[key] = true
	}
	return nil
}

// tuningJSON is Tuning with tick_interval as a duration string
type tuningJSON struct {
	TickInterval   json.RawMessage `json:"tick_interval,omitempty"`
	CellSize       int             `json:"cell_size,omitempty"`
	RespawnRetries int             `json:"respawn_retries,omitempty"`
	InputCapacity  int             `json:"input_capacity,omitempty"`
	InitialLength  int             `json:"initial_length,omitempty"`
	Growth         int             `json:"growth,omitempty"`
	MinGridCells   int             `json:"min_grid_cells,omitempty"`
	Seed           int64           `json:"seed,omitempty"`
}

// MarshalJSON writes tick_interval as a duration string such as "150ms"
func (t Tuning) MarshalJSON() ([]byte, error) {
	interval, err := json.Marshal(t.TickInterval.String())
	if err != nil {
		return nil, err
	}
	return json.Marshal(tuningJSON{
		TickInterval:   interval,
		CellSize:       t.CellSize,
		RespawnRetries: t.RespawnRetries,
		InputCapacity:  t.InputCapacity,
		InitialLength:  t.InitialLength,
		Growth:         t.Growth,
		MinGridCells:   t.MinGridCells,
		Seed:           t.Seed,
	})
}

// UnmarshalJSON accepts tick_interval as a duration string or as milliseconds
func (t *Tuning) UnmarshalJSON(data []byte) error {
	var raw tuningJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var interval time.Duration
	if len(raw.TickInterval) > 0 {
		var s string
		var ms int64
		switch {
		case json.Unmarshal(raw.TickInterval, &s) == nil:
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("tick_interval: %w", err)
			}
			interval = d
		case json.Unmarshal(raw.TickInterval, &ms) == nil:
			interval = time.Duration(ms) * time.Millisecond
		default:
			return fmt.Errorf("tick_interval: expected a duration string or milliseconds, got %s", raw.TickInterval)
		}
	}

	*t = Tuning{
		TickInterval:   interval,
		CellSize:       raw.CellSize,
		RespawnRetries: raw.RespawnRetries,
		InputCapacity:  raw.InputCapacity,
		InitialLength:  raw.InitialLength,
		Growth:         raw.Growth,
		MinGridCells:   raw.MinGridCells,
		Seed:           raw.Seed,
	}
	return nil
}
