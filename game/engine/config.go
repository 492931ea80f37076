package engine

import (
	"fmt"
	"time"
)

// Tuning defaults
const (
	DefaultTickInterval   = 150 * time.Millisecond
	DefaultCellSize       = 20
	DefaultRespawnRetries = 10
	DefaultInputCapacity  = 2
	DefaultInitialLength  = 1
	DefaultGrowth         = 1
	DefaultMinGridCells   = 4

	// Validation bounds
	MinTickInterval  = 10 * time.Millisecond
	MaxTickInterval  = 5 * time.Second
	MaxRespawnTries  = 1000
	MaxInputCapacity = 16
)

// Tuning holds the constants of the simulation that are not part of the surface binding
type Tuning struct {
	TickInterval   time.Duration `json:"tick_interval" yaml:"tick_interval"`
	CellSize       int           `json:"cell_size" yaml:"cell_size"`
	RespawnRetries int           `json:"respawn_retries" yaml:"respawn_retries"`
	InputCapacity  int           `json:"input_capacity" yaml:"input_capacity"`
	InitialLength  int           `json:"initial_length" yaml:"initial_length"`
	Growth         int           `json:"growth" yaml:"growth"`
	MinGridCells   int           `json:"min_grid_cells" yaml:"min_grid_cells"`

	// Seed for target placement; 0 seeds from the clock
	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultTuning returns the stock tuning
func DefaultTuning() Tuning {
	return Tuning{
		TickInterval:   DefaultTickInterval,
		CellSize:       DefaultCellSize,
		RespawnRetries: DefaultRespawnRetries,
		InputCapacity:  DefaultInputCapacity,
		InitialLength:  DefaultInitialLength,
		Growth:         DefaultGrowth,
		MinGridCells:   DefaultMinGridCells,
	}
}

// WithDefaults fills zero fields with the stock values
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	if t.TickInterval == 0 {
		t.TickInterval = d.TickInterval
	}
	if t.CellSize == 0 {
		t.CellSize = d.CellSize
	}
	if t.RespawnRetries == 0 {
		t.RespawnRetries = d.RespawnRetries
	}
	if t.InputCapacity == 0 {
		t.InputCapacity = d.InputCapacity
	}
	if t.InitialLength == 0 {
		t.InitialLength = d.InitialLength
	}
	if t.Growth == 0 {
		t.Growth = d.Growth
	}
	if t.MinGridCells == 0 {
		t.MinGridCells = d.MinGridCells
	}
	return t
}

// ValidateTuning checks a tuning for values the loop cannot run with
func ValidateTuning(t Tuning) error {
	if t.TickInterval < MinTickInterval || t.TickInterval > MaxTickInterval {
		return fmt.Errorf("tuning validation: tick_interval must be between %s and %s, got %s",
			MinTickInterval, MaxTickInterval, t.TickInterval)
	}
	if t.CellSize <= 0 {
		return fmt.Errorf("tuning validation: cell_size must be positive, got %d", t.CellSize)
	}
	if t.RespawnRetries < 1 || t.RespawnRetries > MaxRespawnTries {
		return fmt.Errorf("tuning validation: respawn_retries must be between 1 and %d, got %d",
			MaxRespawnTries, t.RespawnRetries)
	}
	if t.InputCapacity < 1 || t.InputCapacity > MaxInputCapacity {
		return fmt.Errorf("tuning validation: input_capacity must be between 1 and %d, got %d",
			MaxInputCapacity, t.InputCapacity)
	}
	if t.InitialLength < 1 {
		return fmt.Errorf("tuning validation: initial_length must be at least 1, got %d", t.InitialLength)
	}
	if t.Growth < 1 {
		return fmt.Errorf("tuning validation: growth must be at least 1, got %d", t.Growth)
	}
	if t.MinGridCells < 2 {
		return fmt.Errorf("tuning validation: min_grid_cells must be at least 2, got %d", t.MinGridCells)
	}
	// The starting body is laid out leftwards from the centre
	if t.InitialLength > t.MinGridCells/2+1 {
		return fmt.Errorf("tuning validation: initial_length %d does not fit a %d cell grid",
			t.InitialLength, t.MinGridCells)
	}
	return nil
}

// Config is the surface binding handed to the board by its host
type Config struct {
	Surface  Surface
	Size     int
	Controls ControlMap
}

// ConfigurationError reports a binding the board refuses to run with
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("board configuration: %s: %s", e.Field, e.Reason)
}

// ValidateConfig checks a binding against the tuning it will run under
func ValidateConfig(cfg Config, t Tuning) error {
	if cfg.Surface == nil {
		return &ConfigurationError{Field: "ctx", Reason: "drawing surface is required"}
	}
	if cfg.Size <= 0 {
		return &ConfigurationError{Field: "size", Reason: fmt.Sprintf("must be positive, got %d", cfg.Size)}
	}
	if grid := cfg.Size / t.CellSize; grid < t.MinGridCells {
		return &ConfigurationError{
			Field:  "size",
			Reason: fmt.Sprintf("%dpx holds %d cells of %dpx, need at least %d", cfg.Size, grid, t.CellSize, t.MinGridCells),
		}
	}

	names := []string{"controls.up", "controls.down", "controls.left", "controls.right"}
	seen := make(map[string]string, 4)
	for i, key := range cfg.Controls.Keys() {
		if key == "" {
			return &ConfigurationError{Field: names[i], Reason: "key identifier is required"}
		}
		if other, dup := seen[key]; dup {
			return &ConfigurationError{Field: names[i], Reason: fmt.Sprintf("key %q already bound to %s", key, other)}
		}
		seen[key] = names[i]
	}
	return nil
}
