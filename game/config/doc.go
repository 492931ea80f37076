// Package config provides tuning profile management for snakeboard.
//
// The config package handles:
//   - Loading tuning profiles from JSON and YAML files
//   - Profile validation before use or save
//   - Default profile selection
//   - Profile discovery and listing
//
// Profile Format:
//
// Profiles live in the configs directory as <id>.json, <id>.yaml or <id>.yml.
// Each profile names its tick interval as a duration string, the cell size in
// pixels, the respawn retry budget, the input queue capacity, the starting
// length and growth per target, and optionally a control map:
//
//	name: Fast
//	tuning:
//	  tick_interval: 80ms
//	  cell_size: 20
//	controls:
//	  up: KeyW
//	  down: KeyS
//	  left: KeyA
//	  right: KeyD
//
// Fields left out fall back to engine.DefaultTuning and engine.DefaultControls.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := manager.LoadProfile("fast")
//	profiles, err := manager.ListProfiles()
//	fallback := manager.GetDefault()
package config
