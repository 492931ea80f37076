package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
)

var (
	ErrProfileNotFound = service.ErrProfileNotFound
	ErrInvalidProfile  = service.ErrInvalidProfile
)

// DefaultProfileName is loaded as the default when present
const DefaultProfileName = "classic"

// extensions are tried in this order when a profile name has none
var extensions = []string{".json", ".yaml", ".yml"}

// Manager handles tuning profile loading and caching
type Manager struct {
	configDir      string
	defaultProfile *engine.Profile
	profiles       map[string]*engine.Profile
	mu             sync.RWMutex
}

// NewManager creates a new profile manager reading from configDir
func NewManager(configDir string) (*Manager, error) {
	info, err := os.Stat(configDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		profiles:  make(map[string]*engine.Profile),
	}
	m.loadDefaultProfile()
	return m, nil
}

// LoadProfile loads a profile by id, with or without its file extension
func (m *Manager) LoadProfile(name string) (*engine.Profile, error) {
	id := profileID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("%w: invalid name %q", ErrProfileNotFound, name)
	}

	m.mu.RLock()
	if profile, exists := m.profiles[id]; exists {
		m.mu.RUnlock()
		return profile, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if profile, exists := m.profiles[id]; exists {
		return profile, nil
	}

	path, err := m.findFile(name)
	if err != nil {
		return nil, err
	}
	profile, err := ReadProfile(path)
	if err != nil {
		return nil, err
	}
	if profile.Name == "" {
		profile.Name = id
	}
	if err := engine.ValidateProfile(profile); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, id, err)
	}

	m.profiles[id] = profile
	return profile, nil
}

// ListProfiles returns information about every valid profile file
func (m *Manager) ListProfiles() ([]*service.ProfileInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	profiles := []*service.ProfileInfo{}
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !hasProfileExt(entry.Name()) {
			continue
		}
		id := profileID(entry.Name())
		if seen[id] {
			continue
		}

		profile, err := m.LoadProfile(entry.Name())
		if err != nil {
			// Skip invalid profiles
			continue
		}
		seen[id] = true

		tuning := profile.Tuning.WithDefaults()
		profiles = append(profiles, &service.ProfileInfo{
			Filename:     entry.Name(),
			ProfileID:    id,
			Name:         profile.Name,
			Description:  profile.Description,
			TickInterval: tuning.TickInterval.String(),
			CellSize:     tuning.CellSize,
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ProfileID < profiles[j].ProfileID })
	return profiles, nil
}

// GetDefault returns the default profile
func (m *Manager) GetDefault() *engine.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultProfile
}

// SetDefault sets the default profile by id
func (m *Manager) SetDefault(name string) error {
	profile, err := m.LoadProfile(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultProfile = profile
	return nil
}

// RefreshCache drops cached profiles and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.profiles = make(map[string]*engine.Profile)
	m.mu.Unlock()

	m.loadDefaultProfile()
}

// SaveProfile writes a profile to disk. A .yaml or .yml name selects YAML,
// anything else is written as JSON.
func (m *Manager) SaveProfile(name string, profile *engine.Profile) error {
	if err := engine.ValidateProfile(profile); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	id := profileID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidProfile, name)
	}

	var data []byte
	var err error
	filename := name
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(profile)
	default:
		if filepath.Ext(name) != ".json" {
			filename = id + ".json"
		}
		data, err = json.MarshalIndent(profile, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}

	m.mu.Lock()
	m.profiles[id] = profile
	m.mu.Unlock()
	return nil
}

// loadDefaultProfile prefers classic, then the first valid file, then the
// built-in tuning
func (m *Manager) loadDefaultProfile() {
	profile, err := m.LoadProfile(DefaultProfileName)
	if err != nil {
		profiles, listErr := m.ListProfiles()
		if listErr == nil && len(profiles) > 0 {
			profile, err = m.LoadProfile(profiles[0].Filename)
		}
	}
	if err != nil || profile == nil {
		profile = createMinimalProfile()
	}

	m.mu.Lock()
	m.defaultProfile = profile
	m.mu.Unlock()
}

// findFile locates the file behind a profile name
func (m *Manager) findFile(name string) (string, error) {
	candidates := []string{name}
	if !hasProfileExt(name) {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}

	for _, c := range candidates {
		path := filepath.Join(m.configDir, c)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrProfileNotFound, profileID(name))
}

// ReadProfile parses a JSON or YAML profile file without validating it
func ReadProfile(path string) (*engine.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var profile engine.Profile
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &profile)
	default:
		err = json.Unmarshal(data, &profile)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidProfile, filepath.Base(path), err)
	}
	return &profile, nil
}

func hasProfileExt(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// profileID strips a known extension from name
func profileID(name string) string {
	if hasProfileExt(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// createMinimalProfile returns the built-in default profile
func createMinimalProfile() *engine.Profile {
	return &engine.Profile{
		Name:        "default",
		Description: "Built-in tuning",
		Tuning:      engine.DefaultTuning(),
		Controls:    engine.DefaultControls,
	}
}
