// Command validate provides a small CLI that validates the tuning profiles in
// the ../configs directory. It checks:
//   - JSON or YAML structure
//   - Tuning bounds (tick interval, cell size, queue capacity, growth)
//   - Controls bind four distinct keys
//   - The profile fits the default headless board size
//   - Profile ids are unique across extensions
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/snakeboard/game/config"
	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateProfile loads and validates a single profile file
func validateProfile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	profile, err := config.ReadProfile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to parse profile: %v", err))
		return result
	}
	if profile.Name == "" {
		profile.Name = profileID(filePath)
	}

	if err := engine.ValidateProfile(profile); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	fit := validateFit(profile.Tuning.WithDefaults(), service.DefaultHeadlessSize)
	if !fit.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, fit.Errors...)

	// Add informational data
	if result.Valid {
		tuning := profile.Tuning.WithDefaults()
		controls := profile.ControlsOrDefault()
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", profile.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Tick interval: %s", tuning.TickInterval))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Cell size: %dpx", tuning.CellSize))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Input queue: %d", tuning.InputCapacity))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Body: length %d, growth %d", tuning.InitialLength, tuning.Growth))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Controls: %s", strings.Join(controls.Keys(), " ")))
	}

	return result
}

// validateFit checks that a board of size pixels yields a playable grid under
// tuning, using the same rules the board applies when it is bound.
func validateFit(tuning engine.Tuning, size int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	err := engine.ValidateConfig(engine.Config{
		Surface:  engine.NewRecordingSurface(size, 1),
		Size:     size,
		Controls: engine.DefaultControls,
	}, tuning)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Does not fit a %dpx board: %v", size, err))
		return result
	}

	grid := size / tuning.CellSize
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid at %dpx: %dx%d", size, grid, grid))
	return result
}

// duplicateIDs reports profile ids that more than one file claims
func duplicateIDs(files []string) []string {
	owners := make(map[string][]string)
	for _, file := range files {
		id := profileID(file)
		owners[id] = append(owners[id], filepath.Base(file))
	}

	var dups []string
	for id, names := range owners {
		if len(names) > 1 {
			sort.Strings(names)
			dups = append(dups, fmt.Sprintf("Profile id %q defined by %s", id, strings.Join(names, ", ")))
		}
	}
	sort.Strings(dups)
	return dups
}

func profileID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// profileFiles lists every JSON and YAML file in dir
func profileFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main scans ../configs for profile files and validates each one, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	files, err := profileFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding profile files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateProfile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	if dups := duplicateIDs(files); len(dups) > 0 {
		allValid = false
		fmt.Printf("\n%s\n", strings.Repeat("=", 40))
		for _, dup := range dups {
			fmt.Println("❌ " + dup)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All profiles are valid!")
	} else {
		fmt.Println("❌ Some profiles have errors")
		os.Exit(1)
	}
}
