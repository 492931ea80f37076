// Command analyze prints quick, human-readable heuristics about the tuning
// profiles in the project's configs directory. For each profile and common
// board size it summarizes the grid, the best possible score, and how long
// the snake needs to cross the board or reach a first target.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wricardo/mcp-training/snakeboard/game/config"
	"github.com/wricardo/mcp-training/snakeboard/game/engine"
)

// boardSizes are the pixel sizes hosts commonly mount
var boardSizes = []int{400, 640}

// AnalysisPoint is the summary of one profile on one board size
type AnalysisPoint struct {
	Size         int
	Grid         int
	Cells        int
	MaxScore     int
	CrossTime    time.Duration
	AvgTarget    float64 // mean Manhattan distance from the start cell to a target
	AvgReachTime time.Duration
	Fits         bool
	Problem      string
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Printf("Error opening configs: %v\n", err)
		os.Exit(1)
	}

	profiles, err := manager.ListProfiles()
	if err != nil {
		fmt.Printf("Error listing profiles: %v\n", err)
		os.Exit(1)
	}

	for _, info := range profiles {
		fmt.Printf("\n=== Analyzing %s ===\n", info.Filename)
		profile, err := manager.LoadProfile(info.ProfileID)
		if err != nil {
			fmt.Printf("Error loading profile: %v\n", err)
			continue
		}
		analyzeProfile(os.Stdout, profile)
	}
}

func analyzeProfile(w io.Writer, profile *engine.Profile) {
	tuning := profile.Tuning.WithDefaults()

	fmt.Fprintf(w, "Name: %s\n", profile.Name)
	fmt.Fprintf(w, "Tick Interval: %s (%.1f moves/s)\n", tuning.TickInterval, float64(time.Second)/float64(tuning.TickInterval))
	fmt.Fprintf(w, "Cell Size: %dpx\n", tuning.CellSize)
	fmt.Fprintf(w, "Input Queue: %d\n", tuning.InputCapacity)
	fmt.Fprintf(w, "Body: length %d, growth %d per target\n", tuning.InitialLength, tuning.Growth)

	for _, size := range boardSizes {
		p := analyzeSize(tuning, size)
		if !p.Fits {
			fmt.Fprintf(w, "⚠️  WARNING: %dpx board rejected: %s\n", size, p.Problem)
			continue
		}
		fmt.Fprintf(w, "%dpx: %dx%d grid, %d cells\n", p.Size, p.Grid, p.Grid, p.Cells)
		fmt.Fprintf(w, "   Max score: %d\n", p.MaxScore)
		fmt.Fprintf(w, "   Crossing time: %s\n", p.CrossTime)
		fmt.Fprintf(w, "   First target: %.1f cells away on average (%s)\n", p.AvgTarget, p.AvgReachTime)
	}

	if tuning.InputCapacity == 1 {
		fmt.Fprintf(w, "⚠️  A queue of 1 drops the first key of a quick two-key turn\n")
	} else {
		fmt.Fprintf(w, "✅ Queue holds a %d-key turn sequence\n", tuning.InputCapacity)
	}
}

// analyzeSize evaluates tuning on a size x size pixel board
func analyzeSize(tuning engine.Tuning, size int) AnalysisPoint {
	p := AnalysisPoint{Size: size, Grid: size / tuning.CellSize}

	err := engine.ValidateConfig(engine.Config{
		Surface:  engine.NewRecordingSurface(size, 1),
		Size:     size,
		Controls: engine.DefaultControls,
	}, tuning)
	if err != nil {
		p.Problem = err.Error()
		return p
	}
	p.Fits = true

	p.Cells = p.Grid * p.Grid
	p.MaxScore = maxScore(p.Cells, tuning.InitialLength, tuning.Growth)
	// From the centre heading right the wall is grid/2 cells away, a full
	// crossing is grid cells
	p.CrossTime = time.Duration(p.Grid) * tuning.TickInterval
	p.AvgTarget = meanTargetDistance(p.Grid)
	p.AvgReachTime = time.Duration(p.AvgTarget * float64(tuning.TickInterval))
	return p
}

// maxScore counts the targets that fit before the body fills the grid. Every
// target adds growth cells; the last one may only partly fit.
func maxScore(cells, initialLength, growth int) int {
	free := cells - initialLength
	if free <= 0 || growth <= 0 {
		return 0
	}
	return (free + growth - 1) / growth
}

// meanTargetDistance averages the Manhattan distance from the start cell to
// every other cell of the grid
func meanTargetDistance(grid int) float64 {
	if grid <= 1 {
		return 0
	}
	start := engine.Position{X: grid / 2, Y: grid / 2}
	total := 0
	for y := 0; y < grid; y++ {
		for x := 0; x < grid; x++ {
			total += engine.ManhattanDistance(start, engine.Position{X: x, Y: y})
		}
	}
	return float64(total) / float64(grid*grid-1)
}
