package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Controls struct {
	Up    string `json:"up"`
	Down  string `json:"down"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

// KeyFor returns the key bound to a direction name
func (c Controls) KeyFor(dir string) string {
	switch dir {
	case "up":
		return c.Up
	case "down":
		return c.Down
	case "left":
		return c.Left
	case "right":
		return c.Right
	}
	return ""
}

type Snapshot struct {
	Status   string     `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	Won      bool       `json:"won"`
	Score    int        `json:"score"`
	Heading  string     `json:"heading"`
	Body     []Position `json:"body"`
	Target   Position   `json:"target"`
	Grid     int        `json:"grid"`
	Tick     uint64     `json:"tick"`
	Pending  int        `json:"pending_inputs"`
	Controls Controls   `json:"controls"`
}

type BoardState struct {
	Mounted bool      `json:"mounted"`
	Running bool      `json:"running"`
	Profile string    `json:"profile,omitempty"`
	Owner   string    `json:"owner,omitempty"`
	Board   *Snapshot `json:"board,omitempty"`
}

type StartRequest struct {
	Size    int    `json:"size,omitempty"`
	Profile string `json:"profile,omitempty"`
}

type PressResponse struct {
	Key       string      `json:"key"`
	Delivered int         `json:"delivered"`
	State     *BoardState `json:"state"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Start(size int, profile string) (*BoardState, error) {
	reqBody, err := json.Marshal(StartRequest{Size: size, Profile: profile})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var state BoardState
	if err := c.post("/api/board/start", reqBody, &state); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	return &state, nil
}

func (c *Client) Restart() (*BoardState, error) {
	var state BoardState
	if err := c.post("/api/board/restart", nil, &state); err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	return &state, nil
}

func (c *Client) GetState() (*BoardState, error) {
	resp, err := c.client.Get(c.baseURL + "/api/board")
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	defer resp.Body.Close()

	var state BoardState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return &state, nil
}

func (c *Client) Press(key string) (*PressResponse, error) {
	reqBody, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	var result PressResponse
	if err := c.post("/api/board/keys", reqBody, &result); err != nil {
		return nil, fmt.Errorf("press %s: %w", key, err)
	}
	return &result, nil
}

func (c *Client) post(path string, reqBody []byte, result interface{}) error {
	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s - %s", resp.Status, string(bytes.TrimSpace(body)))
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// Attempt is the outcome of one game
type Attempt struct {
	Score  int
	Ticks  uint64
	Reason string
	Won    bool
}

// Autopilot plays the board through the REST API, one decision per tick
type Autopilot struct {
	client   *Client
	strategy *ChaseStrategy
	poll     time.Duration
	maxTicks uint64
	verbose  bool
}

// step makes one decision for the current snapshot. It returns the key it
// pressed, or "" when the heading already matches.
func (a *Autopilot) step(board *Snapshot) (string, error) {
	dir := a.strategy.NextMove(board)
	if dir == "" || dir == board.Heading {
		return "", nil
	}

	controls := board.Controls
	if controls == (Controls{}) {
		controls = Controls{Up: "ArrowUp", Down: "ArrowDown", Left: "ArrowLeft", Right: "ArrowRight"}
	}
	key := controls.KeyFor(dir)
	if _, err := a.client.Press(key); err != nil {
		return "", err
	}
	return key, nil
}

// play polls the board until the session ends and steers once per new tick
func (a *Autopilot) play(state *BoardState) (Attempt, error) {
	a.strategy.Reset()
	var lastTick uint64
	decided := false

	for {
		if state == nil || state.Board == nil {
			return Attempt{}, fmt.Errorf("board is not mounted")
		}
		board := state.Board

		if board.Status == "over" {
			return Attempt{Score: board.Score, Ticks: board.Tick, Reason: board.Reason, Won: board.Won}, nil
		}
		if a.maxTicks > 0 && board.Tick >= a.maxTicks {
			return Attempt{Score: board.Score, Ticks: board.Tick, Reason: "tick limit"}, nil
		}

		if !decided || board.Tick != lastTick {
			key, err := a.step(board)
			if err != nil {
				return Attempt{}, err
			}
			if a.verbose && len(board.Body) > 0 && (key != "" || board.Tick%50 == 0) {
				log.Printf("Tick %d: head %v, target (%d,%d), score %d, plan %d, key %q",
					board.Tick, board.Body[0], board.Target.X, board.Target.Y, board.Score, a.strategy.PlanLength(), key)
			}
			lastTick = board.Tick
			decided = true
		}

		time.Sleep(a.poll)
		next, err := a.client.GetState()
		if err != nil {
			return Attempt{}, err
		}
		state = next
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Board server URL")
	profile := flag.String("profile", "", "Tuning profile (classic, fast, wasd)")
	size := flag.Int("size", 400, "Board size in pixels when nothing is mounted")
	maxTicks := flag.Int("max-ticks", 5000, "Maximum ticks per attempt")
	maxAttempts := flag.Int("max-attempts", 10, "Maximum attempts before giving up")
	pollMs := flag.Int("poll", 30, "Polling interval in milliseconds, keep it below the tick interval")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	log.Printf("Connecting to board server at %s", *serverURL)
	client := NewClient(*serverURL)

	state, err := client.Start(*size, *profile)
	if err != nil {
		log.Fatalf("Failed to start board: %v", err)
	}
	if state.Board == nil {
		log.Fatalf("Board started without a snapshot")
	}
	log.Printf("✨ Board started: %dx%d grid, owner %s, profile %q",
		state.Board.Grid, state.Board.Grid, state.Owner, state.Profile)

	pilot := &Autopilot{
		client:   client,
		strategy: NewChaseStrategy(state.Board.Grid),
		poll:     time.Duration(*pollMs) * time.Millisecond,
		maxTicks: uint64(*maxTicks),
		verbose:  *verbose,
	}

	best := 0
	attemptNum := 0
	for attemptNum < *maxAttempts {
		attemptNum++

		if attemptNum > 1 {
			state, err = client.Restart()
			if err != nil {
				log.Printf("Failed to restart: %v", err)
				break
			}
		}

		log.Printf("\n=== 🎮 Attempt %d/%d ===", attemptNum, *maxAttempts)

		result, err := pilot.play(state)
		if err != nil {
			log.Printf("Attempt %d aborted: %v", attemptNum, err)
			break
		}
		if result.Score > best {
			best = result.Score
		}
		log.Printf("Attempt %d: Score=%d, Ticks=%d, Reason=%s", attemptNum, result.Score, result.Ticks, result.Reason)

		if result.Won {
			log.Printf("\n🎉 BOARD CLEARED in attempt %d after %d ticks!", attemptNum, result.Ticks)
			os.Exit(0)
		}
	}

	log.Printf("\n❌ Board not cleared after %d attempts, best score %d", attemptNum, best)
	os.Exit(1)
}
