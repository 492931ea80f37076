package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snakeboard",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snakeboard - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Steer the snake (H is its head) onto the target (*). Each target scores a
point and grows the body. Leaving the grid or running into your own body
ends the game.

AVAILABLE TOOLS:
- board_state: Current board, score and heading
- start_game: Start the board (mounts a headless board if no browser is connected)
- restart_game: Throw the current game away and start again
- press_key: Steer by direction (up/down/left/right) or by raw key
- stop_game: Stop and release the board
- list_profiles: List tuning profiles
- get_profile: Show one profile
- game_instructions: Rules and coordinate system

NOTE: The board moves on its own clock. Between two of your calls several
ticks may pass, so always re-read board_state before steering.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board state as an ASCII grid",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the board. Size and profile apply when no surface is mounted yet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "Board size in pixels (optional)",
				},
				"profile": map[string]interface{}{
					"type":        "string",
					"description": "Tuning profile id (optional)",
				},
			},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Discard the current game and start a fresh one",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRestartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "press_key",
		Description: "Queue a heading change. Give a direction, or a raw key identifier such as ArrowUp.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to steer; mapped through the board's controls",
				},
				"key": map[string]interface{}{
					"type":        "string",
					"description": "Raw key identifier, used when direction is not given",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are steering this way",
				},
			},
		},
	}, c.handlePressKey)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_game",
		Description: "Stop the board and release its surface",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStopGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_profiles",
		Description: "List available tuning profiles",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListProfiles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_profile",
		Description: "Get one tuning profile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Profile id",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleGetProfile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules and the coordinate system",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio runs the MCP server on stdin/stdout until the client disconnects
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool arguments, tolerating a missing object
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// Tool handlers

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state service.BoardState
	if err := c.apiCall(ctx, "GET", "/api/board", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoardState(&state)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	var req service.StartRequest
	if size, ok := args["size"].(float64); ok {
		req.Size = int(size)
	}
	req.Profile, _ = args["profile"].(string)

	var state service.BoardState
	if err := c.apiCall(ctx, "POST", "/api/board/start", req, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game started\n\n" + formatBoardState(&state)), nil
}

func (c *Client) handleRestartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state service.BoardState
	if err := c.apiCall(ctx, "POST", "/api/board/restart", nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game restarted\n\n" + formatBoardState(&state)), nil
}

func (c *Client) handlePressKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	key, _ := args["key"].(string)

	if dir, _ := args["direction"].(string); dir != "" {
		d, ok := engine.ParseDirection(strings.ToLower(dir))
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid direction %q, use up, down, left or right", dir)), nil
		}

		// Directions go through the board's own controls
		var state service.BoardState
		if err := c.apiCall(ctx, "GET", "/api/board", nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		controls := engine.DefaultControls
		if state.Board != nil && state.Board.Controls != (engine.ControlMap{}) {
			controls = state.Board.Controls
		}
		key = controls.KeyFor(d)
	}
	if key == "" {
		return mcp.NewToolResultError("either direction or key is required"), nil
	}

	var result service.PressResult
	if err := c.apiCall(ctx, "POST", "/api/board/keys", map[string]string{"key": key}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPressResult(&result)), nil
}

func (c *Client) handleStopGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := c.apiCall(ctx, "DELETE", "/api/board", nil, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Board stopped"), nil
}

func (c *Client) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var profiles []*service.ProfileInfo
	if err := c.apiCall(ctx, "GET", "/api/profiles", nil, &profiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(profiles) == 0 {
		return mcp.NewToolResultText("No profiles available"), nil
	}

	var result strings.Builder
	result.WriteString("Available profiles:\n")
	for _, p := range profiles {
		result.WriteString(fmt.Sprintf("- %s: %s (tick %s, cell %dpx)", p.ProfileID, p.Name, p.TickInterval, p.CellSize))
		if p.Description != "" {
			result.WriteString(" - " + p.Description)
		}
		result.WriteString("\n")
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var profile engine.Profile
	if err := c.apiCall(ctx, "GET", "/api/profiles/"+name, nil, &profile); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatProfile(name, &profile)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(`SNAKEBOARD RULES

GRID
- The board is a square of grid x grid cells; (0,0) is the top-left corner.
- x grows to the right, y grows downwards. "up" decreases y.

SYMBOLS
- H  snake head
- o  snake body
- *  target
- .  empty cell

MOVEMENT
- The snake moves one cell per tick in its heading, whether or not you press anything.
- Each press queues one heading change; at most one is applied per tick.
- Reversing straight onto your own neck is ignored.

SCORING AND ENDING
- Reaching the target scores a point and grows the body.
- Leaving the grid or hitting your body ends the game (GAME OVER).
- Filling the whole grid ends the game as a win.
- After the game ends, use restart_game to play again.`), nil
}

// formatBoardState renders the board as ASCII with a status header
func formatBoardState(state *service.BoardState) string {
	if state == nil || !state.Mounted || state.Board == nil {
		return "No board mounted. Use start_game, or open the browser client."
	}
	snap := state.Board

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Status: %s | Score: %d | Length: %d | Heading: %s | Tick: %d\n",
		snap.Status, snap.Score, len(snap.Body), snap.Heading, snap.Tick))

	if head, ok := snap.Head(); ok {
		line := fmt.Sprintf("Head: (%d,%d)", head.X, head.Y)
		if !snap.Won {
			line += fmt.Sprintf(" | Target: (%d,%d) | Distance: %d",
				snap.Target.X, snap.Target.Y, engine.ManhattanDistance(head, snap.Target))
		}
		result.WriteString(line + "\n")
	}
	if state.Profile != "" {
		result.WriteString(fmt.Sprintf("Profile: %s\n", state.Profile))
	}
	result.WriteString("\n")
	result.WriteString(formatGrid(snap))

	if snap.Status == engine.StatusOver {
		if snap.Won {
			result.WriteString("\nBOARD CLEARED")
		} else {
			result.WriteString(fmt.Sprintf("\nGAME OVER (%s)", snap.Reason))
		}
	}
	return result.String()
}

// formatGrid draws one character per cell
func formatGrid(snap *engine.Snapshot) string {
	if snap.Grid <= 0 {
		return ""
	}
	rows := make([][]byte, snap.Grid)
	for y := range rows {
		rows[y] = bytes.Repeat([]byte("."), snap.Grid)
	}
	set := func(p engine.Position, ch byte) {
		if p.X >= 0 && p.X < snap.Grid && p.Y >= 0 && p.Y < snap.Grid {
			rows[p.Y][p.X] = ch
		}
	}

	if !snap.Won && snap.Status != engine.StatusIdle {
		set(snap.Target, '*')
	}
	for i := len(snap.Body) - 1; i >= 0; i-- {
		ch := byte('o')
		if i == 0 {
			ch = 'H'
		}
		set(snap.Body[i], ch)
	}

	var result strings.Builder
	for _, row := range rows {
		result.Write(row)
		result.WriteString("\n")
	}
	return result.String()
}

func formatPressResult(result *service.PressResult) string {
	if result.Delivered == 0 {
		return fmt.Sprintf("Key %s was not delivered: the board is not running", result.Key)
	}
	var out strings.Builder
	out.WriteString(fmt.Sprintf("Key %s queued", result.Key))
	if result.State != nil && result.State.Board != nil {
		out.WriteString(fmt.Sprintf(" (%d pending)\n\n", result.State.Board.Pending))
		out.WriteString(formatBoardState(result.State))
	}
	return out.String()
}

func formatProfile(id string, p *engine.Profile) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Profile %s: %s\n", id, p.Name))
	if p.Description != "" {
		result.WriteString(p.Description + "\n")
	}
	t := p.Tuning.WithDefaults()
	result.WriteString(fmt.Sprintf("Tick interval: %s\nCell size: %dpx\nInitial length: %d\nGrowth per target: %d\n",
		t.TickInterval, t.CellSize, t.InitialLength, t.Growth))
	controls := p.ControlsOrDefault()
	result.WriteString(fmt.Sprintf("Controls: up=%s down=%s left=%s right=%s\n",
		controls.Up, controls.Down, controls.Left, controls.Right))
	return result.String()
}
