package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	boardSize    = 640
	headerHeight = 40
	screenWidth  = boardSize
	screenHeight = boardSize + headerHeight
	defaultURL   = "http://localhost:8080"
)

// ScreenType represents different screens in the app
type ScreenType int

const (
	ScreenWelcome ScreenType = iota
	ScreenBoard
)

var background = color.RGBA{16, 20, 24, 255}

// DrawOp is one draw call of a remote frame
type DrawOp struct {
	Op    string `json:"op"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w,omitempty"`
	H     int    `json:"h,omitempty"`
	Color string `json:"color,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Frame is a full redraw sent by the server
type Frame struct {
	Size int      `json:"size"`
	Ops  []DrawOp `json:"ops"`
}

// Snapshot is the part of the board state the header shows
type Snapshot struct {
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Won     bool   `json:"won"`
	Score   int    `json:"score"`
	Heading string `json:"heading"`
	Grid    int    `json:"grid"`
	Tick    int    `json:"tick"`
}

// BoardState mirrors the server's board state
type BoardState struct {
	Mounted bool      `json:"mounted"`
	Running bool      `json:"running"`
	Profile string    `json:"profile,omitempty"`
	Owner   string    `json:"owner,omitempty"`
	Board   *Snapshot `json:"board,omitempty"`
}

// WSMessage represents a server event
type WSMessage struct {
	Event    string      `json:"event"`
	ClientID string      `json:"client_id,omitempty"`
	Frame    *Frame      `json:"frame,omitempty"`
	State    *BoardState `json:"state,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// ClientMessage is what the desktop sends
type ClientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
}

// ProfileListItem represents a tuning profile from the server
type ProfileListItem struct {
	ProfileID    string `json:"profile_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TickInterval string `json:"tick_interval"`
}

// WelcomeScreen manages the profile selection state
type WelcomeScreen struct {
	profiles  []ProfileListItem
	cursorPos int
	loading   bool
	errorMsg  string
	spectate  bool
}

// Game represents the desktop board host
type Game struct {
	baseURL       string
	currentScreen ScreenType
	welcomeScreen *WelcomeScreen

	stateMutex sync.RWMutex
	conn       *websocket.Conn
	writeMutex sync.Mutex
	clientID   string
	frame      *Frame
	state      *BoardState
	lastError  string
	lastUpdate time.Time
}

// NewGame creates a new desktop client. A profile argument skips the welcome
// screen.
func NewGame(baseURL, profile string) *Game {
	g := &Game{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		currentScreen: ScreenWelcome,
		welcomeScreen: &WelcomeScreen{},
	}

	if profile != "" {
		g.connect(profile, false)
		return g
	}
	g.loadProfiles()
	return g
}

// loadProfiles fetches the profile list for the welcome screen
func (g *Game) loadProfiles() {
	g.stateMutex.Lock()
	ws := g.welcomeScreen
	ws.loading = true
	ws.errorMsg = ""
	g.stateMutex.Unlock()

	go func() {
		profiles, err := fetchProfiles(g.baseURL)
		g.stateMutex.Lock()
		defer g.stateMutex.Unlock()
		ws.loading = false
		if err != nil {
			ws.errorMsg = err.Error()
			return
		}
		ws.profiles = profiles
		if ws.cursorPos >= len(profiles) {
			ws.cursorPos = 0
		}
	}()
}

func fetchProfiles(baseURL string) ([]ProfileListItem, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/api/profiles")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list profiles: HTTP %d", resp.StatusCode)
	}

	var profiles []ProfileListItem
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	return profiles, nil
}

// socketURL builds the /ws address. Spectators connect without a size.
func socketURL(baseURL, profile string, spectate bool) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	q := url.Values{}
	if !spectate {
		q.Set("size", strconv.Itoa(boardSize))
		if profile != "" {
			q.Set("profile", profile)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// connect dials the board socket and switches to the board screen
func (g *Game) connect(profile string, spectate bool) {
	wsURL, err := socketURL(g.baseURL, profile, spectate)
	if err != nil {
		g.setWelcomeError(err.Error())
		return
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		g.setWelcomeError(fmt.Sprintf("connect: %v", err))
		log.Printf("Failed to connect to %s: %v", wsURL, err)
		return
	}

	g.stateMutex.Lock()
	g.conn = conn
	g.frame = nil
	g.state = nil
	g.lastError = ""
	g.stateMutex.Unlock()

	g.currentScreen = ScreenBoard
	log.Printf("Connected to %s", wsURL)
	go g.listen(conn)
}

func (g *Game) setWelcomeError(msg string) {
	g.stateMutex.Lock()
	g.welcomeScreen.errorMsg = msg
	g.stateMutex.Unlock()
}

// listen applies server events until the socket closes
func (g *Game) listen(conn *websocket.Conn) {
	defer conn.Close()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			g.stateMutex.Lock()
			if g.conn == conn {
				g.conn = nil
				g.lastError = "disconnected"
			}
			g.stateMutex.Unlock()
			return
		}
		g.apply(&msg)
	}
}

// apply folds one server event into the client state
func (g *Game) apply(msg *WSMessage) {
	g.stateMutex.Lock()
	defer g.stateMutex.Unlock()

	g.lastUpdate = time.Now()
	switch msg.Event {
	case "hello":
		g.clientID = msg.ClientID
	case "frame":
		if msg.Frame != nil {
			g.frame = msg.Frame
		}
	case "state":
		if msg.State != nil {
			g.state = msg.State
		}
	case "error":
		g.lastError = msg.Error
	}
}

// send writes a message to the board socket
func (g *Game) send(msg ClientMessage) error {
	g.stateMutex.RLock()
	conn := g.conn
	g.stateMutex.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}

	g.writeMutex.Lock()
	defer g.writeMutex.Unlock()
	return conn.WriteJSON(msg)
}

func (g *Game) disconnect() {
	g.stateMutex.Lock()
	conn := g.conn
	g.conn = nil
	g.stateMutex.Unlock()

	if conn != nil {
		g.writeMutex.Lock()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		g.writeMutex.Unlock()
		conn.Close()
	}
}

// Update handles input
func (g *Game) Update() error {
	if g.currentScreen == ScreenWelcome {
		return g.updateWelcomeScreen()
	}
	return g.updateBoardScreen()
}

func (g *Game) updateWelcomeScreen() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.loadProfiles()
	}

	g.stateMutex.Lock()
	ws := g.welcomeScreen
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && ws.cursorPos < len(ws.profiles)-1 {
		ws.cursorPos++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && ws.cursorPos > 0 {
		ws.cursorPos--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		ws.spectate = !ws.spectate
	}
	profile := ""
	if ws.cursorPos < len(ws.profiles) {
		profile = ws.profiles[ws.cursorPos].ProfileID
	}
	spectate := ws.spectate
	g.stateMutex.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.connect(profile, spectate)
	}
	return nil
}

func (g *Game) updateBoardScreen() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.disconnect()
		g.currentScreen = ScreenWelcome
		g.loadProfiles()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if err := g.send(ClientMessage{Type: "restart"}); err != nil {
			log.Printf("restart: %v", err)
		}
	}

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		code := keyCode(k)
		if code == "" {
			continue
		}
		if err := g.send(ClientMessage{Type: "key", Key: code}); err != nil {
			log.Printf("key %s: %v", code, err)
			return nil
		}
	}
	return nil
}

// keyCode maps an ebiten key to its browser KeyboardEvent.code
func keyCode(k ebiten.Key) string {
	switch {
	case k >= ebiten.KeyA && k <= ebiten.KeyZ:
		return "Key" + string(rune('A'+int(k-ebiten.KeyA)))
	case k >= ebiten.KeyDigit0 && k <= ebiten.KeyDigit9:
		return "Digit" + string(rune('0'+int(k-ebiten.KeyDigit0)))
	}

	switch k {
	case ebiten.KeyArrowUp:
		return "ArrowUp"
	case ebiten.KeyArrowDown:
		return "ArrowDown"
	case ebiten.KeyArrowLeft:
		return "ArrowLeft"
	case ebiten.KeyArrowRight:
		return "ArrowRight"
	case ebiten.KeySpace:
		return "Space"
	case ebiten.KeyEnter:
		return "Enter"
	}
	return ""
}

// Draw renders the current screen
func (g *Game) Draw(screen *ebiten.Image) {
	if g.currentScreen == ScreenWelcome {
		g.drawWelcomeScreen(screen)
		return
	}
	g.drawBoardScreen(screen)
}

func (g *Game) drawWelcomeScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()
	ws := g.welcomeScreen

	y := 20
	ebitenutil.DebugPrintAt(screen, "=== SNAKEBOARD - PROFILE SELECT ===", 160, y)
	y += 30

	if ws.loading {
		ebitenutil.DebugPrintAt(screen, "Loading profiles...", 20, y)
		y += 20
	}
	if ws.errorMsg != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("ERROR: %s", ws.errorMsg), 20, y)
		y += 20
	}

	ebitenutil.DebugPrintAt(screen, "Profiles:", 20, y)
	y += 20
	if len(ws.profiles) == 0 && !ws.loading {
		ebitenutil.DebugPrintAt(screen, "  No profiles found. Enter uses the server default.", 20, y)
		y += 20
	}
	for i, p := range ws.profiles {
		marker := "  "
		if i == ws.cursorPos {
			marker = "> "
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s%s (%s) - %s", marker, p.Name, p.TickInterval, p.Description), 20, y)
		y += 16
	}

	y += 20
	mode := "play"
	if ws.spectate {
		mode = "spectate"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Mode: %s", mode), 20, y)
	y += 30

	ebitenutil.DebugPrintAt(screen, "CONTROLS:", 20, y)
	y += 16
	ebitenutil.DebugPrintAt(screen, "  UP/DOWN  - Choose profile", 20, y)
	y += 16
	ebitenutil.DebugPrintAt(screen, "  TAB      - Toggle play/spectate", 20, y)
	y += 16
	ebitenutil.DebugPrintAt(screen, "  ENTER    - Connect", 20, y)
	y += 16
	ebitenutil.DebugPrintAt(screen, "  F5       - Refresh profiles", 20, y)
	y += 16
	ebitenutil.DebugPrintAt(screen, "  ESC      - Quit", 20, y)
}

func (g *Game) drawBoardScreen(screen *ebiten.Image) {
	g.stateMutex.RLock()
	defer g.stateMutex.RUnlock()

	ebitenutil.DebugPrintAt(screen, headerLine(g.state, g.conn != nil), 10, 5)
	ebitenutil.DebugPrintAt(screen, "F2: Restart | ESC: Menu", 10, 20)
	if g.lastError != "" {
		ebitenutil.DebugPrintAt(screen, "ERROR: "+g.lastError, 300, 20)
	}

	ebitenutil.DrawRect(screen, 0, headerHeight, boardSize, boardSize, background)
	if g.frame == nil {
		ebitenutil.DebugPrintAt(screen, "Waiting for the first frame...", 20, headerHeight+20)
		return
	}

	scale := 1.0
	if g.frame.Size > 0 {
		scale = float64(boardSize) / float64(g.frame.Size)
	}
	for _, op := range g.frame.Ops {
		x := float64(op.X) * scale
		y := float64(op.Y)*scale + headerHeight
		switch op.Op {
		case "clear":
			ebitenutil.DrawRect(screen, x, y, float64(op.W)*scale, float64(op.H)*scale, background)
		case "fill":
			ebitenutil.DrawRect(screen, x, y, float64(op.W)*scale, float64(op.H)*scale, parseHexColor(op.Color))
		case "text":
			// Text ops are baseline-anchored; debug text is top-anchored
			ebitenutil.DebugPrintAt(screen, op.Text, int(x), int(y)-12)
		}
	}
}

// headerLine summarizes the board for the status bar
func headerLine(state *BoardState, connected bool) string {
	conn := "WS"
	if !connected {
		conn = "OFFLINE"
	}
	if state == nil {
		return fmt.Sprintf("[%s] waiting for state", conn)
	}
	if !state.Mounted || state.Board == nil {
		return fmt.Sprintf("[%s] board not mounted", conn)
	}

	b := state.Board
	line := fmt.Sprintf("[%s] %s | SC:%d | %s | TICK:%d", conn, strings.ToUpper(b.Status), b.Score, b.Heading, b.Tick)
	if state.Profile != "" {
		line += " | " + state.Profile
	}
	if b.Won {
		line += " CLEARED!"
	} else if b.Status == "over" {
		line += " GAME OVER"
	}
	return line
}

// parseHexColor reads #rgb or #rrggbb, falling back to light gray
func parseHexColor(s string) color.RGBA {
	fallback := color.RGBA{200, 200, 200, 255}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	baseURL := os.Getenv("SNAKEBOARD_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}

	// Accept a profile id to connect straight away
	profile := ""
	if len(os.Args) > 1 {
		profile = os.Args[1]
	}

	game := NewGame(baseURL, profile)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Snakeboard - Desktop Client")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
	game.disconnect()
}
