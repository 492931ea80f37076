package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/snakeboard/game/engine"
	"github.com/wricardo/mcp-training/snakeboard/game/service"
	"github.com/wricardo/mcp-training/snakeboard/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.BoardService
	hub     *websocket.Hub
	surface engine.Surface
	router  *mux.Router
	log     logrus.FieldLogger

	metrics   http.Handler
	staticDir string
}

// Option configures a Server
type Option func(*Server)

// WithMetrics serves handler on /metrics
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithStaticDir serves the browser client from dir
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithSurface sets the surface /ws connections mount. Defaults to a
// RemoteSurface on the hub.
func WithSurface(surface engine.Surface) Option {
	return func(s *Server) {
		s.surface = surface
	}
}

// WithLogger sets the server logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// NewServer creates a new API server. hub may be nil, which disables /ws.
func NewServer(boardService service.BoardService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service:   boardService,
		hub:       hub,
		router:    mux.NewRouter(),
		log:       logrus.StandardLogger(),
		staticDir: "./static/",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "api")
	if s.surface == nil && hub != nil {
		s.surface = websocket.NewRemoteSurface(hub)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Board
	api.HandleFunc("/board", s.handleGetBoard).Methods("GET")
	api.HandleFunc("/board", s.handleStopBoard).Methods("DELETE")
	api.HandleFunc("/board/start", s.handleStart).Methods("POST")
	api.HandleFunc("/board/restart", s.handleRestart).Methods("POST")
	api.HandleFunc("/board/keys", s.handlePress).Methods("POST")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.hub != nil {
		s.router.Handle("/ws", websocket.NewHandler(s.hub, s.service, s.surface, websocket.WithLogger(s.log)))
	}
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}

	// Static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var cfgErr *engine.ConfigurationError
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotMounted), errors.Is(err, service.ErrNotOwner):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidKey), errors.Is(err, service.ErrInvalidProfile), errors.As(err, &cfgErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	respondError(w, status, err.Error())
}

// broadcast pushes a lifecycle change to websocket clients
func (s *Server) broadcast(state *service.BoardState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastState(state)
	}
}

// Board Handlers

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.State(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req service.StartRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	state, err := s.service.Start(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.broadcast(state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Restart(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.broadcast(state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStopBoard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Stop(r.Context()); err != nil {
		s.fail(w, err)
		return
	}

	state, _ := s.service.State(r.Context())
	s.broadcast(state)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Board stopped",
	})
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Press(r.Context(), req.Key)
	if err != nil {
		s.fail(w, err)
		return
	}

	fields := logrus.Fields{"key": result.Key, "delivered": result.Delivered}
	if result.State != nil && result.State.Board != nil {
		fields["score"] = result.State.Board.Score
		fields["pending"] = result.State.Board.Pending
	}
	s.log.WithFields(fields).Debug("key pressed")

	respondJSON(w, http.StatusOK, result)
}

// Profile Handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.service.ListProfiles(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// Accept file names as well as ids
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		name = strings.TrimSuffix(name, ext)
	}

	profile, err := s.service.GetProfile(r.Context(), name)
	if err != nil {
		s.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
