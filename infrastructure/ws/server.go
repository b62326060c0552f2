// Package ws exposes the relay over HTTP: a websocket endpoint carrying
// the event protocol, plus REST endpoints for accounts and health.
package ws

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/services"
	"encoding/json"
	goerrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

type Server struct {
	log         *slog.Logger
	chatService services.IChatService
	authService services.IAuthService
	registry    *runtime.Registry
	monitor     *observability.Monitor
	upgrader    websocket.Upgrader
	bufferSize  int
}

func NewServer(
	log *slog.Logger,
	chatService services.IChatService,
	authService services.IAuthService,
	registry *runtime.Registry,
	monitor *observability.Monitor,
	bufferSize int,
) *Server {
	return &Server{
		log:         log,
		chatService: chatService,
		authService: authService,
		registry:    registry,
		monitor:     monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		bufferSize: bufferSize,
	}
}

// Router wires the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/ws", s.handleSocket)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "chat-relay",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Count(),
		"counters": s.monitor.Snapshot(),
	})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token, err := s.authService.Register(req.Email, req.Username, req.Password)
	if err != nil {
		status := http.StatusBadRequest
		if goerrors.Is(err, errors.ErrUserAlreadyExists) {
			status = http.StatusConflict
		}
		respondJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	respondJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": errors.ErrInvalidCredentials.Error()})
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
