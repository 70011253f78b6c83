package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"livechat/internal/config"
	"livechat/internal/domain"
	"livechat/internal/security"
	"livechat/internal/service"
	"livechat/internal/store"
	"livechat/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, the
// connection registry, and middleware.
func NewRouter(cfg *config.Config, repos *store.Repositories, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Live-session layer: one registry shared by every connection handler,
	// with the dispatcher as the single fan-out seam.
	registry := ws.NewRegistry()
	dispatcher := ws.NewDispatcher(registry)
	typing := ws.NewTypingTracker(dispatcher)
	presence := ws.NewPresence(registry, repos.Participants, dispatcher, cfg.StoreTimeout)

	// Services
	authSvc := service.NewAuthService(repos.Users, tokenSvc, passwordHasher)
	msgSvc := service.NewMessageService(
		repos.Conversations, repos.Participants, repos.Messages, repos.Users,
		dispatcher, registry,
		cfg.MaxMessageLength, cfg.MessageHistoryLimit,
	)
	convSvc := service.NewConversationService(
		repos.Conversations, repos.Participants, repos.Messages, repos.Users,
		repos.Friendships, registry,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		convs, users := registry.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"websocket_connections": map[string]int{
				"active_conversations": convs,
				"active_users":         users,
			},
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.Users))
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/auth/me", handleMe())

			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(convSvc))
				r.Get("/", handleListConversations(convSvc))
				r.Get("/{conversationID}", handleGetConversation(convSvc))
				r.Post("/{conversationID}/read", handleMarkConversationRead(msgSvc))
				r.Get("/{conversationID}/messages", handleListMessages(msgSvc))
				r.Post("/{conversationID}/messages", handleCreateMessage(msgSvc))
			})
		})
	})

	// Live channel. Kept outside the auth middleware: websocket clients pass
	// the credential as a query parameter, verified at admission.
	r.Get("/ws/{conversationID}", ws.MakeHandler(
		tokenSvc, repos.Users, repos.Participants,
		presence, typing, msgSvc,
		cfg.CORSOrigins, cfg.StoreTimeout,
	))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain sentinel errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFriends):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
