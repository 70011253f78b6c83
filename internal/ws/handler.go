package ws

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"livechat/internal/domain"
	"livechat/internal/security"
	"livechat/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractToken finds the credential supplied out-of-band: a "token" or
// "authorization" query parameter, or a Bearer Authorization header.
func extractToken(r *http.Request) string {
	q := r.URL.Query()
	if token := q.Get("token"); token != "" {
		return strings.TrimPrefix(token, "Bearer ")
	}
	if token := q.Get("authorization"); token != "" {
		return strings.TrimPrefix(token, "Bearer ")
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// MakeHandler returns the HTTP handler for the /ws/{conversationID} endpoint.
// Admission happens entirely before any registry mutation: credential ->
// user, then conversation membership; either failure refuses the connection.
// After the upgrade the session controller owns the connection.
func MakeHandler(
	tokens *security.TokenService,
	users domain.UserRepository,
	participants domain.ParticipantRepository,
	presence *Presence,
	typing *TypingTracker,
	messages *service.MessageService,
	allowedOrigins []string,
	storeTimeout time.Duration,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid conversation id", http.StatusBadRequest)
			return
		}

		tokenStr := extractToken(r)
		if tokenStr == "" {
			http.Error(w, "authentication token required", http.StatusUnauthorized)
			return
		}
		sub, err := tokens.Subject(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByUsername(ctx, sub)
		if err != nil || user == nil || !user.IsActive {
			http.Error(w, "user not found or inactive", http.StatusUnauthorized)
			return
		}

		participant, err := participants.Get(ctx, conversationID, user.ID)
		if err != nil || participant == nil {
			http.Error(w, "not a participant in this conversation", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		ctrl := NewSessionController(user.ID, conversationID, conn, presence, typing, messages, storeTimeout)
		ctrl.Run(ctx)
	}
}
