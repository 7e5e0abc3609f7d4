// ABOUTME: HTTP server wiring for the trapperkeeper API and admin UI
// ABOUTME: Routes call store operations with a pool-acquired connection

package web

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/solatis/trapperkeeper/internal/auth"
	"github.com/solatis/trapperkeeper/internal/config"
	"github.com/solatis/trapperkeeper/internal/store"
)

// Server exposes the store and session machinery over HTTP. It owns no
// state of its own beyond the shared pool and signer references.
type Server struct {
	pool   *store.Pool
	signer *auth.Signer
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Server around an already-migrated pool and a constructed
// signer.
func New(pool *store.Pool, signer *auth.Signer, cfg *config.Config) *Server {
	return &Server{
		pool:   pool,
		signer: signer,
		cfg:    cfg,
		logger: slog.Default().With("component", "web"),
	}
}

// Handler returns the full route tree wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.withRequestID(mux)
}

// RegisterRoutes registers API and admin routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// JSON API
	mux.HandleFunc("POST /api/v1/trapp", s.handleCreateTrapp)
	mux.HandleFunc("GET /api/v1/trapp", s.handleListTrapps)
	mux.HandleFunc("GET /api/v1/trapp/{trapp_id}", s.handleGetTrapp)
	mux.HandleFunc("DELETE /api/v1/trapp/{trapp_id}", s.handleDeleteTrapp)

	mux.HandleFunc("POST /api/v1/trapp/{trapp_id}/auth_token", s.handleCreateAuthToken)
	mux.HandleFunc("GET /api/v1/trapp/{trapp_id}/auth_token", s.handleListAuthTokens)
	mux.HandleFunc("GET /api/v1/trapp/{trapp_id}/auth_token/{auth_token_id}", s.handleGetAuthTokenScoped)
	mux.HandleFunc("DELETE /api/v1/trapp/{trapp_id}/auth_token/{auth_token_id}", s.handleDeleteAuthTokenScoped)

	// Unscoped token lookup bypasses trapp ownership, so it requires an
	// admin session.
	mux.HandleFunc("GET /api/v1/auth_token/{auth_token_id}", s.requireSessionAPI(s.handleGetAuthToken))
	mux.HandleFunc("DELETE /api/v1/auth_token/{auth_token_id}", s.requireSessionAPI(s.handleDeleteAuthToken))

	mux.HandleFunc("POST /api/v1/rule", s.handleCreateRule)
	mux.HandleFunc("GET /api/v1/rule", s.handleListRules)

	// Admin UI
	mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	mux.HandleFunc("POST /admin/login", s.handleLogin)
	mux.HandleFunc("POST /admin/logout", s.handleLogout)
	mux.HandleFunc("GET /admin/overview", s.requireSession(s.handleOverview))
	mux.HandleFunc("GET /admin/trapps", s.requireSession(s.handleTrappsPage))
	mux.HandleFunc("GET /admin/trapp_create", s.requireSession(s.handleTrappCreatePage))
	mux.HandleFunc("POST /admin/trapp_create", s.requireSession(s.handleTrappCreate))
}

// withRequestID tags every request with a fresh id for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		s.logger.Debug("request", "id", id, "method", r.Method, "path", r.URL.Path)
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

// requireSession wraps an admin page handler with the session gate. A
// missing and an invalid cookie are treated identically: redirect to login.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, auth.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := auth.SessionFromRequest(s.signer, r)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}
		next(w, r, sess)
	}
}

// requireSessionAPI is the JSON flavor of the session gate: 401 instead of
// a redirect.
func (s *Server) requireSessionAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.SessionFromRequest(s.signer, r); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}
