// ABOUTME: Admin UI handlers: login, logout, overview, and trapp management
// ABOUTME: Login issues an HMAC-signed session cookie, pages are session-gated

package web

import (
	"net/http"

	"github.com/solatis/trapperkeeper/internal/auth"
	"github.com/solatis/trapperkeeper/internal/store"
)

const defaultTokenName = "Default token"

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	authFailed := r.URL.Query().Get("auth_failed") == "true"
	s.renderLoginPage(w, authFailed)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/admin/login?auth_failed=true", http.StatusFound)
		return
	}

	login := auth.Login{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if !auth.VerifyLogin(s.cfg.Admin, login) {
		s.logger.Warn("login rejected", "username", login.Username)
		http.Redirect(w, r, "/admin/login?auth_failed=true", http.StatusFound)
		return
	}

	sess, signed, err := s.signer.Mint(login.Username)
	if err != nil {
		s.logger.Error("failed to mint session", "error", err)
		http.Redirect(w, r, "/admin/login?auth_failed=true", http.StatusFound)
		return
	}
	s.logger.Info("admin logged in", "username", sess.Username, "session_id", sess.ID)

	// TLS termination happens upstream, so the cookie is not marked secure.
	auth.SetSessionCookie(w, signed, false)
	http.Redirect(w, r, "/admin/overview", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	s.renderOverview(w, sess.Username)
}

func (s *Server) handleTrappsPage(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		http.Error(w, "database busy", http.StatusServiceUnavailable)
		return
	}
	defer conn.Close()

	trapps, err := store.GetTrapps(r.Context(), conn)
	if err != nil {
		s.logger.Error("failed to list trapps", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.renderTrappsPage(w, sess.Username, trapps)
}

func (s *Server) handleTrappCreatePage(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	s.renderTrappCreatePage(w, sess.Username, "")
}

func (s *Server) handleTrappCreate(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if err := r.ParseForm(); err != nil {
		s.renderTrappCreatePage(w, sess.Username, "invalid form submission")
		return
	}
	name := r.PostFormValue("name")
	if name == "" {
		s.renderTrappCreatePage(w, sess.Username, "name is required")
		return
	}

	conn, err := s.pool.Acquire(r.Context())
	if err != nil {
		http.Error(w, "database busy", http.StatusServiceUnavailable)
		return
	}
	defer conn.Close()

	trappID, err := store.CreateTrapp(r.Context(), conn, name)
	if err != nil {
		s.logger.Error("failed to create trapp", "error", err)
		s.renderTrappCreatePage(w, sess.Username, "failed to create trapp")
		return
	}

	// Every trapp starts with one API token so it is usable immediately.
	if _, err := store.CreateAuthToken(r.Context(), conn, trappID, defaultTokenName); err != nil {
		s.logger.Error("failed to create default token", "trapp_id", trappID, "error", err)
		s.renderTrappCreatePage(w, sess.Username, "failed to create default token")
		return
	}
	s.logger.Info("trapp created", "trapp_id", trappID, "name", name, "by", sess.Username)

	http.Redirect(w, r, "/admin/trapps", http.StatusFound)
}
