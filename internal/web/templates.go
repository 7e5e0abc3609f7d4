// ABOUTME: Template rendering functions for the admin UI
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/solatis/trapperkeeper/internal/store"
)

// Template data types
type loginData struct {
	Title      string
	AuthFailed bool
}

type overviewData struct {
	Title    string
	Username string
}

type trappsData struct {
	Title    string
	Username string
	Trapps   []store.Trapp
}

type trappCreateData struct {
	Title    string
	Username string
	Error    string
}

// renderLoginPage renders the admin login form
func (s *Server) renderLoginPage(w http.ResponseWriter, authFailed bool) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/login.html"))

	data := loginData{
		Title:      "Login",
		AuthFailed: authFailed,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render login page", "error", err)
	}
}

// renderOverview renders the admin overview page
func (s *Server) renderOverview(w http.ResponseWriter, username string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/overview.html"))

	data := overviewData{
		Title:    "Overview",
		Username: username,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render overview", "error", err)
	}
}

// renderTrappsPage renders the trapp listing page
func (s *Server) renderTrappsPage(w http.ResponseWriter, username string, trapps []store.Trapp) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/trapps.html"))

	data := trappsData{
		Title:    "Trapps",
		Username: username,
		Trapps:   trapps,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render trapps page", "error", err)
	}
}

// renderTrappCreatePage renders the trapp creation form
func (s *Server) renderTrappCreatePage(w http.ResponseWriter, username, errorMsg string) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/trapp_create.html"))

	data := trappCreateData{
		Title:    "Create Trapp",
		Username: username,
		Error:    errorMsg,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render trapp create page", "error", err)
	}
}
