package server

import (
	"net/http"
	"net/url"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/routing"
)

// authPageData is the template model for the login and register pages.
type authPageData struct {
	AppName string
	Error   string
	Info    string
}

func (s *Server) authPageData(r *http.Request) authPageData {
	return authPageData{
		AppName: s.config.GetAppName(),
		Error:   r.URL.Query().Get("error"),
		Info:    r.URL.Query().Get("info"),
	}
}

// redirectWithError re-renders a form page with a user-facing message.
func redirectWithError(w http.ResponseWriter, r *http.Request, path string, err error) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(api.MensajeDeError(err)), http.StatusSeeOther)
}

// LoginPageHandler renders the login form. An already authenticated visitor
// is sent straight to their dashboard.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl := mustTemplate("login.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sess.IsAuthenticated() {
			http.Redirect(w, r, routing.DispatchSession(s.sess), http.StatusSeeOther)
			return
		}
		renderHTML(w, tmpl, s.authPageData(r))
	}
}

func (s *Server) LoginSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RouteLogin, err)
			return
		}

		rut := r.PostFormValue("rut")
		password := r.PostFormValue("password")

		if _, err := s.api.Login(r.Context(), rut, password); err != nil {
			s.log.Warn().Err(err).Str("rut", rut).Msg("login rejected")
			redirectWithError(w, r, routing.RouteLogin, err)
			return
		}
		http.Redirect(w, r, routing.DispatchSession(s.sess), http.StatusSeeOther)
	}
}

func (s *Server) RegisterPageHandler() http.HandlerFunc {
	tmpl := mustTemplate("register.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sess.IsAuthenticated() {
			http.Redirect(w, r, routing.DispatchSession(s.sess), http.StatusSeeOther)
			return
		}
		renderHTML(w, tmpl, s.authPageData(r))
	}
}

func (s *Server) RegisterSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RouteRegister, err)
			return
		}

		input := api.RegistroInput{
			Rut:             r.PostFormValue("rut"),
			Email:           r.PostFormValue("email"),
			Nombre:          r.PostFormValue("nombre"),
			Apellido:        r.PostFormValue("apellido"),
			Telefono:        r.PostFormValue("telefono"),
			FechaNacimiento: r.PostFormValue("fecha_nacimiento"),
			Direccion:       r.PostFormValue("direccion"),
			Password:        r.PostFormValue("password"),
			PasswordConfirm: r.PostFormValue("password_confirm"),
		}

		if _, err := s.api.Register(r.Context(), input); err != nil {
			redirectWithError(w, r, routing.RouteRegister, err)
			return
		}
		http.Redirect(w, r, routing.DispatchSession(s.sess), http.StatusSeeOther)
	}
}

// LogoutHandler ends the session. The session is cleared even when the
// backend revocation call fails, so the redirect to login is unconditional.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.api.Logout(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("logout revocation failed")
		}
		http.Redirect(w, r, routing.RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) UnauthorizedHandler() http.HandlerFunc {
	tmpl := mustTemplate("unauthorized.html")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_ = tmpl.Execute(w, map[string]string{
			"AppName": s.config.GetAppName(),
			"Home":    routing.DispatchSession(s.sess),
		})
	}
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	tmpl := mustTemplate("not_found.html")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = tmpl.Execute(w, map[string]string{
			"AppName": s.config.GetAppName(),
			"Home":    routing.DispatchSession(s.sess),
		})
	}
}
