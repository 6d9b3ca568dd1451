// Package server renders the portal UI. Every protected route is gated by
// the routing guard against live session state, and all data comes from the
// clinic backend through the api client.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/config"
	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/session"
	"github.com/sgcsalud/portal/usuarios"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	router chi.Router
	routes []string
	config config.Config
	sess   *session.Store
	api    *api.Client
	log    zerolog.Logger
}

func New(config config.Config, sess *session.Store, client *api.Client, logger zerolog.Logger) (*Server, error) {
	if sess == nil {
		return nil, fmt.Errorf("[Server New] nil session store")
	}
	if client == nil {
		return nil, fmt.Errorf("[Server New] nil api client")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: config,
		sess:   sess,
		api:    client,
		log:    logger,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.router.Use(s.LoggingMiddleware, s.RecoverMiddleware)
	s.router.NotFound(s.NotFoundHandler())

	s.registerGet(routing.RouteRoot, s.RootDispatchHandler())

	// Public routes
	s.registerGet(routing.RouteLogin, s.LoginPageHandler())
	s.registerPost(routing.RouteLogin, s.LoginSubmitHandler())
	s.registerGet(routing.RouteRegister, s.RegisterPageHandler())
	s.registerPost(routing.RouteRegister, s.RegisterSubmitHandler())
	s.registerGet(routing.RouteUnauthorized, s.UnauthorizedHandler())
	s.registerPost(routing.RouteLogout, s.LogoutHandler())

	// Paciente routes
	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireRoles(usuarios.RolePaciente))
		s.registerOn(r, "GET", routing.RoutePaciente, s.PacienteDashboardHandler())
		s.registerOn(r, "GET", routing.RoutePacienteMisCitas, s.MisCitasHandler())
		s.registerOn(r, "GET", routing.RoutePacienteNuevaCita, s.NuevaCitaPageHandler())
		s.registerOn(r, "POST", routing.RoutePacienteNuevaCita, s.NuevaCitaSubmitHandler())
		s.registerOn(r, "GET", routing.RoutePacienteCita, s.PacienteCitaHandler())
		s.registerOn(r, "POST", routing.RoutePacienteCita+"/cancelar", s.CancelarCitaHandler())
		s.registerOn(r, "POST", routing.RoutePacienteCita+"/confirmar", s.ConfirmarCitaHandler())
		s.registerOn(r, "GET", routing.RoutePacientePerfil, s.PerfilPageHandler())
		s.registerOn(r, "POST", routing.RoutePacientePerfil, s.PerfilSubmitHandler())
		s.registerOn(r, "POST", routing.RoutePacientePerfil+"/password", s.ChangePasswordHandler())
	})

	// Profesional routes
	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireRoles(usuarios.RoleProfesional))
		s.registerOn(r, "GET", routing.RouteProfesional, s.ProfesionalDashboardHandler())
		s.registerOn(r, "GET", routing.RouteProfesionalCitas, s.ProfesionalCitasHandler())
		s.registerOn(r, "GET", routing.RouteProfesionalCita, s.ProfesionalCitaHandler())
		s.registerOn(r, "POST", routing.RouteProfesionalCita+"/completar", s.CompletarCitaHandler())
		s.registerOn(r, "POST", routing.RouteProfesionalCita+"/no-asistio", s.NoAsistioHandler())
		s.registerOn(r, "GET", routing.RouteProfesionalDisponibilidad, s.DisponibilidadPageHandler())
		s.registerOn(r, "POST", routing.RouteProfesionalDisponibilidad, s.CrearDisponibilidadHandler())
		s.registerOn(r, "POST", routing.RouteProfesionalDisponibilidad+"/{id}/eliminar", s.EliminarDisponibilidadHandler())
	})

	// Admin routes
	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireRoles(usuarios.RoleAdmin))
		s.registerOn(r, "GET", routing.RouteAdmin, s.AdminDashboardHandler())
		s.registerOn(r, "GET", routing.RouteAdminCitas, s.AdminCitasHandler())
		s.registerOn(r, "GET", routing.RouteAdminUsuarios, s.AdminUsuariosHandler())
		s.registerOn(r, "POST", routing.RouteAdminUsuarios+"/{id}/bloquear", s.BloquearUsuarioHandler())
		s.registerOn(r, "POST", routing.RouteAdminUsuarios+"/{id}/desbloquear", s.DesbloquearUsuarioHandler())
		s.registerOn(r, "GET", routing.RouteAdminProfesionales, s.AdminProfesionalesHandler())
		s.registerOn(r, "GET", routing.RouteAdminReportes, s.AdminReportesHandler())
	})
}

func (s *Server) registerGet(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, "GET "+pattern)
	s.router.Get(pattern, handler)
}

func (s *Server) registerPost(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, "POST "+pattern)
	s.router.Post(pattern, handler)
}

func (s *Server) registerOn(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, method+" "+pattern)
	r.Method(method, pattern, handler)
}

// RootDispatchHandler sends "/" to the landing route for the current
// session: login when anonymous, the role dashboard otherwise.
func (s *Server) RootDispatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routing.DispatchSession(s.sess), http.StatusSeeOther)
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
