package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/usuarios"
)

func profesionalCitaPath(id int) string {
	return fmt.Sprintf("/profesional/cita/%d", id)
}

// ProfesionalDashboardHandler shows the clinician's upcoming agenda.
func (s *Server) ProfesionalDashboardHandler() http.HandlerFunc {
	tmpl := mustTemplate("profesional.html")
	return func(w http.ResponseWriter, r *http.Request) {
		citas, err := s.api.ProximasCitas(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName string
			Usuario usuarios.Usuario
			Citas   []api.Cita
		}{s.config.GetAppName(), s.sess.Usuario(), citas})
	}
}

func (s *Server) ProfesionalCitasHandler() http.HandlerFunc {
	tmpl := mustTemplate("profesional_citas.html")
	return func(w http.ResponseWriter, r *http.Request) {
		citas, err := s.api.ListCitas(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName string
			Usuario usuarios.Usuario
			Citas   []api.Cita
		}{s.config.GetAppName(), s.sess.Usuario(), citas})
	}
}

func (s *Server) ProfesionalCitaHandler() http.HandlerFunc {
	tmpl := mustTemplate("cita.html")
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		cita, err := s.api.Cita(r.Context(), id)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName string
			Usuario usuarios.Usuario
			Cita    api.Cita
			Back    string
			Error   string
			Info    string
		}{s.config.GetAppName(), s.sess.Usuario(), cita, routing.RouteProfesionalCitas,
			r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) CompletarCitaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		_ = r.ParseForm()
		if _, err := s.api.CompletarCita(r.Context(), id, r.PostFormValue("notas")); err != nil {
			redirectWithError(w, r, profesionalCitaPath(id), err)
			return
		}
		http.Redirect(w, r, profesionalCitaPath(id)+"?info="+url.QueryEscape("Cita completada"), http.StatusSeeOther)
	}
}

func (s *Server) NoAsistioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		if _, err := s.api.MarcarNoAsistio(r.Context(), id); err != nil {
			redirectWithError(w, r, profesionalCitaPath(id), err)
			return
		}
		http.Redirect(w, r, profesionalCitaPath(id)+"?info="+url.QueryEscape("Inasistencia registrada"), http.StatusSeeOther)
	}
}

// DisponibilidadPageHandler lists the clinician's weekly availability rules.
func (s *Server) DisponibilidadPageHandler() http.HandlerFunc {
	tmpl := mustTemplate("disponibilidad.html")
	return func(w http.ResponseWriter, r *http.Request) {
		disponibilidades, err := s.api.ListDisponibilidades(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName          string
			Usuario          usuarios.Usuario
			Disponibilidades []api.Disponibilidad
			Error            string
			Info             string
		}{s.config.GetAppName(), s.sess.Usuario(), disponibilidades,
			r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) CrearDisponibilidadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RouteProfesionalDisponibilidad, err)
			return
		}

		diaSemana, err := formInt(r, "dia_semana")
		if err != nil {
			redirectWithError(w, r, routing.RouteProfesionalDisponibilidad, api.ErrCamposRequeridos)
			return
		}

		input := api.Disponibilidad{
			DiaSemana:  diaSemana,
			HoraInicio: r.PostFormValue("hora_inicio"),
			HoraFin:    r.PostFormValue("hora_fin"),
			Activo:     true,
		}
		if _, err := s.api.CrearDisponibilidad(r.Context(), input); err != nil {
			redirectWithError(w, r, routing.RouteProfesionalDisponibilidad, err)
			return
		}
		http.Redirect(w, r, routing.RouteProfesionalDisponibilidad+"?info="+url.QueryEscape("Disponibilidad creada"), http.StatusSeeOther)
	}
}

func (s *Server) EliminarDisponibilidadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		if err := s.api.EliminarDisponibilidad(r.Context(), id); err != nil {
			redirectWithError(w, r, routing.RouteProfesionalDisponibilidad, err)
			return
		}
		http.Redirect(w, r, routing.RouteProfesionalDisponibilidad+"?info="+url.QueryEscape("Disponibilidad eliminada"), http.StatusSeeOther)
	}
}
