package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/usuarios"
)

func urlID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("[server urlID] invalid id %q: %w", chi.URLParam(r, "id"), err)
	}
	return id, nil
}

func formInt(r *http.Request, field string) (int, error) {
	return strconv.Atoi(r.PostFormValue(field))
}

func citaPath(id int) string {
	return fmt.Sprintf("/paciente/cita/%d", id)
}

// PacienteDashboardHandler shows the patient's upcoming appointments.
func (s *Server) PacienteDashboardHandler() http.HandlerFunc {
	tmpl := mustTemplate("paciente.html")
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
			Error   string
			Info    string
		}{s.config.GetAppName(), s.sess.Usuario(), citas, r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) MisCitasHandler() http.HandlerFunc {
	tmpl := mustTemplate("mis_citas.html")
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

// NuevaCitaPageHandler renders the booking form with the clinician list and,
// when a clinician and date are selected, the free slots for that date.
func (s *Server) NuevaCitaPageHandler() http.HandlerFunc {
	tmpl := mustTemplate("nueva_cita.html")
	return func(w http.ResponseWriter, r *http.Request) {
		especialidad := r.URL.Query().Get("especialidad")
		profesionales, err := s.api.ListProfesionales(r.Context(), especialidad)
		if err != nil {
			s.renderError(w, r, err)
			return
		}

		data := struct {
			AppName       string
			Usuario       usuarios.Usuario
			Profesionales []api.ProfesionalResumen
			Profesional   int
			Fecha         string
			Horarios      []api.HorarioSlot
			Mensaje       string
			Error         string
		}{
			AppName:       s.config.GetAppName(),
			Usuario:       s.sess.Usuario(),
			Profesionales: profesionales,
			Fecha:         r.URL.Query().Get("fecha"),
			Error:         r.URL.Query().Get("error"),
		}

		if rawID := r.URL.Query().Get("profesional"); rawID != "" && data.Fecha != "" {
			id, err := strconv.Atoi(rawID)
			if err == nil {
				horarios, err := s.api.HorariosDisponibles(r.Context(), id, data.Fecha)
				if err != nil {
					s.renderError(w, r, err)
					return
				}
				data.Profesional = id
				data.Horarios = horarios.Horarios
				data.Mensaje = horarios.Mensaje
			}
		}
		renderHTML(w, tmpl, data)
	}
}

func (s *Server) NuevaCitaSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RoutePacienteNuevaCita, err)
			return
		}

		profesional, err := strconv.Atoi(r.PostFormValue("profesional"))
		if err != nil {
			redirectWithError(w, r, routing.RoutePacienteNuevaCita, api.ErrCamposRequeridos)
			return
		}

		input := api.NuevaCitaInput{
			Profesional:    profesional,
			FechaHora:      r.PostFormValue("fecha_hora"),
			MotivoConsulta: r.PostFormValue("motivo_consulta"),
		}
		cita, err := s.api.CrearCita(r.Context(), input)
		if err != nil {
			redirectWithError(w, r, routing.RoutePacienteNuevaCita, err)
			return
		}
		http.Redirect(w, r, citaPath(cita.ID)+"?info="+url.QueryEscape("Cita agendada"), http.StatusSeeOther)
	}
}

func (s *Server) PacienteCitaHandler() http.HandlerFunc {
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
		}{s.config.GetAppName(), s.sess.Usuario(), cita, routing.RoutePacienteMisCitas,
			r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) CancelarCitaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		_ = r.ParseForm()
		if _, err := s.api.CancelarCita(r.Context(), id, r.PostFormValue("motivo")); err != nil {
			redirectWithError(w, r, citaPath(id), err)
			return
		}
		http.Redirect(w, r, citaPath(id)+"?info="+url.QueryEscape("Cita cancelada"), http.StatusSeeOther)
	}
}

func (s *Server) ConfirmarCitaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		if _, err := s.api.ConfirmarCita(r.Context(), id); err != nil {
			redirectWithError(w, r, citaPath(id), err)
			return
		}
		http.Redirect(w, r, citaPath(id)+"?info="+url.QueryEscape("Cita confirmada"), http.StatusSeeOther)
	}
}

func (s *Server) PerfilPageHandler() http.HandlerFunc {
	tmpl := mustTemplate("perfil.html")
	return func(w http.ResponseWriter, r *http.Request) {
		// Refresh the identity so the form reflects server-side state,
		// falling back to the stored identity when the backend is down.
		usuario, err := s.api.Me(r.Context())
		if err != nil {
			s.log.Warn().Err(err).Msg("profile refresh failed, using stored identity")
			usuario = s.sess.Usuario()
		}
		renderHTML(w, tmpl, struct {
			AppName string
			Usuario usuarios.Usuario
			Error   string
			Info    string
		}{s.config.GetAppName(), usuario, r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) PerfilSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RoutePacientePerfil, err)
			return
		}

		input := api.PerfilInput{
			Nombre:          r.PostFormValue("nombre"),
			Apellido:        r.PostFormValue("apellido"),
			Telefono:        r.PostFormValue("telefono"),
			FechaNacimiento: r.PostFormValue("fecha_nacimiento"),
			Direccion:       r.PostFormValue("direccion"),
		}
		if _, err := s.api.UpdateProfile(r.Context(), input); err != nil {
			redirectWithError(w, r, routing.RoutePacientePerfil, err)
			return
		}
		http.Redirect(w, r, routing.RoutePacientePerfil+"?info="+url.QueryEscape("Perfil actualizado"), http.StatusSeeOther)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, routing.RoutePacientePerfil, err)
			return
		}

		err := s.api.ChangePassword(r.Context(),
			r.PostFormValue("old_password"),
			r.PostFormValue("new_password"),
			r.PostFormValue("new_password_confirm"))
		if err != nil {
			redirectWithError(w, r, routing.RoutePacientePerfil, err)
			return
		}
		http.Redirect(w, r, routing.RoutePacientePerfil+"?info="+url.QueryEscape("Contraseña actualizada"), http.StatusSeeOther)
	}
}

// renderError shows the shared error page with the user-facing message
// extracted from err.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_ = s.errorTmpl().Execute(w, map[string]string{
		"AppName": s.config.GetAppName(),
		"Mensaje": api.MensajeDeError(err),
		"Home":    routing.DispatchSession(s.sess),
	})
}
