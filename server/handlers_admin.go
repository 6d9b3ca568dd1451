package server

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/usuarios"
)

// adminDashboardData aggregates the dashboard widgets. Each widget is
// fetched independently so one failing call leaves the others populated.
type adminDashboardData struct {
	AppName string
	Usuario usuarios.Usuario

	Estadisticas    api.EstadisticasCitas
	EstadisticasErr string

	Citas    []api.Cita
	CitasErr string

	Usuarios    []usuarios.Usuario
	UsuariosErr string

	Profesionales    []api.ProfesionalResumen
	ProfesionalesErr string
}

func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	tmpl := mustTemplate("admin.html")
	return func(w http.ResponseWriter, r *http.Request) {
		data := adminDashboardData{
			AppName: s.config.GetAppName(),
			Usuario: s.sess.Usuario(),
		}

		ctx := r.Context()
		var wg sync.WaitGroup
		wg.Add(4)

		go func() {
			defer wg.Done()
			var err error
			if data.Estadisticas, err = s.api.Estadisticas(ctx, "", ""); err != nil {
				data.EstadisticasErr = api.MensajeDeError(err)
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if data.Citas, err = s.api.ListCitas(ctx); err != nil {
				data.CitasErr = api.MensajeDeError(err)
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if data.Usuarios, err = s.api.ListUsuarios(ctx); err != nil {
				data.UsuariosErr = api.MensajeDeError(err)
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if data.Profesionales, err = s.api.ListProfesionales(ctx, ""); err != nil {
				data.ProfesionalesErr = api.MensajeDeError(err)
			}
		}()
		wg.Wait()

		renderHTML(w, tmpl, data)
	}
}

func (s *Server) AdminCitasHandler() http.HandlerFunc {
	tmpl := mustTemplate("admin_citas.html")
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

func (s *Server) AdminUsuariosHandler() http.HandlerFunc {
	tmpl := mustTemplate("admin_usuarios.html")
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := s.api.ListUsuarios(r.Context())
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName  string
			Usuario  usuarios.Usuario
			Usuarios []usuarios.Usuario
			Error    string
			Info     string
		}{s.config.GetAppName(), s.sess.Usuario(), all,
			r.URL.Query().Get("error"), r.URL.Query().Get("info")})
	}
}

func (s *Server) BloquearUsuarioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		_ = r.ParseForm()
		if err := s.api.BloquearUsuario(r.Context(), id, r.PostFormValue("motivo")); err != nil {
			redirectWithError(w, r, routing.RouteAdminUsuarios, err)
			return
		}
		http.Redirect(w, r, routing.RouteAdminUsuarios+"?info="+url.QueryEscape("Usuario bloqueado"), http.StatusSeeOther)
	}
}

func (s *Server) DesbloquearUsuarioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlID(r)
		if err != nil {
			s.NotFoundHandler()(w, r)
			return
		}
		_ = r.ParseForm()
		if err := s.api.DesbloquearUsuario(r.Context(), id, r.PostFormValue("motivo")); err != nil {
			redirectWithError(w, r, routing.RouteAdminUsuarios, err)
			return
		}
		http.Redirect(w, r, routing.RouteAdminUsuarios+"?info="+url.QueryEscape("Usuario desbloqueado"), http.StatusSeeOther)
	}
}

func (s *Server) AdminProfesionalesHandler() http.HandlerFunc {
	tmpl := mustTemplate("admin_profesionales.html")
	return func(w http.ResponseWriter, r *http.Request) {
		especialidad := r.URL.Query().Get("especialidad")
		profesionales, err := s.api.ListProfesionales(r.Context(), especialidad)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName       string
			Usuario       usuarios.Usuario
			Profesionales []api.ProfesionalResumen
			Especialidad  string
		}{s.config.GetAppName(), s.sess.Usuario(), profesionales, especialidad})
	}
}

func (s *Server) AdminReportesHandler() http.HandlerFunc {
	tmpl := mustTemplate("admin_reportes.html")
	return func(w http.ResponseWriter, r *http.Request) {
		fechaDesde := r.URL.Query().Get("fecha_desde")
		fechaHasta := r.URL.Query().Get("fecha_hasta")

		estadisticas, err := s.api.Estadisticas(r.Context(), fechaDesde, fechaHasta)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		renderHTML(w, tmpl, struct {
			AppName      string
			Usuario      usuarios.Usuario
			Estadisticas api.EstadisticasCitas
			FechaDesde   string
			FechaHasta   string
		}{s.config.GetAppName(), s.sess.Usuario(), estadisticas, fechaDesde, fechaHasta})
	}
}
