package clinictest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/utils"
	"github.com/sgcsalud/portal/usuarios"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detailErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func fieldErr(w http.ResponseWriter, field string, msgs ...string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: msgs})
}

// paginated wraps results in the DRF page envelope.
func paginated(w http.ResponseWriter, results any) {
	count := 0
	switch v := results.(type) {
	case []usuarios.Usuario:
		count = len(v)
	case []api.Cita:
		count = len(v)
	case []api.ProfesionalResumen:
		count = len(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": count, "next": nil, "previous": nil, "results": results,
	})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func urlID(r *http.Request) int {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	return id
}

// --- auth ---

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rut      string `json:"rut"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cuentaPorRut(req.Rut)
	if c == nil || bcrypt.CompareHashAndPassword(c.passwordHash, []byte(req.Password)) != nil {
		detailErr(w, http.StatusUnauthorized, "Credenciales inválidas")
		return
	}
	if c.usuario.Bloqueado {
		detailErr(w, http.StatusUnauthorized, "Usuario bloqueado. Contacte al administrador.")
		return
	}

	access, refresh := b.MintTokens(c.usuario)
	writeJSON(w, http.StatusOK, api.LoginResponse{Refresh: refresh, Access: access, User: c.usuario})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegistroInput
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}
	if req.Password != req.PasswordConfirm {
		fieldErr(w, "password_confirm", "Las contraseñas no coinciden")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cuentaPorRut(req.Rut) != nil {
		fieldErr(w, "rut", "Este RUT ya está registrado")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		detailErr(w, http.StatusInternalServerError, "Error interno")
		return
	}

	u := usuarios.Usuario{
		ID: b.nextUsuarioID, Rut: req.Rut, Email: req.Email,
		Nombre: req.Nombre, Apellido: req.Apellido,
		Telefono: req.Telefono, FechaNacimiento: req.FechaNacimiento,
		Direccion: req.Direccion, Rol: usuarios.RolePaciente,
		IsActive: true, PuedeAgendar: true,
	}
	b.nextUsuarioID++
	b.cuentas = append(b.cuentas, &cuenta{usuario: u, passwordHash: hash})

	access, refresh := b.MintTokens(u)
	writeJSON(w, http.StatusCreated, api.LoginResponse{Refresh: refresh, Access: access, User: u})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.RefreshCalls++
	b.mu.Unlock()

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(r, &req); err != nil || req.Refresh == "" {
		detailErr(w, http.StatusBadRequest, "Refresh token requerido")
		return
	}

	userID, jti, ok := b.parseToken(req.Refresh, "refresh")

	b.mu.Lock()
	defer b.mu.Unlock()

	if !ok || b.blacklist[jti] || b.cuentaPorID(userID) == nil {
		detailErr(w, http.StatusBadRequest, "Token inválido o expirado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access": b.mintToken(userID, "access", accessTokenTTL),
	})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	_ = decodeBody(r, &req)

	if _, jti, ok := b.parseToken(req.Refresh, "refresh"); ok {
		b.mu.Lock()
		b.blacklist[jti] = true
		b.mu.Unlock()
	}
	detailErr(w, http.StatusOK, "Logout exitoso")
}

// --- usuarios ---

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.cuentaPorID(currentUsuario(r).ID).usuario)
}

func (b *Backend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req api.PerfilInput
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cuentaPorID(currentUsuario(r).ID)
	if req.Nombre != "" {
		c.usuario.Nombre = req.Nombre
	}
	if req.Apellido != "" {
		c.usuario.Apellido = req.Apellido
	}
	if req.Telefono != "" {
		c.usuario.Telefono = req.Telefono
	}
	if req.FechaNacimiento != "" {
		c.usuario.FechaNacimiento = req.FechaNacimiento
	}
	if req.Direccion != "" {
		c.usuario.Direccion = req.Direccion
	}
	writeJSON(w, http.StatusOK, c.usuario)
}

func (b *Backend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Old     string `json:"old_password"`
		New     string `json:"new_password"`
		Confirm string `json:"new_password_confirm"`
	}
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}
	if req.New != req.Confirm {
		fieldErr(w, "new_password_confirm", "Las contraseñas no coinciden")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cuentaPorID(currentUsuario(r).ID)
	if bcrypt.CompareHashAndPassword(c.passwordHash, []byte(req.Old)) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"old_password": "Contraseña actual incorrecta"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.New), bcrypt.MinCost)
	if err != nil {
		detailErr(w, http.StatusInternalServerError, "Error interno")
		return
	}
	c.passwordHash = hash
	detailErr(w, http.StatusOK, "Contraseña actualizada exitosamente")
}

func (b *Backend) handleListUsuarios(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsAdmin() {
		detailErr(w, http.StatusForbidden, "Usted no tiene permiso para realizar esta acción.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all := make([]usuarios.Usuario, 0, len(b.cuentas))
	for _, c := range b.cuentas {
		all = append(all, c.usuario)
	}
	paginated(w, all)
}

func (b *Backend) handleBloquear(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsAdmin() {
		detailErr(w, http.StatusForbidden, "Usted no tiene permiso para realizar esta acción.")
		return
	}
	var req struct {
		Motivo string `json:"motivo"`
	}
	_ = decodeBody(r, &req)

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cuentaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	c.usuario.Bloqueado = true
	c.usuario.MotivoBloqueo = req.Motivo
	c.usuario.PuedeAgendar = false
	detailErr(w, http.StatusOK, "Usuario bloqueado exitosamente")
}

func (b *Backend) handleDesbloquear(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsAdmin() {
		detailErr(w, http.StatusForbidden, "Usted no tiene permiso para realizar esta acción.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.cuentaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	if !c.usuario.Bloqueado {
		detailErr(w, http.StatusBadRequest, "El usuario no está bloqueado")
		return
	}
	c.usuario.Bloqueado = false
	c.usuario.MotivoBloqueo = ""
	c.usuario.ContadorInasistencias = 0
	c.usuario.PuedeAgendar = true
	detailErr(w, http.StatusOK, "Usuario desbloqueado exitosamente")
}

// --- citas ---

// citasDe returns the appointments visible to u: their own for patients,
// their agenda for professionals, everything for admins. Callers hold b.mu.
func (b *Backend) citasDe(u usuarios.Usuario) []api.Cita {
	visible := make([]api.Cita, 0, len(b.citas))
	for _, c := range b.citas {
		switch u.Rol {
		case usuarios.RoleAdmin:
			visible = append(visible, *c)
		case usuarios.RolePaciente:
			if c.Paciente == u.ID {
				visible = append(visible, *c)
			}
		case usuarios.RoleProfesional:
			if p := b.profesionalDeUsuario(u.ID); p != nil && c.Profesional == p.ID {
				visible = append(visible, *c)
			}
		}
	}
	return visible
}

func (b *Backend) handleListCitas(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	paginated(w, b.citasDe(currentUsuario(r)))
}

func (b *Backend) handleProximasCitas(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	upcoming := make([]api.Cita, 0)
	for _, c := range b.citasDe(currentUsuario(r)) {
		if c.FechaHora.After(b.now()) && (c.Estado == api.EstadoAgendada || c.Estado == api.EstadoConfirmada) {
			upcoming = append(upcoming, c)
		}
	}
	writeJSON(w, http.StatusOK, upcoming)
}

func (b *Backend) handleCrearCita(w http.ResponseWriter, r *http.Request) {
	var req api.NuevaCitaInput
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}

	fechaHora, err := time.Parse(time.RFC3339, req.FechaHora)
	if err != nil {
		fieldErr(w, "fecha_hora", "Formato de fecha inválido")
		return
	}
	if !fechaHora.After(b.now()) {
		fieldErr(w, "fecha_hora", "La fecha debe ser futura")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := currentUsuario(r)
	if b.cuentaPorID(u.ID).usuario.Bloqueado {
		detailErr(w, http.StatusBadRequest, "Usuario bloqueado: no puede agendar citas")
		return
	}

	prof := b.profesionalPorID(req.Profesional)
	if prof == nil {
		fieldErr(w, "profesional", "Profesional no encontrado")
		return
	}

	duracion := req.DuracionMinutos
	if duracion == 0 {
		duracion = prof.DuracionCitaMinutos
	}

	cita := &api.Cita{
		ID:                b.nextCitaID,
		Paciente:          u.ID,
		PacienteNombre:    u.FullName(),
		Profesional:       prof.ID,
		ProfesionalNombre: fmt.Sprintf("Dr(a). %s", prof.UsuarioNombre),
		Especialidad:      prof.Especialidad,
		FechaHora:         fechaHora,
		DuracionMinutos:   duracion,
		MotivoConsulta:    req.MotivoConsulta,
		Estado:            api.EstadoAgendada,
		FechaCreacion:     utils.Ptr(b.now()),
	}
	b.nextCitaID++
	b.citas = append(b.citas, cita)
	writeJSON(w, http.StatusCreated, cita)
}

func (b *Backend) handleCita(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.citaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleCancelar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Motivo string `json:"motivo_cancelacion"`
	}
	_ = decodeBody(r, &req)

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.citaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	switch c.Estado {
	case api.EstadoCompletada, api.EstadoCancelada, api.EstadoNoAsistio:
		detailErr(w, http.StatusBadRequest, "No se puede cancelar una cita en estado "+c.Estado)
		return
	}

	c.Estado = api.EstadoCancelada
	c.MotivoCancelacion = req.Motivo
	c.CanceladaPor = string(currentUsuario(r).Rol)
	c.FechaCancelacion = utils.Ptr(b.now())
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleConfirmar(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.citaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	if c.Estado != api.EstadoAgendada {
		detailErr(w, http.StatusBadRequest, "Solo se pueden confirmar citas agendadas")
		return
	}

	c.Estado = api.EstadoConfirmada
	c.ConfirmadaPorPaciente = true
	c.FechaConfirmacion = utils.Ptr(b.now())
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleCompletar(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsProfesional() {
		detailErr(w, http.StatusForbidden, "Solo el profesional puede completar una cita")
		return
	}
	var req struct {
		Notas string `json:"notas_profesional"`
	}
	_ = decodeBody(r, &req)

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.citaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	c.Estado = api.EstadoCompletada
	c.NotasProfesional = req.Notas
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleNoAsistio(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsProfesional() {
		detailErr(w, http.StatusForbidden, "Solo el profesional puede marcar una inasistencia")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.citaPorID(urlID(r))
	if c == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	c.Estado = api.EstadoNoAsistio

	if paciente := b.cuentaPorID(c.Paciente); paciente != nil {
		paciente.usuario.ContadorInasistencias++
		if paciente.usuario.ContadorInasistencias >= 3 {
			paciente.usuario.Bloqueado = true
			paciente.usuario.PuedeAgendar = false
			paciente.usuario.MotivoBloqueo = fmt.Sprintf(
				"Bloqueado automáticamente por %d inasistencias", paciente.usuario.ContadorInasistencias)
		}
	}
	writeJSON(w, http.StatusOK, c)
}

func (b *Backend) handleEstadisticas(w http.ResponseWriter, r *http.Request) {
	if !currentUsuario(r).EsAdmin() {
		detailErr(w, http.StatusForbidden, "Usted no tiene permiso para realizar esta acción.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stats := api.EstadisticasCitas{}
	porEstado := make(map[string]int)
	for _, c := range b.citas {
		stats.TotalCitas++
		porEstado[c.Estado]++
	}
	stats.CitasAgendadas = porEstado[api.EstadoAgendada]
	stats.CitasConfirmadas = porEstado[api.EstadoConfirmada]
	stats.CitasCompletadas = porEstado[api.EstadoCompletada]
	stats.CitasCanceladas = porEstado[api.EstadoCancelada]
	stats.CitasNoAsistio = porEstado[api.EstadoNoAsistio]

	if realizadas := stats.CitasCompletadas + stats.CitasNoAsistio; realizadas > 0 {
		stats.TasaInasistencia = float64(stats.CitasNoAsistio) / float64(realizadas) * 100
	}
	for estado, total := range porEstado {
		stats.PorEstado = append(stats.PorEstado, api.EstadisticaEstado{Estado: estado, Total: total})
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- profesionales ---

func (b *Backend) handleListProfesionales(w http.ResponseWriter, r *http.Request) {
	especialidad := strings.ToLower(r.URL.Query().Get("especialidad"))

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]api.ProfesionalResumen, 0, len(b.profesionales))
	for _, p := range b.profesionales {
		if !p.ActivoParaCitas {
			continue
		}
		if especialidad != "" && !strings.Contains(strings.ToLower(p.Especialidad), especialidad) {
			continue
		}
		out = append(out, api.ProfesionalResumen{
			ID: p.ID, NombreCompleto: p.UsuarioNombre,
			Especialidad: p.Especialidad, TituloProfesional: p.TituloProfesional,
		})
	}
	paginated(w, out)
}

func (b *Backend) handleProfesional(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.profesionalPorID(urlID(r))
	if p == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleDisponibilidadDeProfesional(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := urlID(r)
	out := make([]api.Disponibilidad, 0)
	for _, d := range b.disponibilidades {
		if d.Profesional == id && d.Activo {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleHorariosDisponibles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fecha string `json:"fecha"`
	}
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}
	fecha, err := time.Parse("2006-01-02", req.Fecha)
	if err != nil {
		fieldErr(w, "fecha", "Formato de fecha inválido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prof := b.profesionalPorID(urlID(r))
	if prof == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}

	// Monday is 0, matching the backend's weekday convention.
	diaSemana := (int(fecha.Weekday()) + 6) % 7

	var dispo *api.Disponibilidad
	for i := range b.disponibilidades {
		d := &b.disponibilidades[i]
		if d.Profesional == prof.ID && d.DiaSemana == diaSemana && d.Activo {
			dispo = d
			break
		}
	}
	if dispo == nil {
		writeJSON(w, http.StatusOK, api.HorariosDisponibles{
			Horarios: []api.HorarioSlot{},
			Mensaje:  "Profesional no tiene disponibilidad este día",
		})
		return
	}

	slots := make([]api.HorarioSlot, 0)
	inicio, _ := time.Parse("15:04", dispo.HoraInicio)
	fin, _ := time.Parse("15:04", dispo.HoraFin)
	for t := inicio; t.Before(fin); t = t.Add(time.Duration(prof.DuracionCitaMinutos) * time.Minute) {
		hora := t.Format("15:04")
		ocupado := false
		for _, c := range b.citas {
			if c.Profesional == prof.ID &&
				c.FechaHora.Format("2006-01-02") == req.Fecha &&
				c.FechaHora.Format("15:04") == hora &&
				(c.Estado == api.EstadoAgendada || c.Estado == api.EstadoConfirmada) {
				ocupado = true
				break
			}
		}
		if !ocupado {
			slots = append(slots, api.HorarioSlot{Hora: hora, Disponible: true})
		}
	}
	writeJSON(w, http.StatusOK, api.HorariosDisponibles{Horarios: slots})
}

// --- disponibilidades (own weekly rules) ---

func (b *Backend) handleListDisponibilidades(w http.ResponseWriter, r *http.Request) {
	u := currentUsuario(r)
	if !u.EsProfesional() {
		detailErr(w, http.StatusForbidden, "Solo profesionales gestionan disponibilidad")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prof := b.profesionalDeUsuario(u.ID)
	out := make([]api.Disponibilidad, 0)
	for _, d := range b.disponibilidades {
		if prof != nil && d.Profesional == prof.ID {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleCrearDisponibilidad(w http.ResponseWriter, r *http.Request) {
	u := currentUsuario(r)
	if !u.EsProfesional() {
		detailErr(w, http.StatusForbidden, "Solo profesionales gestionan disponibilidad")
		return
	}
	var req api.Disponibilidad
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}
	if req.HoraFin <= req.HoraInicio {
		fieldErr(w, "hora_fin", "La hora de fin debe ser posterior a la hora de inicio")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prof := b.profesionalDeUsuario(u.ID)
	if prof == nil {
		detailErr(w, http.StatusNotFound, "No encontrado.")
		return
	}

	req.ID = b.nextDispoID
	req.Profesional = prof.ID
	b.nextDispoID++
	b.disponibilidades = append(b.disponibilidades, req)
	writeJSON(w, http.StatusCreated, req)
}

func (b *Backend) handleActualizarDisponibilidad(w http.ResponseWriter, r *http.Request) {
	var req api.Disponibilidad
	if err := decodeBody(r, &req); err != nil {
		detailErr(w, http.StatusBadRequest, "Cuerpo inválido")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := urlID(r)
	for i := range b.disponibilidades {
		if b.disponibilidades[i].ID == id {
			req.ID = id
			req.Profesional = b.disponibilidades[i].Profesional
			b.disponibilidades[i] = req
			writeJSON(w, http.StatusOK, req)
			return
		}
	}
	detailErr(w, http.StatusNotFound, "No encontrado.")
}

func (b *Backend) handleEliminarDisponibilidad(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := urlID(r)
	for i := range b.disponibilidades {
		if b.disponibilidades[i].ID == id {
			b.disponibilidades = append(b.disponibilidades[:i], b.disponibilidades[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	detailErr(w, http.StatusNotFound, "No encontrado.")
}
