package api

import (
	"encoding/json"
	"time"

	"github.com/sgcsalud/portal/usuarios"
)

// Appointment states as emitted by the backend.
const (
	EstadoAgendada   = "AGENDADA"
	EstadoConfirmada = "CONFIRMADA"
	EstadoEnCurso    = "EN_CURSO"
	EstadoCompletada = "COMPLETADA"
	EstadoCancelada  = "CANCELADA"
	EstadoNoAsistio  = "NO_ASISTIO"
)

// LoginResponse is the body of POST /auth/login/ and /auth/register/.
type LoginResponse struct {
	Refresh string           `json:"refresh"`
	Access  string           `json:"access"`
	User    usuarios.Usuario `json:"user"`
}

// Cita is an appointment as serialized by the backend.
type Cita struct {
	ID                    int        `json:"id"`
	Paciente              int        `json:"paciente,omitempty"`
	PacienteNombre        string     `json:"paciente_nombre,omitempty"`
	Profesional           int        `json:"profesional"`
	ProfesionalNombre     string     `json:"profesional_nombre,omitempty"`
	Especialidad          string     `json:"especialidad,omitempty"`
	FechaHora             time.Time  `json:"fecha_hora"`
	HoraFin               string     `json:"hora_fin,omitempty"`
	DuracionMinutos       int        `json:"duracion_minutos,omitempty"`
	MotivoConsulta        string     `json:"motivo_consulta,omitempty"`
	Estado                string     `json:"estado"`
	EstadoDisplay         string     `json:"estado_display,omitempty"`
	ConfirmadaPorPaciente bool       `json:"confirmada_por_paciente"`
	FechaConfirmacion     *time.Time `json:"fecha_confirmacion,omitempty"`
	FechaCancelacion      *time.Time `json:"fecha_cancelacion,omitempty"`
	MotivoCancelacion     string     `json:"motivo_cancelacion,omitempty"`
	CanceladaPor          string     `json:"cancelada_por,omitempty"`
	Observaciones         string     `json:"observaciones,omitempty"`
	NotasProfesional      string     `json:"notas_profesional,omitempty"`
	PuedeCancelar         bool       `json:"puede_cancelar,omitempty"`
	FechaCreacion         *time.Time `json:"fecha_creacion,omitempty"`
}

// NuevaCitaInput is the body for POST /citas/.
type NuevaCitaInput struct {
	Profesional     int    `json:"profesional"`
	FechaHora       string `json:"fecha_hora"`
	DuracionMinutos int    `json:"duracion_minutos,omitempty"`
	MotivoConsulta  string `json:"motivo_consulta"`
}

// EstadisticasCitas is the admin aggregate from GET /citas/estadisticas/.
type EstadisticasCitas struct {
	TotalCitas       int     `json:"total_citas"`
	CitasAgendadas   int     `json:"citas_agendadas"`
	CitasConfirmadas int     `json:"citas_confirmadas"`
	CitasCompletadas int     `json:"citas_completadas"`
	CitasCanceladas  int     `json:"citas_canceladas"`
	CitasNoAsistio   int     `json:"citas_no_asistio"`
	TasaInasistencia float64 `json:"tasa_inasistencia"`

	PorEstado []EstadisticaEstado `json:"estadisticas_por_estado,omitempty"`
}

// EstadisticaEstado is one per-state bucket of the aggregate.
type EstadisticaEstado struct {
	Estado string `json:"estado"`
	Total  int    `json:"total"`
}

// Profesional is the full clinician record from GET /profesionales/{id}/.
type Profesional struct {
	ID                  int    `json:"id"`
	Usuario             int    `json:"usuario,omitempty"`
	UsuarioNombre       string `json:"usuario_nombre,omitempty"`
	UsuarioEmail        string `json:"usuario_email,omitempty"`
	Especialidad        string `json:"especialidad"`
	TituloProfesional   string `json:"titulo_profesional,omitempty"`
	RegistroProfesional string `json:"registro_profesional,omitempty"`
	AnosExperiencia     int    `json:"anos_experiencia,omitempty"`
	DuracionCitaMinutos int    `json:"duracion_cita_minutos,omitempty"`
	ActivoParaCitas     bool   `json:"activo_para_citas"`
	Biografia           string `json:"biografia,omitempty"`
}

// ProfesionalResumen is the list-view record from GET /profesionales/.
type ProfesionalResumen struct {
	ID                int    `json:"id"`
	NombreCompleto    string `json:"nombre_completo"`
	Especialidad      string `json:"especialidad"`
	TituloProfesional string `json:"titulo_profesional,omitempty"`
}

// Disponibilidad is one weekly availability rule.
type Disponibilidad struct {
	ID                int    `json:"id,omitempty"`
	Profesional       int    `json:"profesional"`
	ProfesionalNombre string `json:"profesional_nombre,omitempty"`
	DiaSemana         int    `json:"dia_semana"`
	DiaSemanaDisplay  string `json:"dia_semana_display,omitempty"`
	HoraInicio        string `json:"hora_inicio"`
	HoraFin           string `json:"hora_fin"`
	Activo            bool   `json:"activo"`
}

// HorarioSlot is one bookable slot for a given date.
type HorarioSlot struct {
	Hora       string `json:"hora"`
	Disponible bool   `json:"disponible"`
}

// HorariosDisponibles is the body of POST /profesionales/{id}/horarios_disponibles/.
type HorariosDisponibles struct {
	Horarios []HorarioSlot `json:"horarios"`
	Mensaje  string        `json:"mensaje,omitempty"`
}

// RegistroInput is the body for POST /auth/register/.
type RegistroInput struct {
	Rut             string `json:"rut"`
	Email           string `json:"email"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Telefono        string `json:"telefono,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// PerfilInput is the body for PUT /usuarios/update_profile/. Empty fields
// are omitted so the backend's partial update leaves them unchanged.
type PerfilInput struct {
	Nombre          string `json:"nombre,omitempty"`
	Apellido        string `json:"apellido,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
}

// page is the DRF pagination envelope.
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// decodeList accepts either a pagination envelope or a bare JSON array,
// since detail routers page their lists but custom actions do not.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var bare []T
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}
	var p page[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}
