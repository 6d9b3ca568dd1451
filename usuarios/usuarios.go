package usuarios

import "strings"

// Role is the account role assigned by the clinic backend. It is fixed for
// the lifetime of a session; changing role requires a fresh login.
type Role string

const (
	// RolePaciente is a patient account, the default for self-registration.
	RolePaciente Role = "PACIENTE"
	// RoleProfesional is a clinician account managed by an administrator.
	RoleProfesional Role = "PROFESIONAL"
	// RoleAdmin is an administrator account.
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a backend role string onto the closed Role enumeration.
// Unrecognised values return ok=false so callers can apply the
// "unknown role is treated as unauthenticated" policy explicitly.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePaciente:
		return RolePaciente, true
	case RoleProfesional:
		return RoleProfesional, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// IsValid reports whether the role is one of the three known roles.
func (r Role) IsValid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Usuario mirrors the identity record served by the clinic backend
// (GET /usuarios/me/ and the user object embedded in the login response).
type Usuario struct {
	ID                    int    `json:"id"`
	Rut                   string `json:"rut"`
	Email                 string `json:"email"`
	Nombre                string `json:"nombre"`
	Apellido              string `json:"apellido"`
	NombreCompleto        string `json:"nombre_completo,omitempty"`
	Telefono              string `json:"telefono,omitempty"`
	FechaNacimiento       string `json:"fecha_nacimiento,omitempty"`
	Direccion             string `json:"direccion,omitempty"`
	Rol                   Role   `json:"rol"`
	ContadorInasistencias int    `json:"contador_inasistencias"`
	Bloqueado             bool   `json:"bloqueado"`
	FechaBloqueo          string `json:"fecha_bloqueo,omitempty"`
	MotivoBloqueo         string `json:"motivo_bloqueo,omitempty"`
	IsActive              bool   `json:"is_active"`
	DateJoined            string `json:"date_joined,omitempty"`
	PuedeAgendar          bool   `json:"puede_agendar"`
}

// FullName returns "Nombre Apellido", falling back to the server-computed
// nombre_completo when the individual parts are empty.
func (u Usuario) FullName() string {
	name := strings.TrimSpace(u.Nombre + " " + u.Apellido)
	if name == "" {
		return u.NombreCompleto
	}
	return name
}

func (u Usuario) EsPaciente() bool    { return u.Rol == RolePaciente }
func (u Usuario) EsProfesional() bool { return u.Rol == RoleProfesional }
func (u Usuario) EsAdmin() bool       { return u.Rol == RoleAdmin }

// Valida reports whether the record is complete enough to anchor a session:
// a persisted ID, a RUT and a recognised role.
func (u Usuario) Valida() bool {
	return u.ID != 0 && u.Rut != "" && u.Rol.IsValid()
}
