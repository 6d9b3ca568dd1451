// Package routing decides where a navigation may go: the guard gates
// role-protected routes and the dispatcher picks the landing route for the
// application root. Both are pure functions of session state, evaluated
// fresh on every navigation.
package routing

// Route path constants
// All portal routes are defined here to ensure consistency and prevent typos
const (
	// Public routes
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteUnauthorized = "/unauthorized"
	RouteLogout       = "/logout"
	RouteRoot         = "/"

	// Paciente routes
	RoutePaciente          = "/paciente"
	RoutePacienteMisCitas  = "/paciente/mis-citas"
	RoutePacienteNuevaCita = "/paciente/nueva-cita"
	RoutePacienteCita      = "/paciente/cita/{id}"
	RoutePacientePerfil    = "/paciente/perfil"

	// Profesional routes
	RouteProfesional               = "/profesional"
	RouteProfesionalCitas          = "/profesional/citas"
	RouteProfesionalCita           = "/profesional/cita/{id}"
	RouteProfesionalDisponibilidad = "/profesional/disponibilidad"

	// Admin routes
	RouteAdmin              = "/admin"
	RouteAdminCitas         = "/admin/citas"
	RouteAdminUsuarios      = "/admin/usuarios"
	RouteAdminProfesionales = "/admin/profesionales"
	RouteAdminReportes      = "/admin/reportes"
)
