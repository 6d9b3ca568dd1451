package routing

import "github.com/sgcsalud/portal/usuarios"

// Dispatch computes the landing route for the application root from the
// current session state. An unrecognised role falls through to the login
// route: it is treated like an unauthenticated visitor rather than an
// error, since the backend is the authority on what roles exist.
func Dispatch(authenticated bool, rol usuarios.Role) string {
	if !authenticated {
		return RouteLogin
	}
	switch rol {
	case usuarios.RoleAdmin:
		return RouteAdmin
	case usuarios.RoleProfesional:
		return RouteProfesional
	case usuarios.RolePaciente:
		return RoutePaciente
	default:
		return RouteLogin
	}
}

// DispatchSession is the live-state convenience form of Dispatch.
func DispatchSession(sess SessionState) string {
	return Dispatch(sess.IsAuthenticated(), sess.Rol())
}
