package routing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/usuarios"
)

// fakeSession is a minimal SessionState for guard and dispatch tests.
type fakeSession struct {
	authenticated bool
	rol           usuarios.Role
}

func (f fakeSession) IsAuthenticated() bool { return f.authenticated }
func (f fakeSession) Rol() usuarios.Role    { return f.rol }

func TestGuard(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		rol           usuarios.Role
		required      []usuarios.Role
		want          routing.Decision
	}{
		{
			name:     "anonymous visitor is sent to login",
			required: []usuarios.Role{usuarios.RolePaciente},
			want:     routing.RedirectLogin,
		},
		{
			name: "anonymous visitor is sent to login even without role requirement",
			want: routing.RedirectLogin,
		},
		{
			name:          "matching role is allowed",
			authenticated: true,
			rol:           usuarios.RolePaciente,
			required:      []usuarios.Role{usuarios.RolePaciente},
			want:          routing.Allow,
		},
		{
			name:          "any of several required roles is allowed",
			authenticated: true,
			rol:           usuarios.RoleProfesional,
			required:      []usuarios.Role{usuarios.RoleAdmin, usuarios.RoleProfesional},
			want:          routing.Allow,
		},
		{
			name:          "wrong role is unauthorized",
			authenticated: true,
			rol:           usuarios.RolePaciente,
			required:      []usuarios.Role{usuarios.RoleAdmin},
			want:          routing.RedirectUnauthorized,
		},
		{
			name:          "authentication is checked before role",
			authenticated: false,
			rol:           usuarios.RolePaciente,
			required:      []usuarios.Role{usuarios.RoleAdmin},
			want:          routing.RedirectLogin,
		},
		{
			name:          "empty required set admits any authenticated user",
			authenticated: true,
			rol:           usuarios.RoleAdmin,
			want:          routing.Allow,
		},
		{
			name:          "unknown role is unauthorized on guarded routes",
			authenticated: true,
			rol:           usuarios.Role("SUPERVISOR"),
			required:      []usuarios.Role{usuarios.RolePaciente},
			want:          routing.RedirectUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := routing.Guard(tc.authenticated, tc.rol, tc.required...)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecision_Target(t *testing.T) {
	require.Equal(t, "", routing.Allow.Target())
	require.Equal(t, routing.RouteLogin, routing.RedirectLogin.Target())
	require.Equal(t, routing.RouteUnauthorized, routing.RedirectUnauthorized.Target())
}

func TestEvaluate(t *testing.T) {
	t.Run("reflects live session state", func(t *testing.T) {
		sess := fakeSession{authenticated: true, rol: usuarios.RoleAdmin}
		require.Equal(t, routing.Allow, routing.Evaluate(sess, usuarios.RoleAdmin))

		sess.authenticated = false
		require.Equal(t, routing.RedirectLogin, routing.Evaluate(sess, usuarios.RoleAdmin))
	})
}
