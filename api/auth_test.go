package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/clinictest"
	"github.com/sgcsalud/portal/usuarios"
)

func TestClient_Login(t *testing.T) {
	t.Run("establishes a session on success", func(t *testing.T) {
		f := setupTestFixture(t)

		u, err := f.client.Login(context.Background(), clinictest.RutPaciente, clinictest.Password)
		require.NoError(t, err)

		require.Equal(t, clinictest.RutPaciente, u.Rut)
		require.Equal(t, usuarios.RolePaciente, u.Rol)
		require.True(t, f.sess.IsAuthenticated())
		require.NotEmpty(t, f.sess.AccessToken())
		require.NotEmpty(t, f.sess.RefreshToken())
	})

	t.Run("surfaces the backend rejection for bad credentials", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.client.Login(context.Background(), clinictest.RutPaciente, "wrong-password")
		require.Error(t, err)
		require.Equal(t, "Credenciales inválidas", api.MensajeDeError(err))
		require.False(t, f.sess.IsAuthenticated())
	})

	t.Run("rejects empty credentials without a network call", func(t *testing.T) {
		f := setupTestFixture(t)

		_, err := f.client.Login(context.Background(), "", clinictest.Password)
		require.ErrorIs(t, err, api.ErrCamposRequeridos)
		_, err = f.client.Login(context.Background(), clinictest.RutPaciente, "")
		require.ErrorIs(t, err, api.ErrCamposRequeridos)
	})

	t.Run("switches user by overwriting the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		u := f.login(t, clinictest.RutAdmin)
		require.Equal(t, usuarios.RoleAdmin, u.Rol)
		require.Equal(t, usuarios.RoleAdmin, f.sess.Rol())
	})

	t.Run("rejects a blocked account", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutAdmin)
		paciente, ok := f.backend.Usuario(clinictest.RutPaciente)
		require.True(t, ok)
		require.NoError(t, f.client.BloquearUsuario(context.Background(), paciente.ID, "deuda pendiente"))

		_, err := f.client.Login(context.Background(), clinictest.RutPaciente, clinictest.Password)
		require.Error(t, err)
		require.Contains(t, api.MensajeDeError(err), "bloqueado")
	})
}

func TestClient_Register(t *testing.T) {
	validInput := func() api.RegistroInput {
		return api.RegistroInput{
			Rut:             "19876543-2",
			Email:           "nueva@example.com",
			Nombre:          "Nueva",
			Apellido:        "Paciente",
			Password:        "secreta123",
			PasswordConfirm: "secreta123",
		}
	}

	t.Run("creates a patient account and signs in", func(t *testing.T) {
		f := setupTestFixture(t)

		u, err := f.client.Register(context.Background(), validInput())
		require.NoError(t, err)
		require.Equal(t, usuarios.RolePaciente, u.Rol)
		require.True(t, f.sess.IsAuthenticated())
	})

	t.Run("rejects mismatched passwords without a network call", func(t *testing.T) {
		f := setupTestFixture(t)

		input := validInput()
		input.PasswordConfirm = "otra"
		_, err := f.client.Register(context.Background(), input)
		require.ErrorIs(t, err, api.ErrPasswordsNoCoinciden)
	})

	t.Run("rejects missing required fields without a network call", func(t *testing.T) {
		f := setupTestFixture(t)

		input := validInput()
		input.Email = ""
		_, err := f.client.Register(context.Background(), input)
		require.ErrorIs(t, err, api.ErrCamposRequeridos)
	})

	t.Run("surfaces the duplicate RUT field error", func(t *testing.T) {
		f := setupTestFixture(t)

		input := validInput()
		input.Rut = clinictest.RutPaciente
		_, err := f.client.Register(context.Background(), input)
		require.Error(t, err)
		require.Equal(t, "Este RUT ya está registrado", api.MensajeDeError(err))
	})
}

func TestClient_Logout(t *testing.T) {
	t.Run("revokes the refresh token and clears the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		refresh := f.sess.RefreshToken()

		require.NoError(t, f.client.Logout(context.Background()))
		require.False(t, f.sess.IsAuthenticated())

		// The revoked refresh token can no longer mint access tokens.
		u, _ := f.backend.Usuario(clinictest.RutPaciente)
		require.NoError(t, f.sess.Establish(u, f.backend.MintExpiredAccess(u), refresh))
		_, err := f.client.Me(context.Background())
		require.Error(t, err)
		require.False(t, f.sess.IsAuthenticated())
	})

	t.Run("clears the session even when the backend is unreachable", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		f.server.Close()
		require.NoError(t, f.client.Logout(context.Background()))
		require.False(t, f.sess.IsAuthenticated())
	})

	t.Run("is safe without a session", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.client.Logout(context.Background()))
	})
}
