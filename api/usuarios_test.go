package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/clinictest"
)

func TestClient_Me(t *testing.T) {
	f := setupTestFixture(t)
	u := f.login(t, clinictest.RutProfesional)

	me, err := f.client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, u.ID, me.ID)
	require.Equal(t, u.Rut, me.Rut)
}

func TestClient_UpdateProfile(t *testing.T) {
	t.Run("updates the backend and the session identity", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		updated, err := f.client.UpdateProfile(context.Background(), api.PerfilInput{
			Telefono:  "+56911112222",
			Direccion: "Av. Siempre Viva 742",
		})
		require.NoError(t, err)
		require.Equal(t, "+56911112222", updated.Telefono)

		// The session mirror keeps the refreshed identity.
		require.Equal(t, "+56911112222", f.sess.Usuario().Telefono)
		require.Equal(t, "Av. Siempre Viva 742", f.sess.Usuario().Direccion)
	})

	t.Run("leaves omitted fields unchanged", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.login(t, clinictest.RutPaciente)

		updated, err := f.client.UpdateProfile(context.Background(), api.PerfilInput{Telefono: "+56933334444"})
		require.NoError(t, err)
		require.Equal(t, u.Nombre, updated.Nombre)
		require.Equal(t, u.Apellido, updated.Apellido)
	})
}

func TestClient_ChangePassword(t *testing.T) {
	t.Run("changes the password end to end", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		require.NoError(t, f.client.ChangePassword(context.Background(), clinictest.Password, "nueva-clave-1", "nueva-clave-1"))
		require.NoError(t, f.client.Logout(context.Background()))

		_, err := f.client.Login(context.Background(), clinictest.RutPaciente, clinictest.Password)
		require.Error(t, err, "old password should be rejected")
		_, err = f.client.Login(context.Background(), clinictest.RutPaciente, "nueva-clave-1")
		require.NoError(t, err)
	})

	t.Run("checks the confirmation client side", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		err := f.client.ChangePassword(context.Background(), clinictest.Password, "nueva", "distinta")
		require.ErrorIs(t, err, api.ErrPasswordsNoCoinciden)
	})

	t.Run("surfaces a wrong current password", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		err := f.client.ChangePassword(context.Background(), "equivocada", "nueva-clave-1", "nueva-clave-1")
		require.Error(t, err)
		require.Equal(t, "Contraseña actual incorrecta", api.MensajeDeError(err))
	})

	t.Run("requires both passwords", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		require.ErrorIs(t, f.client.ChangePassword(context.Background(), "", "nueva", "nueva"), api.ErrCamposRequeridos)
	})
}

func TestClient_ListUsuarios(t *testing.T) {
	t.Run("lists all accounts for admins", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutAdmin)

		all, err := f.client.ListUsuarios(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 3)
	})

	t.Run("is forbidden for other roles", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.ListUsuarios(context.Background())
		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, 403, reqErr.StatusCode)
	})
}
