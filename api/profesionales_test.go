package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/clinictest"
)

func TestClient_ListProfesionales(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, clinictest.RutPaciente)

	t.Run("lists active clinicians", func(t *testing.T) {
		profesionales, err := f.client.ListProfesionales(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, profesionales, 1)
		require.Equal(t, "Carla Rojas", profesionales[0].NombreCompleto)
	})

	t.Run("filters by specialty substring", func(t *testing.T) {
		profesionales, err := f.client.ListProfesionales(context.Background(), "medicina")
		require.NoError(t, err)
		require.Len(t, profesionales, 1)

		profesionales, err = f.client.ListProfesionales(context.Background(), "dermatología")
		require.NoError(t, err)
		require.Empty(t, profesionales)
	})
}

func TestClient_Profesional(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, clinictest.RutPaciente)

	t.Run("fetches the full record", func(t *testing.T) {
		p, err := f.client.Profesional(context.Background(), 1)
		require.NoError(t, err)
		require.Equal(t, "Medicina General", p.Especialidad)
		require.Equal(t, 30, p.DuracionCitaMinutos)
	})

	t.Run("yields the server's 404 for an unknown id", func(t *testing.T) {
		_, err := f.client.Profesional(context.Background(), 99)
		require.Error(t, err)
		require.Equal(t, "No encontrado.", api.MensajeDeError(err))
	})
}

func TestClient_HorariosDisponibles(t *testing.T) {
	fecha := futureMonday().Format("2006-01-02")

	t.Run("computes free slots from the weekly rule", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		horarios, err := f.client.HorariosDisponibles(context.Background(), 1, fecha)
		require.NoError(t, err)
		// 09:00 to 12:00 in 30-minute steps.
		require.Len(t, horarios.Horarios, 6)
		require.Equal(t, "09:00", horarios.Horarios[0].Hora)
		require.Equal(t, "11:30", horarios.Horarios[5].Hora)
	})

	t.Run("excludes booked slots", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		bookCita(t, f) // books 09:00 on the same Monday

		horarios, err := f.client.HorariosDisponibles(context.Background(), 1, fecha)
		require.NoError(t, err)
		require.Len(t, horarios.Horarios, 5)
		require.Equal(t, "09:30", horarios.Horarios[0].Hora)
	})

	t.Run("reports a day without availability", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		sunday := futureMonday().AddDate(0, 0, 6)
		horarios, err := f.client.HorariosDisponibles(context.Background(), 1, sunday.Format("2006-01-02"))
		require.NoError(t, err)
		require.Empty(t, horarios.Horarios)
		require.NotEmpty(t, horarios.Mensaje)
	})
}

func TestClient_Disponibilidades(t *testing.T) {
	t.Run("full CRUD for the owning professional", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutProfesional)

		existing, err := f.client.ListDisponibilidades(context.Background())
		require.NoError(t, err)
		require.Len(t, existing, 1)

		created, err := f.client.CrearDisponibilidad(context.Background(), api.Disponibilidad{
			DiaSemana:  2,
			HoraInicio: "14:00",
			HoraFin:    "18:00",
			Activo:     true,
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		updated, err := f.client.ActualizarDisponibilidad(context.Background(), created.ID, api.Disponibilidad{
			DiaSemana:  2,
			HoraInicio: "15:00",
			HoraFin:    "18:00",
			Activo:     true,
		})
		require.NoError(t, err)
		require.Equal(t, "15:00", updated.HoraInicio)

		require.NoError(t, f.client.EliminarDisponibilidad(context.Background(), created.ID))

		remaining, err := f.client.ListDisponibilidades(context.Background())
		require.NoError(t, err)
		require.Len(t, remaining, 1)
	})

	t.Run("rejects an inverted time range", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutProfesional)

		_, err := f.client.CrearDisponibilidad(context.Background(), api.Disponibilidad{
			DiaSemana:  1,
			HoraInicio: "18:00",
			HoraFin:    "09:00",
			Activo:     true,
		})
		require.Error(t, err)
		require.Contains(t, api.MensajeDeError(err), "hora de fin")
	})

	t.Run("is forbidden for patients", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.ListDisponibilidades(context.Background())
		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, 403, reqErr.StatusCode)
	})

	t.Run("weekly rules are visible to patients via the professional detail", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		rules, err := f.client.DisponibilidadDeProfesional(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		require.Equal(t, "09:00", rules[0].HoraInicio)
	})
}
