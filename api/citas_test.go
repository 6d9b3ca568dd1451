package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/clinictest"
)

// bookCita creates an appointment for the logged-in patient with
// professional 1 at the next Monday 09:00.
func bookCita(t *testing.T, f *testFixture) api.Cita {
	t.Helper()

	fechaHora := futureMonday().Add(9 * time.Hour)
	cita, err := f.client.CrearCita(context.Background(), api.NuevaCitaInput{
		Profesional:    1,
		FechaHora:      fechaHora.Format(time.RFC3339),
		MotivoConsulta: "Control general",
	})
	require.NoError(t, err)
	return cita
}

func TestClient_CrearCita(t *testing.T) {
	t.Run("books an appointment in AGENDADA state", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		cita := bookCita(t, f)
		require.NotZero(t, cita.ID)
		require.Equal(t, api.EstadoAgendada, cita.Estado)
		require.Equal(t, "Medicina General", cita.Especialidad)
		require.Equal(t, 30, cita.DuracionMinutos)
	})

	t.Run("surfaces a past-date rejection verbatim", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.CrearCita(context.Background(), api.NuevaCitaInput{
			Profesional: 1,
			FechaHora:   time.Now().Add(-time.Hour).Format(time.RFC3339),
		})
		require.Error(t, err)
		require.Equal(t, "La fecha debe ser futura", api.MensajeDeError(err))
	})

	t.Run("surfaces an unknown professional rejection", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.CrearCita(context.Background(), api.NuevaCitaInput{
			Profesional: 99,
			FechaHora:   time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})
		require.Error(t, err)
		require.Equal(t, "Profesional no encontrado", api.MensajeDeError(err))
	})
}

func TestClient_ListCitas(t *testing.T) {
	t.Run("decodes the pagination envelope", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		booked := bookCita(t, f)

		citas, err := f.client.ListCitas(context.Background())
		require.NoError(t, err)
		require.Len(t, citas, 1)
		require.Equal(t, booked.ID, citas[0].ID)
	})

	t.Run("upcoming appointments decode from a bare array", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		bookCita(t, f)

		proximas, err := f.client.ProximasCitas(context.Background())
		require.NoError(t, err)
		require.Len(t, proximas, 1)
	})

	t.Run("a cancelled appointment is no longer upcoming", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		_, err := f.client.CancelarCita(context.Background(), cita.ID, "no puedo asistir")
		require.NoError(t, err)

		proximas, err := f.client.ProximasCitas(context.Background())
		require.NoError(t, err)
		require.Empty(t, proximas)
	})
}

func TestClient_CitaLifecycle(t *testing.T) {
	t.Run("confirm then cancel", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		confirmed, err := f.client.ConfirmarCita(context.Background(), cita.ID)
		require.NoError(t, err)
		require.Equal(t, api.EstadoConfirmada, confirmed.Estado)
		require.True(t, confirmed.ConfirmadaPorPaciente)

		cancelled, err := f.client.CancelarCita(context.Background(), cita.ID, "imprevisto")
		require.NoError(t, err)
		require.Equal(t, api.EstadoCancelada, cancelled.Estado)
		require.Equal(t, "imprevisto", cancelled.MotivoCancelacion)
	})

	t.Run("confirming twice is rejected by the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		_, err := f.client.ConfirmarCita(context.Background(), cita.ID)
		require.NoError(t, err)
		_, err = f.client.ConfirmarCita(context.Background(), cita.ID)
		require.Error(t, err)
		require.Equal(t, "Solo se pueden confirmar citas agendadas", api.MensajeDeError(err))
	})

	t.Run("cancelling a cancelled appointment is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		_, err := f.client.CancelarCita(context.Background(), cita.ID, "primera vez")
		require.NoError(t, err)
		_, err = f.client.CancelarCita(context.Background(), cita.ID, "segunda vez")
		require.Error(t, err)
		require.Contains(t, api.MensajeDeError(err), "No se puede cancelar")
	})

	t.Run("professional completes with notes", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		f.login(t, clinictest.RutProfesional)
		completed, err := f.client.CompletarCita(context.Background(), cita.ID, "control sin novedades")
		require.NoError(t, err)
		require.Equal(t, api.EstadoCompletada, completed.Estado)
		require.Equal(t, "control sin novedades", completed.NotasProfesional)
	})

	t.Run("patient cannot complete an appointment", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)

		_, err := f.client.CompletarCita(context.Background(), cita.ID, "")
		require.Error(t, err)
		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, 403, reqErr.StatusCode)
	})

	t.Run("fetching an unknown appointment yields the server's 404 detail", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.Cita(context.Background(), 999)
		require.Error(t, err)
		require.Equal(t, "No encontrado.", api.MensajeDeError(err))
	})
}

func TestClient_NoShowBlocking(t *testing.T) {
	t.Run("three no-shows block the patient", func(t *testing.T) {
		f := setupTestFixture(t)

		f.login(t, clinictest.RutPaciente)
		var ids []int
		for i := 0; i < 3; i++ {
			ids = append(ids, bookCita(t, f).ID)
		}

		f.login(t, clinictest.RutProfesional)
		for _, id := range ids {
			_, err := f.client.MarcarNoAsistio(context.Background(), id)
			require.NoError(t, err)
		}

		paciente, ok := f.backend.Usuario(clinictest.RutPaciente)
		require.True(t, ok)
		require.Equal(t, 3, paciente.ContadorInasistencias)
		require.True(t, paciente.Bloqueado)
		require.False(t, paciente.PuedeAgendar)
	})

	t.Run("unblocking resets the counter", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutAdmin)
		paciente, _ := f.backend.Usuario(clinictest.RutPaciente)

		require.NoError(t, f.client.BloquearUsuario(context.Background(), paciente.ID, "inasistencias"))
		require.NoError(t, f.client.DesbloquearUsuario(context.Background(), paciente.ID, "regularizado"))

		paciente, _ = f.backend.Usuario(clinictest.RutPaciente)
		require.False(t, paciente.Bloqueado)
		require.Zero(t, paciente.ContadorInasistencias)
		require.True(t, paciente.PuedeAgendar)
	})
}

func TestClient_Estadisticas(t *testing.T) {
	t.Run("aggregates appointment states for admins", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)
		cita := bookCita(t, f)
		bookCita(t, f)
		_, err := f.client.CancelarCita(context.Background(), cita.ID, "imprevisto")
		require.NoError(t, err)

		f.login(t, clinictest.RutAdmin)
		stats, err := f.client.Estadisticas(context.Background(), "", "")
		require.NoError(t, err)
		require.Equal(t, 2, stats.TotalCitas)
		require.Equal(t, 1, stats.CitasAgendadas)
		require.Equal(t, 1, stats.CitasCanceladas)
	})

	t.Run("is forbidden for patients", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, clinictest.RutPaciente)

		_, err := f.client.Estadisticas(context.Background(), "", "")
		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.Equal(t, 403, reqErr.StatusCode)
	})
}
