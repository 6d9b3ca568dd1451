package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListCitas lists the appointments visible to the current user: their own
// for patients, their agenda for professionals, everything for admins.
func (c *Client) ListCitas(ctx context.Context) ([]Cita, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/citas/", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Cita](raw)
}

// ProximasCitas lists the current user's upcoming appointments.
func (c *Client) ProximasCitas(ctx context.Context) ([]Cita, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/citas/mis_proximas_citas/", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Cita](raw)
}

// Cita fetches one appointment by id.
func (c *Client) Cita(ctx context.Context, id int) (Cita, error) {
	var cita Cita
	path := fmt.Sprintf("/citas/%d/", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &cita); err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// CrearCita books a new appointment. Whether the slot is still free, inside
// the professional's availability, etc. is decided entirely server side.
func (c *Client) CrearCita(ctx context.Context, input NuevaCitaInput) (Cita, error) {
	var cita Cita
	if err := c.do(ctx, http.MethodPost, "/citas/", nil, input, &cita); err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// CancelarCita cancels an appointment with a reason. The 24-hour rule and
// any other cancellation policy live on the backend; a rejection arrives as
// a *RequestError with the server's message.
func (c *Client) CancelarCita(ctx context.Context, id int, motivo string) (Cita, error) {
	var cita Cita
	path := fmt.Sprintf("/citas/%d/cancelar/", id)
	err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"motivo_cancelacion": motivo}, &cita)
	if err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// ConfirmarCita records the patient's attendance confirmation.
func (c *Client) ConfirmarCita(ctx context.Context, id int) (Cita, error) {
	var cita Cita
	path := fmt.Sprintf("/citas/%d/confirmar/", id)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &cita); err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// CompletarCita marks an appointment completed and attaches the
// professional's notes.
func (c *Client) CompletarCita(ctx context.Context, id int, notas string) (Cita, error) {
	var cita Cita
	path := fmt.Sprintf("/citas/%d/completar/", id)
	err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"notas_profesional": notas}, &cita)
	if err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// MarcarNoAsistio marks a no-show. The backend increments the patient's
// no-show counter and may block the account as a consequence.
func (c *Client) MarcarNoAsistio(ctx context.Context, id int) (Cita, error) {
	var cita Cita
	path := fmt.Sprintf("/citas/%d/marcar_no_asistio/", id)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &cita); err != nil {
		return Cita{}, err
	}
	return cita, nil
}

// Estadisticas fetches aggregate appointment counts (admin only),
// optionally bounded by fecha_desde / fecha_hasta (YYYY-MM-DD).
func (c *Client) Estadisticas(ctx context.Context, fechaDesde, fechaHasta string) (EstadisticasCitas, error) {
	query := url.Values{}
	if fechaDesde != "" {
		query.Set("fecha_desde", fechaDesde)
	}
	if fechaHasta != "" {
		query.Set("fecha_hasta", fechaHasta)
	}

	var stats EstadisticasCitas
	if err := c.do(ctx, http.MethodGet, "/citas/estadisticas/", query, nil, &stats); err != nil {
		return EstadisticasCitas{}, err
	}
	return stats, nil
}
