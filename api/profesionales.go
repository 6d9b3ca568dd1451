package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListProfesionales lists clinicians available for booking, optionally
// filtered by specialty (substring match, server side).
func (c *Client) ListProfesionales(ctx context.Context, especialidad string) ([]ProfesionalResumen, error) {
	var query url.Values
	if especialidad != "" {
		query = url.Values{"especialidad": {especialidad}}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/profesionales/", query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[ProfesionalResumen](raw)
}

// Profesional fetches one clinician's full record.
func (c *Client) Profesional(ctx context.Context, id int) (Profesional, error) {
	var p Profesional
	path := fmt.Sprintf("/profesionales/%d/", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &p); err != nil {
		return Profesional{}, err
	}
	return p, nil
}

// DisponibilidadDeProfesional fetches a clinician's weekly availability
// rules.
func (c *Client) DisponibilidadDeProfesional(ctx context.Context, id int) ([]Disponibilidad, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/profesionales/%d/disponibilidad/", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Disponibilidad](raw)
}

// HorariosDisponibles asks the backend to compute bookable slots for a
// clinician on a given date (YYYY-MM-DD). The availability computation
// (weekly rules minus booked appointments minus blocked ranges) is entirely
// server side.
func (c *Client) HorariosDisponibles(ctx context.Context, id int, fecha string) (HorariosDisponibles, error) {
	var result HorariosDisponibles
	path := fmt.Sprintf("/profesionales/%d/horarios_disponibles/", id)
	err := c.do(ctx, http.MethodPost, path, nil, map[string]any{
		"profesional_id": id,
		"fecha":          fecha,
	}, &result)
	if err != nil {
		return HorariosDisponibles{}, err
	}
	return result, nil
}
