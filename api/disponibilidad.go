package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListDisponibilidades lists the current professional's own weekly slot
// rules.
func (c *Client) ListDisponibilidades(ctx context.Context) ([]Disponibilidad, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/disponibilidades/", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Disponibilidad](raw)
}

// CrearDisponibilidad adds a weekly slot rule.
func (c *Client) CrearDisponibilidad(ctx context.Context, input Disponibilidad) (Disponibilidad, error) {
	var d Disponibilidad
	if err := c.do(ctx, http.MethodPost, "/disponibilidades/", nil, input, &d); err != nil {
		return Disponibilidad{}, err
	}
	return d, nil
}

// ActualizarDisponibilidad replaces a weekly slot rule.
func (c *Client) ActualizarDisponibilidad(ctx context.Context, id int, input Disponibilidad) (Disponibilidad, error) {
	var d Disponibilidad
	path := fmt.Sprintf("/disponibilidades/%d/", id)
	if err := c.do(ctx, http.MethodPut, path, nil, input, &d); err != nil {
		return Disponibilidad{}, err
	}
	return d, nil
}

// EliminarDisponibilidad removes a weekly slot rule.
func (c *Client) EliminarDisponibilidad(ctx context.Context, id int) error {
	path := fmt.Sprintf("/disponibilidades/%d/", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
