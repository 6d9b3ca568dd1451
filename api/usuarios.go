package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/sgcsalud/portal/usuarios"
)

// Me fetches the current identity from the backend.
func (c *Client) Me(ctx context.Context) (usuarios.Usuario, error) {
	var u usuarios.Usuario
	if err := c.do(ctx, http.MethodGet, "/usuarios/me/", nil, nil, &u); err != nil {
		return usuarios.Usuario{}, err
	}
	return u, nil
}

// UpdateProfile updates the current user's identity fields and mirrors the
// refreshed record into the session store. Tokens are untouched.
func (c *Client) UpdateProfile(ctx context.Context, input PerfilInput) (usuarios.Usuario, error) {
	var u usuarios.Usuario
	if err := c.do(ctx, http.MethodPut, "/usuarios/update_profile/", nil, input, &u); err != nil {
		return usuarios.Usuario{}, err
	}
	if err := c.sess.UpdateIdentity(u); err != nil {
		return usuarios.Usuario{}, errors.Wrap(err, "[Client.UpdateProfile] update session identity")
	}
	return u, nil
}

// ChangePassword submits an old/new password pair. The confirmation check
// happens client side, before any network call.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword, newPasswordConfirm string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrCamposRequeridos
	}
	if newPassword != newPasswordConfirm {
		return ErrPasswordsNoCoinciden
	}
	return c.do(ctx, http.MethodPost, "/usuarios/change_password/", nil, map[string]string{
		"old_password":         oldPassword,
		"new_password":         newPassword,
		"new_password_confirm": newPasswordConfirm,
	}, nil)
}

// ListUsuarios lists all identities (admin only).
func (c *Client) ListUsuarios(ctx context.Context) ([]usuarios.Usuario, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/usuarios/", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[usuarios.Usuario](raw)
}

// BloquearUsuario blocks a user with a reason (admin only).
func (c *Client) BloquearUsuario(ctx context.Context, id int, motivo string) error {
	path := fmt.Sprintf("/usuarios/%d/bloquear/", id)
	return c.do(ctx, http.MethodPost, path, nil, map[string]string{"motivo": motivo}, nil)
}

// DesbloquearUsuario unblocks a user and resets the no-show counter
// (admin only).
func (c *Client) DesbloquearUsuario(ctx context.Context, id int, motivo string) error {
	path := fmt.Sprintf("/usuarios/%d/desbloquear/", id)
	return c.do(ctx, http.MethodPost, path, nil, map[string]string{"motivo": motivo}, nil)
}
