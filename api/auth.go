package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/sgcsalud/portal/usuarios"
)

// Login exchanges credentials for an identity and token pair and
// establishes the session. A prior session is overwritten, which is how
// switching user works. The RUT is the login username.
func (c *Client) Login(ctx context.Context, rut, password string) (usuarios.Usuario, error) {
	if strings.TrimSpace(rut) == "" || password == "" {
		return usuarios.Usuario{}, ErrCamposRequeridos
	}

	var resp LoginResponse
	err := c.doPublic(ctx, http.MethodPost, "/auth/login/", map[string]string{
		"rut":      rut,
		"password": password,
	}, &resp)
	if err != nil {
		return usuarios.Usuario{}, err
	}

	if err := c.sess.Establish(resp.User, resp.Access, resp.Refresh); err != nil {
		return usuarios.Usuario{}, errors.Wrap(err, "[Client.Login] establish session")
	}
	return resp.User, nil
}

// Register creates a new patient account and, like the backend, signs the
// new user straight in.
func (c *Client) Register(ctx context.Context, input RegistroInput) (usuarios.Usuario, error) {
	if input.Rut == "" || input.Email == "" || input.Nombre == "" || input.Apellido == "" || input.Password == "" {
		return usuarios.Usuario{}, ErrCamposRequeridos
	}
	if input.Password != input.PasswordConfirm {
		return usuarios.Usuario{}, ErrPasswordsNoCoinciden
	}

	var resp LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, "/auth/register/", input, &resp); err != nil {
		return usuarios.Usuario{}, err
	}

	if err := c.sess.Establish(resp.User, resp.Access, resp.Refresh); err != nil {
		return usuarios.Usuario{}, errors.Wrap(err, "[Client.Register] establish session")
	}
	return resp.User, nil
}

// Logout invalidates the refresh token server side on a best-effort basis
// and always clears the local session. A backend failure is logged and
// swallowed: the user is logged out locally regardless.
func (c *Client) Logout(ctx context.Context) error {
	refresh := c.sess.RefreshToken()
	if refresh != "" {
		err := c.do(ctx, http.MethodPost, "/auth/logout/", nil, map[string]string{"refresh": refresh}, nil)
		if err != nil {
			c.log.Warn().Err(err).Msg("backend logout failed, clearing local session anyway")
		}
	}
	if err := c.sess.Clear(); err != nil {
		return errors.Wrap(err, "[Client.Logout] clear session")
	}
	return nil
}
