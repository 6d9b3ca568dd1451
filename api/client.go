// Package api is the typed client for the clinic REST backend. It attaches
// the session's bearer credential to every request, transparently refreshes
// an expired access token at most once per call, and surfaces backend
// rejections verbatim; no business rule is ever re-derived client side.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sgcsalud/portal/session"
)

const (
	defaultTimeout = 15 * time.Second
	refreshPath    = "/auth/refresh/"
)

// Client talks to the clinic backend on behalf of the current session.
type Client struct {
	baseURL string
	httpc   *http.Client
	sess    *session.Store
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// WithLogger overrides the default global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a Client against baseURL (which already includes the API
// prefix, e.g. https://clinic.example.com/api/v1). The session store is
// required: it supplies the bearer credential and receives token rotations.
func New(baseURL string, sess *session.Store, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if sess == nil {
		return nil, errors.New("[api.New] session store is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		sess:    sess,
		log:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// do performs an authenticated call. On a 401 it attempts exactly one
// transparent refresh and one retry; if the refresh itself fails the
// session is cleared and the original failure propagates to the caller.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return errors.Wrap(err, "[Client.do] marshal body")
	}

	resp, err := c.send(ctx, method, path, query, payload, c.sess.AccessToken())
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		authErr := parseRequestError(resp)
		closeBody(resp)

		if c.sess.RefreshToken() == "" {
			return authErr
		}

		newAccess, refreshErr := c.refreshAccessToken(ctx)
		if refreshErr != nil {
			c.log.Warn().Err(refreshErr).Msg("token refresh failed, clearing session")
			if clearErr := c.sess.Clear(); clearErr != nil {
				c.log.Err(clearErr).Msg("failed to clear session after refresh failure")
			}
			return authErr
		}

		resp, err = c.send(ctx, method, path, query, payload, newAccess)
		if err != nil {
			return err
		}
	}

	return decodeResponse(resp, out)
}

// doPublic performs an unauthenticated call (login, register). No bearer is
// attached and a 401 is a terminal failure, never a refresh trigger.
func (c *Client) doPublic(ctx context.Context, method, path string, body, out any) error {
	payload, err := marshalBody(body)
	if err != nil {
		return errors.Wrap(err, "[Client.doPublic] marshal body")
	}

	resp, err := c.send(ctx, method, path, nil, payload, "")
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token and rotates it into the session store.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	payload, err := marshalBody(map[string]string{"refresh": c.sess.RefreshToken()})
	if err != nil {
		return "", errors.Wrap(err, "[Client.refreshAccessToken] marshal body")
	}

	resp, err := c.send(ctx, http.MethodPost, refreshPath, nil, payload, "")
	if err != nil {
		return "", err
	}

	var result struct {
		Access string `json:"access"`
	}
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}
	if err := c.sess.UpdateAccessToken(result.Access); err != nil {
		return "", errors.Wrap(err, "[Client.refreshAccessToken] rotate access token")
	}
	return result.Access, nil
}

// send builds and executes a single HTTP request. The caller owns the
// response body unless an error is returned.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, bearer string) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.send] build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("method", method).Str("path", path).Msg("transport failure")
		return nil, errors.Wrapf(err, "[Client.send] %s %s", method, path)
	}

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("backend call")
	return resp, nil
}

func marshalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}

// decodeResponse consumes and closes the response body, turning non-2xx
// statuses into *RequestError.
func decodeResponse(resp *http.Response, out any) error {
	defer closeBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseRequestError(resp)
	}
	if out == nil {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "[api.decodeResponse] read body")
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "[api.decodeResponse] unmarshal body")
	}
	return nil
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
