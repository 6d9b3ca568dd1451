package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// FallbackMessage is shown when the backend gave no usable message.
const FallbackMessage = "Ha ocurrido un error. Intente nuevamente."

var (
	// ErrPasswordsNoCoinciden is the client-side validation failure for a
	// mismatched password confirmation; no network call is made.
	ErrPasswordsNoCoinciden = errors.New("las contraseñas no coinciden")

	// ErrCamposRequeridos is the client-side validation failure for a
	// required field left empty; no network call is made.
	ErrCamposRequeridos = errors.New("complete todos los campos requeridos")
)

// RequestError is a non-2xx response from the backend. Business-rule
// rejections (e.g. "cannot cancel within 24 hours") arrive here verbatim;
// the client never re-derives them.
type RequestError struct {
	StatusCode int
	// Detail is the server's top-level "detail" message, when present.
	Detail string
	// Fields maps field names to their validation messages, DRF style.
	Fields map[string][]string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Mensaje())
}

// Mensaje returns the user-facing message: the detail string, otherwise the
// first field validation message, otherwise a generic fallback.
func (e *RequestError) Mensaje() string {
	if e.Detail != "" {
		return e.Detail
	}
	// Deterministic pick of the first field message.
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return FallbackMessage
}

// IsAuthFailure reports whether the response was a 401.
func (e *RequestError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// parseRequestError builds a RequestError from a non-2xx response body.
// DRF bodies are either {"detail": "..."} or a field→message-list map;
// anything else degrades to the bare status code.
func parseRequestError(resp *http.Response) *RequestError {
	reqErr := &RequestError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		return reqErr
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return reqErr
	}

	for field, val := range body {
		var s string
		if err := json.Unmarshal(val, &s); err == nil {
			if field == "detail" {
				reqErr.Detail = s
				continue
			}
			addFieldMessage(reqErr, field, s)
			continue
		}
		var list []string
		if err := json.Unmarshal(val, &list); err == nil {
			for _, msg := range list {
				addFieldMessage(reqErr, field, msg)
			}
		}
	}
	return reqErr
}

func addFieldMessage(e *RequestError, field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// MensajeDeError extracts a display message from any error returned by this
// package, applying the generic fallback for transport failures.
func MensajeDeError(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Mensaje()
	}
	if errors.Is(err, ErrPasswordsNoCoinciden) || errors.Is(err, ErrCamposRequeridos) {
		return err.Error()
	}
	return FallbackMessage
}
