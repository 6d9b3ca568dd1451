package server

import (
	"net/http"
	"runtime/debug"

	"github.com/sgcsalud/portal/routing"
	"github.com/sgcsalud/portal/usuarios"
)

// RequireRoles evaluates the route guard on every request, against live
// session state. Redirects use 303 so the browser always re-GETs the
// target, even after a form POST.
func (s *Server) RequireRoles(required ...usuarios.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := routing.Evaluate(s.sess, required...)
			if decision != routing.Allow {
				s.log.Debug().
					Str("path", r.URL.Path).
					Str("target", decision.Target()).
					Msg("navigation redirected by guard")
				http.Redirect(w, r, decision.Target(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env == "DEV" {
			logRoute(r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic in handler")
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
