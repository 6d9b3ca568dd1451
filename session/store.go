package session

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sgcsalud/portal/usuarios"
)

// Store is the single source of truth for the portal's identity and
// credential pair. It is created once at the composition root and passed by
// handle to the route guard, the dispatcher and the HTTP client.
//
// The store rehydrates from durable storage on construction and mirrors
// every mutation back into it, so a process restart restores the session.
// Concurrent Establish calls are last-write-wins.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	log     zerolog.Logger

	usuario       usuarios.Usuario
	accessToken   string
	refreshToken  string
	authenticated bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New builds a Store backed by storage and rehydrates any persisted
// session. A partially persisted or corrupt session (token without user,
// malformed user JSON, blank token) is treated as absent: the guard must
// never grant access on a half-populated session. Leftover keys from such a
// state are purged.
func New(storage Storage, options ...Option) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[session.New] storage is required")
	}

	s := &Store{storage: storage, log: log.Logger}
	for _, opt := range options {
		opt(s)
	}

	if err := s.rehydrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) rehydrate() error {
	access, okAccess, err := s.storage.Get(KeyAccessToken)
	if err != nil {
		return errors.Wrap(err, "[Store.rehydrate] read access token")
	}
	refresh, okRefresh, err := s.storage.Get(KeyRefreshToken)
	if err != nil {
		return errors.Wrap(err, "[Store.rehydrate] read refresh token")
	}
	rawUser, okUser, err := s.storage.Get(KeyUser)
	if err != nil {
		return errors.Wrap(err, "[Store.rehydrate] read user")
	}

	if !okAccess && !okRefresh && !okUser {
		return nil // nothing persisted
	}

	var u usuarios.Usuario
	complete := okAccess && okRefresh && okUser &&
		strings.TrimSpace(string(access)) != "" &&
		strings.TrimSpace(string(refresh)) != ""
	if complete {
		if err := json.Unmarshal(rawUser, &u); err != nil || !u.Valida() {
			complete = false
		}
	}

	if !complete {
		s.log.Warn().Msg("discarding partially persisted session")
		if err := s.storage.Delete(KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
			s.log.Err(err).Msg("failed to purge partial session")
		}
		return nil
	}

	s.usuario = u
	s.accessToken = string(access)
	s.refreshToken = string(refresh)
	s.authenticated = true
	return nil
}

// Establish replaces the session with a freshly authenticated identity and
// token pair and persists all three keys. A prior session is overwritten
// silently, which is what allows switching user with a plain login.
// Calling it twice with identical arguments is a no-op the second time.
func (s *Store) Establish(u usuarios.Usuario, accessToken, refreshToken string) error {
	if !u.Valida() {
		return ErrInvalidIdentity
	}
	if strings.TrimSpace(accessToken) == "" || strings.TrimSpace(refreshToken) == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.usuario = u
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.authenticated = true

	return s.persistAll()
}

// Clear destroys the session: in-memory fields reset and all durable keys
// removed. Safe to call when no session exists.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usuario = usuarios.Usuario{}
	s.accessToken = ""
	s.refreshToken = ""
	s.authenticated = false

	if err := s.storage.Delete(KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		return errors.Wrap(err, "[Store.Clear] delete keys")
	}
	return nil
}

// UpdateIdentity replaces the identity record, leaving both tokens
// untouched, and re-persists the user key. It requires an established
// session; profile updates on an empty session would otherwise produce a
// half-authenticated state.
func (s *Store) UpdateIdentity(u usuarios.Usuario) error {
	if !u.Valida() {
		return ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNoActiveSession
	}

	s.usuario = u
	return s.persistUser()
}

// UpdateAccessToken swaps in a newly minted access token after a refresh.
// The refresh token and identity stay as they are.
func (s *Store) UpdateAccessToken(accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authenticated {
		return ErrNoActiveSession
	}

	s.accessToken = accessToken
	if err := s.storage.Set(KeyAccessToken, []byte(accessToken)); err != nil {
		return errors.Wrap(err, "[Store.UpdateAccessToken] persist access token")
	}
	return nil
}

// IsAuthenticated reports whether a session is currently established.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// HasRole reports whether an authenticated user carries the given role.
func (s *Store) HasRole(role usuarios.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.usuario.Rol == role
}

// Usuario returns a copy of the current identity record. The zero value is
// returned when no session is established.
func (s *Store) Usuario() usuarios.Usuario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usuario
}

// Rol returns the current role, or the empty role when unauthenticated.
func (s *Store) Rol() usuarios.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return ""
	}
	return s.usuario.Rol
}

// AccessToken returns the current bearer credential, empty when absent.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh credential, empty when absent.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// persistAll mirrors all three fields into storage. Callers hold s.mu.
func (s *Store) persistAll() error {
	if err := s.persistUser(); err != nil {
		return err
	}
	if err := s.storage.Set(KeyAccessToken, []byte(s.accessToken)); err != nil {
		return errors.Wrap(err, "[Store.persistAll] persist access token")
	}
	if err := s.storage.Set(KeyRefreshToken, []byte(s.refreshToken)); err != nil {
		return errors.Wrap(err, "[Store.persistAll] persist refresh token")
	}
	return nil
}

func (s *Store) persistUser() error {
	raw, err := json.Marshal(s.usuario)
	if err != nil {
		return errors.Wrap(err, "[Store.persistUser] marshal user")
	}
	if err := s.storage.Set(KeyUser, raw); err != nil {
		return errors.Wrap(err, "[Store.persistUser] persist user")
	}
	return nil
}
