// Package session holds the authenticated identity and credential pair for
// the running portal instance and mirrors every mutation into durable
// storage, so a restart restores the session.
package session

import "errors"

// Fixed durable-storage keys. They match what the backend-facing web client
// historically used, which keeps stored sessions portable across versions.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"

	// StorageName is the name of the combined persisted blob (file name
	// stem for FileStorage, hash key for RedisStorage).
	StorageName = "auth-storage"
)

var (
	// ErrNoActiveSession is returned by mutations that require an
	// established session, e.g. UpdateIdentity before a login.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidIdentity is returned by Establish when the identity record
	// is missing its ID, RUT or a recognised role.
	ErrInvalidIdentity = errors.New("invalid identity record")

	// ErrEmptyToken is returned by Establish and UpdateAccessToken when a
	// token string is blank.
	ErrEmptyToken = errors.New("empty token")
)

// Storage is the durable key/value store behind a Store. Implementations
// must be safe for concurrent use.
type Storage interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(keys ...string) error
}
