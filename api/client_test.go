package api_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sgcsalud/portal/api"
	"github.com/sgcsalud/portal/internal/clinictest"
	"github.com/sgcsalud/portal/session"
	"github.com/sgcsalud/portal/usuarios"
)

// testFixture wires a client and session store against the fake backend.
type testFixture struct {
	backend *clinictest.Backend
	server  *httptest.Server
	sess    *session.Store
	client  *api.Client
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	backend := clinictest.New()
	server := httptest.NewServer(backend.Router())
	t.Cleanup(server.Close)

	storage, err := session.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	sess, err := session.New(storage)
	require.NoError(t, err)

	client, err := api.New(server.URL, sess)
	require.NoError(t, err)

	return &testFixture{backend: backend, server: server, sess: sess, client: client}
}

func (f *testFixture) login(t *testing.T, rut string) usuarios.Usuario {
	t.Helper()
	u, err := f.client.Login(context.Background(), rut, clinictest.Password)
	require.NoError(t, err)
	return u
}

// futureMonday returns UTC midnight of the next Monday at least a week out,
// so bookings and slot queries agree on the calendar date.
func futureMonday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestClient_New(t *testing.T) {
	storage, err := session.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	sess, err := session.New(storage)
	require.NoError(t, err)

	t.Run("requires a base URL", func(t *testing.T) {
		_, err := api.New("  ", sess)
		require.Error(t, err)
	})

	t.Run("requires a session store", func(t *testing.T) {
		_, err := api.New("http://localhost:8000", nil)
		require.Error(t, err)
	})
}

func TestClient_RefreshOnce(t *testing.T) {
	t.Run("refreshes and retries once on an expired access token", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.login(t, clinictest.RutPaciente)

		expired := f.backend.MintExpiredAccess(u)
		require.NoError(t, f.sess.UpdateAccessToken(expired))

		me, err := f.client.Me(context.Background())
		require.NoError(t, err)
		require.Equal(t, u.Rut, me.Rut)

		require.Equal(t, 1, f.backend.RefreshCalls)
		require.NotEqual(t, expired, f.sess.AccessToken(), "access token should be rotated")
		require.True(t, f.sess.IsAuthenticated())
	})

	t.Run("subsequent calls reuse the rotated token", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.login(t, clinictest.RutPaciente)
		require.NoError(t, f.sess.UpdateAccessToken(f.backend.MintExpiredAccess(u)))

		_, err := f.client.Me(context.Background())
		require.NoError(t, err)
		_, err = f.client.Me(context.Background())
		require.NoError(t, err)
		_, err = f.client.ListCitas(context.Background())
		require.NoError(t, err)

		require.Equal(t, 1, f.backend.RefreshCalls, "refresh should happen exactly once")
	})

	t.Run("clears the session and surfaces the original 401 when refresh fails", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.login(t, clinictest.RutPaciente)

		// An invalid refresh token makes the refresh call fail.
		require.NoError(t, f.sess.Establish(u, f.backend.MintExpiredAccess(u), "not-a-refresh-token"))

		_, err := f.client.Me(context.Background())
		require.Error(t, err)

		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.True(t, reqErr.IsAuthFailure(), "the original 401 should propagate, got %d", reqErr.StatusCode)

		require.Equal(t, 1, f.backend.RefreshCalls)
		require.False(t, f.sess.IsAuthenticated(), "session should be cleared")
	})

	t.Run("does not refresh without a refresh token", func(t *testing.T) {
		f := setupTestFixture(t)

		// No session at all: the 401 is terminal.
		_, err := f.client.Me(context.Background())
		require.Error(t, err)

		var reqErr *api.RequestError
		require.ErrorAs(t, err, &reqErr)
		require.True(t, reqErr.IsAuthFailure())
		require.Equal(t, 0, f.backend.RefreshCalls)
	})
}
