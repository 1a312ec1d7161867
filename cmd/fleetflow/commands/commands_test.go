package commands

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed := r.Header.Get("Authorization") == "Bearer acc"
		switch r.URL.Path {
		case "/api/v1/auth/login":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"password":"secret"`) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"status":"error","code":"INVALID_CREDENTIALS","message":"Invalid username or password."}`)
				return
			}
			_, _ = io.WriteString(w, `{"status":"success","data":{"access_token":"acc","refresh_token":"ref",
				"user":{"id":"u1","username":"ana","role":"dispatcher"}}}`)
		case "/api/v1/auth/me":
			if !authed {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"status":"success","data":{"id":"u1","username":"ana","role":"dispatcher"}}`)
		case "/api/v1/vehicles/":
			if !authed {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `{"status":"success","data":[
				{"id":"v1","registration_number":"MH12AB1234","make":"Tata","model":"Prima","type":"truck","status":"available","odometer_km":120500}],
				"meta":{"page":1,"per_page":20,"total":1,"pages":1}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the CLI with isolated config and captures stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.Reader = strings.NewReader(stdin)
	root.Writer = &out
	root.ErrWriter = &errOut

	err := root.Run(t.Context(), append([]string{"fleetflow"}, args...))
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Helper()
	srv := fakeBackend(t)
	t.Setenv("FLEETFLOW_API__BASE_URL", srv.URL+"/api/v1")
	t.Setenv("FLEETFLOW_AUTH__STORAGE", "file")
	t.Setenv("FLEETFLOW_AUTH__FILE", filepath.Join(t.TempDir(), "session"))
	t.Setenv("FLEETFLOW_LOG_LEVEL", "error")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoginVehiclesLogout(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "vehicles")
	require.ErrorIs(t, err, errNotLoggedIn)

	out, err := run(t, "secret\n", "login", "--username", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ana (dispatcher)")

	out, err = run(t, "", "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "authenticated"`)
	assert.NotContains(t, out, "acc")

	out, err = run(t, "", "vehicles")
	require.NoError(t, err)
	assert.Contains(t, out, "MH12AB1234")
	assert.Contains(t, out, "Tata Prima")
	assert.Contains(t, out, "Page 1 of 1 (1 total)")

	out, err = run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLoginPromptsForCredentials(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "ana\nsecret\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ana")
}

func TestLoginRejected(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "", "login", "-u", "ana", "-p", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password.")
}
