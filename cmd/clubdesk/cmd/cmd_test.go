package cmd

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/clubdesk/api/apitest"
	"github.com/jmcleod/clubdesk/page"
	"github.com/jmcleod/clubdesk/roster"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type result struct {
	stdout string
	stderr string
	code   int
}

// resetFlags puts every flag back to its default so that one invocation does
// not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	code := Execute(t.Context())
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

// cli runs clubdesk against a fresh stand-in service with state kept in a
// bolt file, so consecutive runs behave like consecutive page loads.
type cli struct {
	t     *testing.T
	srv   *apitest.Server
	state string
}

func setupCLI(t *testing.T) *cli {
	t.Helper()
	for _, k := range []string{"CLUBDESK_SERVER_URL", "CLUBDESK_STATE_PATH", "CLUBDESK_STATE_BACKEND", "CLUBDESK_LOG_LEVEL", "CLUBDESK_LOG_FORMAT", "CLUBDESK_HTTP_TIMEOUT", "CLUBDESK_OTEL_ENDPOINT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return &cli{t: t, srv: srv, state: filepath.Join(t.TempDir(), "state.db")}
}

func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	base := []string{"--server", c.srv.URL, "--state", c.state, "--log-level", "error"}
	return run(c.t, stdin, append(args, base...)...)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestVersion(t *testing.T) {
	r := run(t, "", "version")
	assert.Equal(t, 0, r.code)
	assert.Equal(t, "clubdesk dev\n", r.stdout)
}

func TestActivitiesText(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "activities")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Not signed in.")
	assert.Contains(t, r.stdout, "Chess Club\n")
	assert.Contains(t, r.stdout, "Availability: 10 spots left")
	assert.Contains(t, r.stdout, "    - michael@mergington.edu\n")
	assert.NotContains(t, r.stdout, "[remove]")
}

func TestActivitiesJSON(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "activities", "--json")
	require.Equal(t, 0, r.code, r.stderr)

	var snap page.Snapshot
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &snap))
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Controls.Authenticated)
	card, ok := snap.Roster.Card("Chess Club")
	require.True(t, ok)
	assert.Equal(t, 10, card.SpotsLeft)
}

func TestActivitiesFetchFailure(t *testing.T) {
	c := setupCLI(t)
	c.srv.DropNext("GET /activities", 1)

	r := c.run("", "activities")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, roster.MsgLoadFailed)
}

func TestTeacherWorkflow(t *testing.T) {
	c := setupCLI(t)

	r := c.run(apitest.TeacherPassword+"\n", "login", "-u", apitest.TeacherUsername, "--password-stdin")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Signed in as ms.smith\n", r.stdout)

	r = c.run("", "status")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Signed in as ms.smith\n", r.stdout)

	r = c.run("", "signup", "Chess Club", "new@mergington.edu")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "[SUCCESS] Signed up new@mergington.edu for Chess Club")
	assert.Contains(t, r.stdout, "Availability: 9 spots left")
	assert.Contains(t, r.stdout, "    - new@mergington.edu [remove]\n")

	r = c.run("", "signup", "Chess Club", "new@mergington.edu")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "[ERROR] Student is already signed up")

	r = c.run("", "unregister", "Chess Club", "new@mergington.edu")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Unregistered new@mergington.edu from Chess Club")

	r = c.run("", "logout")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Not signed in.")
	assert.Equal(t, 0, c.srv.ActiveSessions())

	r = c.run("", "status")
	assert.Equal(t, "Not signed in.\nTeachers must log in to register students.\n", r.stdout)
}

func TestLoginWrongPassword(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "login", "-u", apitest.TeacherUsername, "--password", "wrong")
	assert.Equal(t, 1, r.code)
	assert.Equal(t, "Invalid username or password\n", r.stdout)

	r = c.run("", "status")
	assert.Contains(t, r.stdout, "Not signed in.")
}

func TestLoginRequiresUsername(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "login", "--password", "x")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "--username is required")
}

func TestSignupWithoutLogin(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "signup", "Chess Club", "new@mergington.edu")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "[ERROR] Teacher login required to register students.")
	assert.Equal(t, 0, c.srv.Requests("POST /activities/{activity_name}/signup"))
}

func TestStatusClearsRevokedSession(t *testing.T) {
	c := setupCLI(t)
	r := c.run("", "login", "-u", apitest.TeacherUsername, "--password", apitest.TeacherPassword)
	require.Equal(t, 0, r.code, r.stderr)

	// Simulate a service restart that forgets every session.
	c.srv.Revoke(strings.TrimSpace(c.token()))

	r = c.run("", "status", "--json")
	require.Equal(t, 0, r.code, r.stderr)
	var controls map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &controls))
	assert.Equal(t, false, controls["Authenticated"])
	assert.Empty(t, c.token())
}

func TestSQLiteBackend(t *testing.T) {
	c := setupCLI(t)
	c.state = filepath.Join(t.TempDir(), "state.sqlite")

	r := c.run("", "login", "-u", apitest.TeacherUsername, "--password", apitest.TeacherPassword, "--state-backend", "sqlite")
	require.Equal(t, 0, r.code, r.stderr)
	r = c.run("", "status", "--state-backend", "sqlite")
	assert.Equal(t, "Signed in as ms.smith\n", r.stdout)
}

func TestInvalidConfig(t *testing.T) {
	c := setupCLI(t)

	r := c.run("", "activities", "--state-backend", "redis")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, `state backend "redis"`)
}

// token reads the persisted admin token from the bolt state file.
func (c *cli) token() string {
	c.t.Helper()
	cfg := cfg
	cfg.StatePath = c.state
	cfg.StateBackend = "bolt"
	store, err := openStore(cfg)
	require.NoError(c.t, err)
	defer store.(interface{ Close() error }).Close()
	v, _ := store.Get("adminToken")
	return v
}
