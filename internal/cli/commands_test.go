package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/testutil"
)

// testEnv is a CLI environment backed by a fresh SQLite file.
type testEnv struct {
	configPath string
	env        map[string]string
	clock      *testutil.StepClock
	ids        *testutil.SequentialIDs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`backend: sqlite
sqlite:
  path: %s
kdf:
  time: 1
  memory_kib: 64
  threads: 1
log:
  level: error
`, filepath.Join(dir, "me.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	return &testEnv{
		configPath: configPath,
		env:        map[string]string{},
		clock:      testutil.NewStepClock(time.Time{}, time.Second),
		ids:        testutil.NewSequentialIDs(),
	}
}

// runCLI executes the root command with args and stdin, returning stdout
// and stderr.
func runCLI(t *testing.T, e *testEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	opts := &RootOptions{
		Getenv: func(k string) string { return e.env[k] },
		Clock:  e.clock,
		IDs:    e.ids,
	}
	cmd := NewRootCommandWithOptions(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestCreateShowPasswd(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := runCLI(t, e, "pw1234\n", "--format", "json", "create", "alice123")
	require.NoError(t, err)
	var created IdentityView
	resp := decodeResponse(t, out, &created)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "alice123", created.Username)
	assert.NotEmpty(t, created.ContextID)

	out, _, err = runCLI(t, e, "pw1234\n", "--format", "json", "show", "alice123")
	require.NoError(t, err)
	var shown IdentityView
	decodeResponse(t, out, &shown)
	assert.Equal(t, created, shown)

	out, _, err = runCLI(t, e, "pw1234\nnewpw5678\n", "passwd", "alice123")
	require.NoError(t, err)
	assert.Contains(t, out, "password changed")

	_, _, err = runCLI(t, e, "pw1234\n", "show", "alice123")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, _, err = runCLI(t, e, "newpw5678\n", "--format", "json", "show", "alice123")
	require.NoError(t, err)
	var after IdentityView
	decodeResponse(t, out, &after)
	assert.Equal(t, created.ContextID, after.ContextID)
}

func TestShow_NonRevealingFailure(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := runCLI(t, e, "pw1234\n", "create", "alice123")
	require.NoError(t, err)

	wrong, _, errWrong := runCLI(t, e, "nope1234\n", "--format", "json", "show", "alice123")
	missing, _, errMissing := runCLI(t, e, "pw1234\n", "--format", "json", "show", "nobody99")

	require.Error(t, errWrong)
	require.Error(t, errMissing)
	assert.Equal(t, wrong, missing)
	assert.Contains(t, wrong, ErrCodeInvalidCredentials)
	assert.Contains(t, wrong, "invalid username or password")
}

func TestCreate_Rejections(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := runCLI(t, e, "pw1234\n", "create", "ab")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeValidation)

	_, _, err = runCLI(t, e, "pw1234\n", "create", "alice123")
	require.NoError(t, err)

	out, _, err = runCLI(t, e, "pw1234\n", "create", "alice123")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeAlreadyExists)

	out, _, err = runCLI(t, e, "", "create", "bob_smith")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeInput)
}

func TestPasswordFromEnv(t *testing.T) {
	e := newTestEnv(t)
	e.env[EnvPassword] = "pw1234"

	_, _, err := runCLI(t, e, "", "create", "alice123")
	require.NoError(t, err)

	out, _, err := runCLI(t, e, "", "show", "alice123")
	require.NoError(t, err)
	assert.Contains(t, out, "alice123")
}

func TestList(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := runCLI(t, e, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no identities")

	e.env[EnvPassword] = "pw1234"
	for _, u := range []string{"bob_smith", "alice123"} {
		_, _, err := runCLI(t, e, "", "create", u)
		require.NoError(t, err)
	}

	out, _, err = runCLI(t, e, "", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "alice123"), strings.Index(out, "bob_smith"))
}

func TestVerbAndGet(t *testing.T) {
	e := newTestEnv(t)
	e.env[EnvPassword] = "pw1234"

	_, _, err := runCLI(t, e, "", "create", "alice123")
	require.NoError(t, err)

	_, _, err = runCLI(t, e, "", "be", "--user", "alice123", "name", "Ada")
	require.NoError(t, err)
	_, _, err = runCLI(t, e, "", "relate", "--user", "alice123", "bob", "friend")
	require.NoError(t, err)
	_, _, err = runCLI(t, e, "", "have", "--user", "alice123", "car", "--attr", "shade=red")
	require.NoError(t, err)
	_, _, err = runCLI(t, e, "", "have", "--context", "someone-else", "car", "--attr", "shade=red")
	require.NoError(t, err)

	out, _, err := runCLI(t, e, "", "--format", "json", "get", "--user", "alice123")
	require.NoError(t, err)
	var entries []ir.Entry
	decodeResponse(t, out, &entries)
	require.Len(t, entries, 3)
	assert.Equal(t, ir.VerbHave, entries[0].Verb)
	assert.Equal(t, `{"shade":"red"}`, entries[0].Value)
	assert.Equal(t, ir.VerbRelate, entries[1].Verb)
	assert.Equal(t, "bob", entries[1].Key)
	assert.Equal(t, ir.VerbBe, entries[2].Verb)

	out, _, err = runCLI(t, e, "", "--format", "json", "get", "--verb", "have", "--value", "json:shade=red")
	require.NoError(t, err)
	entries = nil
	decodeResponse(t, out, &entries)
	assert.Len(t, entries, 2, "no context filter spans every context")

	out, _, err = runCLI(t, e, "", "--format", "json", "get", "--max", "1")
	require.NoError(t, err)
	entries = nil
	decodeResponse(t, out, &entries)
	assert.Len(t, entries, 1)

	out, _, err = runCLI(t, e, "", "get", "--verb", "relate", "--key", "like:bo")
	require.NoError(t, err)
	assert.Contains(t, out, "friend")
}

func TestVerb_Rejections(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := runCLI(t, e, "", "be", "name", "Ada")
	require.Error(t, err)
	assert.Contains(t, out, "--user or --context")

	out, _, err = runCLI(t, e, "", "be", "--context", "c", "name", "Ada", "--attr", "a=b")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeValidation)

	out, _, err = runCLI(t, e, "", "be", "--context", "c", "name", "--attr", "novalue")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeValidation)
}

func TestGet_InvalidFilter(t *testing.T) {
	e := newTestEnv(t)

	out, _, err := runCLI(t, e, "", "get", "--verb", "say")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeValidation)

	out, _, err = runCLI(t, e, "", "get", "--key", "json:a=b")
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeValidation)
}

func TestConfigError(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.WriteFile(e.configPath, []byte("backend: mysql\n"), 0o600))

	out, _, err := runCLI(t, e, "", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeConfig)
}
