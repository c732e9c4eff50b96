package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/thisme/internal/identity"
	"github.com/roach88/thisme/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "something failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "something failed", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success(Message{Message: "password changed"})
	require.NoError(t, err)
	assert.Equal(t, "password changed\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"field": "username"}
	err := formatter.Error("E101", "bad username", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E101]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Using %s", "sqlite")

			assert.Empty(t, buf.String(), "never corrupts JSON output")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Using sqlite")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"validation", store.Errorf(store.KindValidation, "op", "bad"), ErrCodeValidation, ExitFailure},
		{"exists", store.Errorf(store.KindAlreadyExists, "op", "taken"), ErrCodeAlreadyExists, ExitFailure},
		{"not found", store.Errorf(store.KindNotFound, "op", "gone"), ErrCodeNotFound, ExitFailure},
		{"auth", store.Errorf(store.KindAuthenticationFailed, "op", "no"), ErrCodeInvalidCredentials, ExitFailure},
		{
			"missing user on load",
			&store.Error{Kind: store.KindNotFound, Op: "load identity", Err: identity.ErrInvalidCredentials},
			ErrCodeInvalidCredentials, ExitFailure,
		},
		{"encryption", store.Errorf(store.KindEncryptionFailed, "op", "rng"), ErrCodeEncryption, ExitFailure},
		{"connectivity", store.Errorf(store.KindConnectivity, "op", "down"), ErrCodeConnectivity, ExitCommandError},
		{"serialization", store.Errorf(store.KindSerialization, "op", "junk"), ErrCodeSerialization, ExitCommandError},
		{"exit error", WrapExitError(ExitCommandError, ErrCodeConfig, errors.New("x")), ErrCodeConfig, ExitCommandError},
		{"plain", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classifyError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestFail_CredentialsRenderIdentically(t *testing.T) {
	missing := &store.Error{Kind: store.KindNotFound, Op: "load identity", Err: identity.ErrInvalidCredentials}
	wrong := &store.Error{Kind: store.KindAuthenticationFailed, Op: "load identity", Err: identity.ErrInvalidCredentials}

	render := func(err error) (string, int) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}
		code := GetExitCode(f.Fail(err))
		return buf.String(), code
	}

	a, exitA := render(missing)
	b, exitB := render(wrong)
	assert.Equal(t, a, b)
	assert.Equal(t, exitA, exitB)
}

func TestFail_RetryableFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	_ = f.Fail(fmt.Errorf("insert: %w", store.Errorf(store.KindConnectivity, "insert", "database is locked")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.True(t, resp.Error.Retryable)
	assert.Equal(t, ErrCodeConnectivity, resp.Error.Code)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
}
