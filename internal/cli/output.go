package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/thisme/internal/identity"
	"github.com/roach88/thisme/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected request (bad input, wrong password, duplicate, ...)
	ExitCommandError = 2 // Environment error (config, database unreachable, ...)
)

// Error codes rendered in CLIError.Code.
const (
	ErrCodeGeneric            = "E001" // Generic/unknown error
	ErrCodeConfig             = "E002" // Config file missing or invalid
	ErrCodeInput              = "E003" // Missing or unreadable password input
	ErrCodeValidation         = "E101" // Malformed username, password, verb or filter
	ErrCodeAlreadyExists      = "E102" // Username taken
	ErrCodeInvalidCredentials = "E103" // Unknown username or wrong password
	ErrCodeNotFound           = "E104" // Record does not exist
	ErrCodeEncryption         = "E105" // Sealing the private key failed
	ErrCodeConnectivity       = "E201" // Database unreachable (retryable)
	ErrCodeSerialization      = "E202" // Stored data is malformed
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code      string `json:"code"`              // "E001", "E101", etc.
	Message   string `json:"message"`           // human-readable message
	Retryable bool   `json:"retryable"`         // true only for connectivity failures
	Details   any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with fmt.Println, so payload types
// implement fmt.Stringer.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	return f.writeError(&CLIError{Code: code, Message: message, Details: details})
}

func (f *OutputFormatter) writeError(e *CLIError) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  e,
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	if f.Verbose && e.Details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", e.Details)
	}
	return nil
}

// Fail renders err and returns the ExitError the command should return.
//
// An unknown username and a wrong password render identically.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classifyError(err)
	message := err.Error()
	if errors.Is(err, identity.ErrInvalidCredentials) {
		message = identity.ErrInvalidCredentials.Error()
	}

	_ = f.writeError(&CLIError{
		Code:      code,
		Message:   message,
		Retryable: store.IsRetryable(err),
	})
	return WrapExitError(exit, code, err)
}

// classifyError maps an error onto a CLI error code and exit code.
func classifyError(err error) (string, int) {
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return ErrCodeInvalidCredentials, ExitFailure
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Message, exitErr.Code
	}

	switch store.KindOf(err) {
	case store.KindValidation:
		return ErrCodeValidation, ExitFailure
	case store.KindAlreadyExists:
		return ErrCodeAlreadyExists, ExitFailure
	case store.KindAuthenticationFailed:
		return ErrCodeInvalidCredentials, ExitFailure
	case store.KindNotFound:
		return ErrCodeNotFound, ExitFailure
	case store.KindEncryptionFailed:
		return ErrCodeEncryption, ExitFailure
	case store.KindConnectivity:
		return ErrCodeConnectivity, ExitCommandError
	case store.KindSerialization:
		return ErrCodeSerialization, ExitCommandError
	default:
		return ErrCodeGeneric, ExitFailure
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
