package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/thisme/internal/config"
	"github.com/roach88/thisme/internal/identity"
	"github.com/roach88/thisme/internal/ledger"
	"github.com/roach88/thisme/internal/store"
)

// Environment variables holding passwords for non-interactive use.
const (
	EnvPassword    = "THISME_PASSWORD"
	EnvNewPassword = "THISME_NEW_PASSWORD"
)

// session is everything one command invocation needs: resolved config,
// an open store and the services built on it.
type session struct {
	opts      *RootOptions
	cmd       *cobra.Command
	formatter *OutputFormatter
	logger    *slog.Logger
	store     store.Store
	ids       *identity.Manager
	ledger    *ledger.Ledger
	prompt    *passwordPrompt
}

// newFormatter builds the formatter for cmd. Verbose logs go to stderr to
// avoid corrupting JSON.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession loads config, configures logging and opens the store.
// Failures are rendered through the formatter; the returned error is the
// ExitError to return from RunE.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.ConfigPath, opts.getenv)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}

	// Configure logging based on config and verbose flag
	logLevel := cfg.LogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	formatter.VerboseLog("Using %s", cfg)
	st, err := config.Open(commandContext(cmd), cfg, logger)
	if err != nil {
		return nil, formatter.Fail(err)
	}

	ledgerOpts := []ledger.Option{ledger.WithLogger(logger)}
	if opts.Clock != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithIDGenerator(opts.IDs))
	}

	return &session{
		opts:      opts,
		cmd:       cmd,
		formatter: formatter,
		logger:    logger,
		store:     st,
		ids: &identity.Manager{
			Store:  st,
			KDF:    cfg.KDF,
			Logger: logger,
		},
		ledger: ledger.New(st, ledgerOpts...),
		prompt: newPasswordPrompt(cmd.InOrStdin(), cmd.ErrOrStderr()),
	}, nil
}

// Close releases the store.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// Context returns the command's context.
func (s *session) Context() context.Context {
	return commandContext(s.cmd)
}

// password returns the value of envKey if set, otherwise a password read
// from stdin with echo disabled on a terminal. The prompt goes to stderr.
func (s *session) password(envKey, prompt string) (string, error) {
	if v := s.opts.getenv(envKey); v != "" {
		return v, nil
	}

	pw, err := s.prompt.Read(prompt)
	if err != nil {
		return "", WrapExitError(ExitFailure, ErrCodeInput, err)
	}
	return pw, nil
}

// unlock loads username with a password read from THISME_PASSWORD or stdin.
func (s *session) unlock(username string) (*identity.Identity, error) {
	pw, err := s.password(EnvPassword, "Password: ")
	if err != nil {
		return nil, err
	}
	return s.ids.Load(s.Context(), username, pw)
}

// resolveContext returns contextID if set, otherwise the primary context
// of username. Both empty returns "" and no error.
func (s *session) resolveContext(username, contextID string) (string, error) {
	if contextID != "" || username == "" {
		return contextID, nil
	}
	id, err := s.unlock(username)
	if err != nil {
		return "", err
	}
	defer id.Lock()
	return id.ContextID(), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
