package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/thisme/internal/identity"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <username>",
		Short: "Create a new identity",
		Long: `Create a new identity with a fresh Ed25519 key sealed under a password.

Usernames are 5-21 characters of letters, digits, '.' and '_'. Passwords
need at least 4 characters.

Example:
  me create alice123`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, args[0], cmd)
		},
	}
}

func runCreate(opts *RootOptions, username string, cmd *cobra.Command) error {
	// Validate before prompting or touching the database
	formatter := newFormatter(opts, cmd)
	if err := identity.ValidateUsername(username); err != nil {
		return formatter.Fail(err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	pw, err := s.password(EnvPassword, "New password: ")
	if err != nil {
		return s.formatter.Fail(err)
	}

	id, err := s.ids.Create(s.Context(), username, pw)
	if err != nil {
		return s.formatter.Fail(err)
	}
	defer id.Lock()

	return s.formatter.Success(newIdentityView(id))
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Unlock an identity and show its public data",
		Long: `Unlock an identity with its password and print its public key and
primary context id.

Example:
  me show alice123`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
}

func runShow(opts *RootOptions, username string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.unlock(username)
	if err != nil {
		return s.formatter.Fail(err)
	}
	defer id.Lock()

	return s.formatter.Success(newIdentityView(id))
}

// NewPasswdCommand creates the passwd command.
func NewPasswdCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <username>",
		Short: "Change an identity's password",
		Long: `Re-seal an identity's private key under a new password.

The key pair and context id do not change. The current password is read
first, then the new one.

Example:
  me passwd alice123`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPasswd(rootOpts, args[0], cmd)
		},
	}
}

func runPasswd(opts *RootOptions, username string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	oldPassword, err := s.password(EnvPassword, "Current password: ")
	if err != nil {
		return s.formatter.Fail(err)
	}
	newPassword, err := s.password(EnvNewPassword, "New password: ")
	if err != nil {
		return s.formatter.Fail(err)
	}

	id, err := s.ids.Load(s.Context(), username, oldPassword)
	if err != nil {
		return s.formatter.Fail(err)
	}
	defer id.Lock()

	if err := id.ChangePassword(s.Context(), oldPassword, newPassword); err != nil {
		return s.formatter.Fail(err)
	}
	return s.formatter.Success(Message{Message: "password changed for " + username})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List identities",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.ids.List(s.Context())
			if err != nil {
				return s.formatter.Fail(err)
			}
			return s.formatter.Success(IdentityList(list))
		},
	}
}
