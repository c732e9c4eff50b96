package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/ledger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Getenv resolves THISME_* overrides and passwords. Nil uses os.Getenv.
	Getenv func(string) string

	// Clock and IDs override ledger stamping (for testing).
	// If nil, the ledger uses SystemClock and UUIDv7Generator.
	Clock ledger.Clock
	IDs   ledger.IDGenerator
}

func (o *RootOptions) getenv(key string) string {
	if o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.Getenv(key)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the me CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions creates the root command around opts, so tests
// can inject the environment, clock and id generator.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "me - an encrypted identity and what it is, has, does",
		Long: `An encrypted identity store and an append-only ledger of verbs.

Each identity holds an Ed25519 signing key sealed under its password. The
key's seed derives a stable context id, and every ledger entry (be, have,
do, at, relate, react, communicate) is recorded under a context id.

Passwords are read from THISME_PASSWORD (and THISME_NEW_PASSWORD for
passwd) when set, otherwise one per line from stdin.`,
		Version:      ir.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config YAML (default: built-in)")

	// Identity commands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewPasswdCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	// Ledger commands
	for _, v := range ir.AllVerbs {
		cmd.AddCommand(NewVerbCommand(opts, v))
	}
	cmd.AddCommand(NewGetCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
