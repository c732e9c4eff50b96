package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/thisme/internal/ir"
	"github.com/roach88/thisme/internal/ledger"
	"github.com/roach88/thisme/internal/store"
)

// VerbOptions holds flags for the verb commands.
type VerbOptions struct {
	*RootOptions
	Username  string
	ContextID string
	Attrs     []string
}

var verbHelp = map[ir.Verb]struct{ short, key, value string }{
	ir.VerbBe:          {"Record what you are", "key", "value"},
	ir.VerbHave:        {"Record what you have", "key", "value"},
	ir.VerbDo:          {"Record what you do", "key", "value"},
	ir.VerbAt:          {"Record where or when you are", "key", "value"},
	ir.VerbRelate:      {"Record a relationship to someone", "target", "relation"},
	ir.VerbReact:       {"Record a reaction to someone or something", "target", "emoji"},
	ir.VerbCommunicate: {"Record a message to someone", "target", "message"},
}

// NewVerbCommand creates the command recording entries for verb.
func NewVerbCommand(rootOpts *RootOptions, verb ir.Verb) *cobra.Command {
	opts := &VerbOptions{RootOptions: rootOpts}
	help := verbHelp[verb]

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <%s> [%s]", verb, help.key, help.value),
		Short: help.short,
		Long: fmt.Sprintf(`%s.

The entry is recorded under --context, or under the primary context of
--user (which unlocks the identity). With --attr, the %s is built as
canonical JSON from key=value pairs and can be matched with
"get --value json:<field>=<literal>".

Examples:
  me %s --user alice123 <%s> <%s>
  me %s --context <context-id> <%s> --attr shade=red`,
			help.short, help.value, verb, help.key, help.value, verb, help.key),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(opts, verb, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "user", "u", "", "identity whose primary context receives the entry")
	cmd.Flags().StringVar(&opts.ContextID, "context", "", "context id (overrides --user)")
	cmd.Flags().StringArrayVar(&opts.Attrs, "attr", nil, "attribute key=value for a JSON value (repeatable)")

	return cmd
}

func runVerb(opts *VerbOptions, verb ir.Verb, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	key := args[0]
	var value string
	var attrs map[string]any
	switch {
	case len(args) == 2 && len(opts.Attrs) > 0:
		return formatter.Fail(store.Errorf(store.KindValidation, "record", "give a value or --attr, not both"))
	case len(args) == 2:
		value = args[1]
	case len(opts.Attrs) > 0:
		parsed, err := parseAttrs(opts.Attrs)
		if err != nil {
			return formatter.Fail(err)
		}
		attrs = parsed
	}
	if opts.Username == "" && opts.ContextID == "" {
		return formatter.Fail(store.Errorf(store.KindValidation, "record", "--user or --context is required"))
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	contextID, err := s.resolveContext(opts.Username, opts.ContextID)
	if err != nil {
		return s.formatter.Fail(err)
	}

	var entry ir.Entry
	if attrs != nil {
		entry, err = s.ledger.RecordJSON(s.Context(), verb, contextID, key, attrs)
	} else {
		entry, err = s.ledger.Record(s.Context(), verb, contextID, key, value)
	}
	if err != nil {
		return s.formatter.Fail(err)
	}
	return s.formatter.Success(EntryList{entry})
}

// parseAttrs turns ["shade=red", "size=L"] into a map. Values stay strings.
func parseAttrs(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, store.Errorf(store.KindValidation, "record", "invalid --attr %q: want key=value", p)
		}
		attrs[k] = v
	}
	return attrs, nil
}

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Username string
	Filter   ir.Filter
	Max      int
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Query ledger entries",
		Long: `Query ledger entries, newest first.

--key and --value match exactly, or as a substring with a "like:" prefix.
--value also accepts "json:<field>=<literal>" to match one field of a JSON
value. --since and --until are inclusive RFC 3339 times or dates; a bare
date for --until covers that whole day.

--limit and --offset apply to each verb table; with --verb all, up to
seven times --limit entries come back. --max cuts the merged result.

Examples:
  me get --user alice123
  me get --verb relate --key like:bo --limit 10
  me get --verb have --value json:shade=red --since 2024-01-01`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd)
		},
	}

	f := &opts.Filter
	cmd.Flags().StringVar(&f.Verb, "verb", ir.VerbAll, "verb to query, or all")
	cmd.Flags().StringVarP(&opts.Username, "user", "u", "", "restrict to the primary context of this identity")
	cmd.Flags().StringVar(&f.ContextID, "context", "", "restrict to a context id (overrides --user)")
	cmd.Flags().StringVar(&f.Key, "key", "", "key or target filter")
	cmd.Flags().StringVar(&f.Value, "value", "", "value filter")
	cmd.Flags().StringVar(&f.Since, "since", "", "earliest timestamp (inclusive)")
	cmd.Flags().StringVar(&f.Until, "until", "", "latest timestamp (inclusive)")
	cmd.Flags().IntVar(&f.Limit, "limit", ir.DefaultLimit, "rows per verb table")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "rows to skip per verb table")
	cmd.Flags().IntVar(&opts.Max, "max", 0, "cap on merged results (0 = no cap)")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	filter := opts.Filter
	filter.ContextID, err = s.resolveContext(opts.Username, filter.ContextID)
	if err != nil {
		return s.formatter.Fail(err)
	}

	entries, err := s.ledger.Get(s.Context(), filter)
	if err != nil {
		return s.formatter.Fail(err)
	}
	return s.formatter.Success(EntryList(ledger.Truncate(entries, opts.Max)))
}
