package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/privhq/dsarkit/internal/clarify"
)

// ApproveOptions holds flags for the approve command.
type ApproveOptions struct {
	*RootOptions
	Database     string
	DecisionFile string
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApproveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Submit a human decision for a pending clarification",
		Long: `Submit an identity, compliance or legal decision for a paused run.

The decision is read as JSON from --decision-file, or from stdin when the
flag is omitted. It must match the clarification the run is waiting on:

  {"kind": "compliance", "decision": "approved",
   "selected_proposals": ["p0", "p2"]}

Example:
  dsarkit approve --db ./dsar.db --decision-file decision.json 0190c3a2-...
  echo '{"kind":"identity","decision":"approved"}' | \
    dsarkit approve --db ./dsar.db 0190c3a2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApprove(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.DecisionFile, "decision-file", "", "decision JSON file (default stdin)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runApprove(opts *ApproveOptions, requestID string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := readDecision(opts.DecisionFile, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read decision", err)
	}
	decision, err := clarify.ParseDecision(raw)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid decision", err)
	}

	eng, st, err := newEngine(opts.Database, &SourceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	run, err := eng.SubmitDecision(cmd.Context(), requestID, decision)
	if err != nil {
		return WrapExitError(ExitFailure, "decision rejected", err)
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	return formatter.Success(fmt.Sprintf("Recorded %s decision %q for request %s (state: %s)",
		decision.Kind, decision.Decision, run.RequestID, run.State))
}

func readDecision(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
