package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// HoldOptions holds flags for the hold command.
type HoldOptions struct {
	*RootOptions
	Database string
	Clear    bool
}

// NewHoldCommand creates the hold command.
func NewHoldCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HoldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hold <request-id>",
		Short: "Set or clear the legal hold on a run",
		Long: `Set or clear the legal hold flag for a run.

An active hold blocks delivery and erasure regardless of approvals. The
toggle is recorded in the audit trail.

Example:
  dsarkit hold --db ./dsar.db 0190c3a2-...
  dsarkit hold --db ./dsar.db --clear 0190c3a2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHold(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "clear the hold instead of setting it")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHold(opts *HoldOptions, requestID string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	eng, st, err := newEngine(opts.Database, &SourceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	run, err := eng.SetLegalHold(cmd.Context(), requestID, !opts.Clear)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to update hold", err)
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	verb := "set"
	if opts.Clear {
		verb = "cleared"
	}
	return formatter.Success(fmt.Sprintf("Legal hold %s for request %s", verb, run.RequestID))
}
