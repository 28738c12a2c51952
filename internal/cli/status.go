package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/privhq/dsarkit/internal/dsar"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Audit    bool
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status <request-id>",
		Short: "Show the state of a DSAR run",
		Long: `Show the workflow state, block marker and outcomes of a run.

With --audit the full audit trail is printed. With --format json the
complete run record is emitted.

Example:
  dsarkit status --db ./dsar.db 0190c3a2-...
  dsarkit status --db ./dsar.db --audit 0190c3a2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Audit, "audit", false, "include the audit trail")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStatus(opts *StatusOptions, requestID string, cmd *cobra.Command) error {
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

	run, err := eng.Run(cmd.Context(), requestID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	printRun(formatter, run, opts.Audit)
	return nil
}

func printRun(formatter *OutputFormatter, run *dsar.Run, audit bool) {
	w := formatter.Writer
	fmt.Fprintf(w, "Request:   %s\n", run.RequestID)
	fmt.Fprintf(w, "Subject:   %s\n", run.SubjectEmail)
	fmt.Fprintf(w, "Types:     %s\n", joinTypes(run.RequestTypes))
	fmt.Fprintf(w, "State:     %s\n", run.State)
	fmt.Fprintf(w, "Artifacts: %d, findings: %d, proposals: %d\n",
		len(run.Artifacts), len(run.PIIFindings), len(run.RedactionProposals))
	if run.Blocked != nil {
		fmt.Fprintf(w, "Blocked:   %s (%s)\n", run.Blocked.Reason, run.Blocked.Step)
	}
	if run.Legal.Hold {
		fmt.Fprintln(w, "Legal:     HOLD active")
	}
	if run.Delivery != nil {
		fmt.Fprintf(w, "Delivery:  %s (%s)\n", run.Delivery.Path, run.Delivery.Digest)
	}
	if run.Erasure != nil {
		fmt.Fprintf(w, "Erasure:   %d artifacts deleted\n", len(run.Erasure.Deleted))
	}
	if !audit {
		return
	}
	fmt.Fprintf(w, "Audit trail (%d entries):\n", len(run.AuditLog))
	for i, entry := range run.AuditLog {
		fmt.Fprintf(w, "  %3d  %s\n", i, entry.Step)
	}
}
