package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/privhq/dsarkit/internal/engine"
)

// AdvanceOptions holds flags for the advance command.
type AdvanceOptions struct {
	*RootOptions
	Database string
	Sources  SourceOptions
	All      bool
}

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AdvanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "advance <request-id>",
		Short: "Advance a DSAR run by one step",
		Long: `Advance a DSAR run through its next workflow transition.

With --all the run is advanced repeatedly until it reaches a terminal
state, pauses for a human decision, or a guardrail blocks it.

Example:
  dsarkit advance --db ./dsar.db 0190c3a2-...
  dsarkit advance --db ./dsar.db --all \
    --mail ./fixtures/mail.json --profile ./fixtures/crm.json \
    --packages ./packages 0190c3a2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvance(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "advance until the run pauses or completes")
	registerSourceFlags(cmd, &opts.Sources)
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runAdvance(opts *AdvanceOptions, requestID string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	eng, st, err := newEngine(opts.Database, &opts.Sources)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	var results []*engine.StepResult
	for {
		result, err := eng.Advance(ctx, requestID)
		if err != nil {
			if engine.IsRunComplete(err) && len(results) > 0 {
				break
			}
			return WrapExitError(ExitCommandError, "failed to advance run", err)
		}
		results = append(results, result)

		if !opts.All || result.Clarification != nil || result.Err != "" {
			break
		}
	}

	if opts.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		printStep(formatter, r)
	}
	last := results[len(results)-1]
	if last.Err != "" {
		return NewExitError(ExitFailure, "run blocked: "+last.Err)
	}
	return nil
}

func printStep(formatter *OutputFormatter, r *engine.StepResult) {
	switch {
	case r.Err != "":
		fmt.Fprintf(formatter.Writer, "%-28s BLOCKED  %s\n", r.Step, r.Err)
	case r.Clarification != nil:
		fmt.Fprintf(formatter.Writer, "%-28s PAUSED   state=%s\n", r.Step, r.State)
		payload, err := json.MarshalIndent(r.Clarification, "", "  ")
		if err == nil {
			fmt.Fprintln(formatter.Writer, string(payload))
		}
	default:
		fmt.Fprintf(formatter.Writer, "%-28s ok       state=%s\n", r.Step, r.State)
	}
}
