package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/packager"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	PackagesDir string
	TTL         time.Duration
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete disclosure packages past their retention TTL",
		Long: `Delete disclosure packages older than the retention TTL.

Intended to run from cron so delivered packages do not outlive the DSAR
retention window.

Example:
  dsarkit sweep --packages ./packages --ttl 720h`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PackagesDir, "packages", "", "disclosure package directory (required)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 30*24*time.Hour, "package retention TTL")
	_ = cmd.MarkFlagRequired("packages")

	return cmd
}

func runSweep(opts *SweepOptions, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	removed, err := packager.SweepExpired(cmd.Context(), afs.New(), opts.PackagesDir, opts.TTL, time.Now())
	if err != nil {
		return WrapExitError(ExitCommandError, "sweep failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"removed": removed})
	}
	return formatter.Success(fmt.Sprintf("Removed %d expired package(s)", removed))
}
