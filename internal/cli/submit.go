package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/privhq/dsarkit/internal/dsar"
	"github.com/privhq/dsarkit/internal/engine"
	"github.com/privhq/dsarkit/internal/policy"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Database       string
	Subject        string
	Types          []string
	PolicyFile     string
	UploadFilename string
	UploadSize     int64
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new DSAR request",
		Long: `Submit a new Data Subject Access Request.

Creates a run record in the database with the given subject, request types
and policy. The run starts in state "created"; use "dsarkit advance" to
drive it forward.

Example:
  dsarkit submit --db ./dsar.db --subject alice@example.com
  dsarkit submit --db ./dsar.db --subject alice@example.com \
    --type access --type erasure --policy ./policy.yaml \
    --upload-filename alice_passport.jpg --upload-size 204800`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "data subject email (required)")
	cmd.Flags().StringSliceVar(&opts.Types, "type", []string{"access"}, "request types (access, erasure)")
	cmd.Flags().StringVar(&opts.PolicyFile, "policy", "", "policy YAML file (defaults apply if omitted)")
	cmd.Flags().StringVar(&opts.UploadFilename, "upload-filename", "", "identity document filename")
	cmd.Flags().Int64Var(&opts.UploadSize, "upload-size", 0, "identity document size in bytes")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	types, err := parseRequestTypes(opts.Types)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid request type", err)
	}

	pol := dsar.DefaultPolicy()
	if opts.PolicyFile != "" {
		pol, err = policy.Load(opts.PolicyFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load policy", err)
		}
	}

	var upload *dsar.UploadMeta
	if opts.UploadFilename != "" || opts.UploadSize > 0 {
		upload = &dsar.UploadMeta{Filename: opts.UploadFilename, Size: opts.UploadSize}
	}

	eng, st, err := newEngine(opts.Database, &SourceOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	run, err := eng.Submit(cmd.Context(), engine.SubmitRequest{
		SubjectEmail: opts.Subject,
		RequestTypes: types,
		Policy:       pol,
		Upload:       upload,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to submit request", err)
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	return formatter.Success(fmt.Sprintf("Submitted request %s for %s (types: %s)",
		run.RequestID, run.SubjectEmail, joinTypes(run.RequestTypes)))
}

func parseRequestTypes(raw []string) ([]dsar.RequestType, error) {
	var types []dsar.RequestType
	for _, t := range raw {
		switch dsar.RequestType(strings.ToLower(strings.TrimSpace(t))) {
		case dsar.RequestAccess:
			types = append(types, dsar.RequestAccess)
		case dsar.RequestErasure:
			types = append(types, dsar.RequestErasure)
		default:
			return nil, fmt.Errorf("unknown request type %q (want access or erasure)", t)
		}
	}
	return types, nil
}

func joinTypes(types []dsar.RequestType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
