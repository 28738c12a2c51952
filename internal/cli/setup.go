package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/privhq/dsarkit/internal/engine"
	"github.com/privhq/dsarkit/internal/mirror"
	"github.com/privhq/dsarkit/internal/packager"
	"github.com/privhq/dsarkit/internal/sources"
	"github.com/privhq/dsarkit/internal/store"
)

// configureLogging installs the default slog handler on stderr. Verbose
// lowers the level to debug.
func configureLogging(opts *RootOptions) {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// SourceOptions holds the flags selecting the artifact sources, transaction
// history and package destination for a run. All locations are afs URLs, so
// plain paths, file:// and mem:// all work.
type SourceOptions struct {
	MailExport   string
	Profile      string
	FilesDir     string
	Transactions string
	PackagesDir  string
	TraceFile    string
	Trace        bool
}

func registerSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringVar(&opts.MailExport, "mail", "", "mail export JSON location")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CRM profile JSON location")
	cmd.Flags().StringVar(&opts.FilesDir, "files", "", "file storage directory location")
	cmd.Flags().StringVar(&opts.Transactions, "transactions", "", "transaction history JSON location")
	cmd.Flags().StringVar(&opts.PackagesDir, "packages", "", "disclosure package destination")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "mirror step spans to a trace sink")
	cmd.Flags().StringVar(&opts.TraceFile, "trace-file", "", "trace output file (default stdout)")
}

// newEngine opens the run store and assembles an engine from the source
// flags. The caller owns the returned store and must Close it.
func newEngine(database string, src *SourceOptions) (*engine.Engine, store.RunStore, error) {
	st, err := store.Open(database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	fs := afs.New()
	var opts []engine.Option

	var providers []sources.Provider
	if src.MailExport != "" {
		providers = append(providers, sources.NewMailExport(fs, src.MailExport))
	}
	if src.Profile != "" {
		providers = append(providers, sources.NewProfile(fs, src.Profile))
	}
	if src.FilesDir != "" {
		providers = append(providers, sources.NewFiles(fs, src.FilesDir))
	}
	if len(providers) > 0 {
		opts = append(opts, engine.WithProviders(providers...))
	}
	if src.Transactions != "" {
		opts = append(opts, engine.WithTransactionSource(sources.NewTransactionFile(fs, src.Transactions)))
	}
	if src.PackagesDir != "" {
		opts = append(opts, engine.WithPackager(packager.NewZip(fs, src.PackagesDir)))
	}
	if src.Trace {
		if err := mirror.Init("dsarkit", "dev", src.TraceFile); err != nil {
			_ = st.Close()
			return nil, nil, WrapExitError(ExitCommandError, "failed to initialise tracing", err)
		}
		opts = append(opts, engine.WithMirror(mirror.NewOTel()))
	}

	return engine.New(st, opts...), st, nil
}
