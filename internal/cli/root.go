package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs. Commands built on their
	// own (as in tests) see nil and fall back to DefaultConfig.
	Config *Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the joinery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "joinery",
		Short: "joinery - SELECT statements from declared relations",
		Long: `Build SQL SELECT statements from a CUE schema of views and relations.

Queries name the attributes they want; joinery finds the joins, assigns
table aliases and renders GROUP BY and ORDER BY for you.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main reports the error and picks the exit code
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}

			setupLogging(cmd.ErrOrStderr(), opts.Verbose)

			cfg, path, err := LoadConfig(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if path != "" {
				slog.Debug("config loaded", "path", path)
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: joinery.yaml found from the working directory up)")

	// Add subcommands
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// config returns the loaded configuration, or the defaults.
func (o *RootOptions) config() *Config {
	if o.Config == nil {
		o.Config = DefaultConfig()
	}
	return o.Config
}

// printer builds the result printer for a command.
func (o *RootOptions) printer(cmd *cobra.Command) *Printer {
	return &Printer{
		JSON:    o.Format == "json",
		Verbose: o.Verbose,
		Out:     cmd.OutOrStdout(),
		Diag:    cmd.ErrOrStderr(),
	}
}

// setupLogging routes the package-level slog calls to w. Debug records are
// shown only in verbose mode.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
