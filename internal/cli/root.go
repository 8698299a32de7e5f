package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/config"
	"github.com/52North/SOS-sub005/internal/decode"
	_ "github.com/52North/SOS-sub005/internal/format/all"
	"github.com/52North/SOS-sub005/internal/logger"
	"github.com/52North/SOS-sub005/internal/version"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a .yaml or .cue config file

	cfg    *config.Config
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sosdecode CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "sosdecode",
		Short:   "sosdecode - OGC document decoder",
		Long:    "Decodes OGC XML documents (FES filters, SWE Common, GML, O&M, SOS requests, SensorML) into typed values.",
		Version: version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Config != "" {
				cfg, err := config.Load(opts.Config)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				opts.cfg = &cfg
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (.yaml, .yml or .cue)")

	// Add subcommands
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewCapabilitiesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// settings returns the loaded configuration, or the defaults when no
// --config was given.
func (o *RootOptions) settings() config.Config {
	if o.cfg == nil {
		cfg := config.Default()
		o.cfg = &cfg
	}
	return *o.cfg
}

// log returns the command logger, building it on first use. Commands log
// at warn unless the config names a level; --verbose forces debug.
func (o *RootOptions) log(defaultLevel string) *zap.Logger {
	if o.logger != nil {
		return o.logger
	}
	cfg := o.settings()
	level := cfg.Logging.Level
	if level == "" {
		level = defaultLevel
	}
	if o.Verbose {
		level = "debug"
	}
	l, err := logger.NewLogger(cfg.Logging.Env, level)
	if err != nil {
		l = zap.NewNop()
	}
	o.logger = l
	return l
}

// dispatcher builds a dispatcher over every registered format.
func (o *RootOptions) dispatcher(extra ...decode.Option) *decode.Facade {
	opts := append([]decode.Option{decode.WithLogger(o.log("warn"))}, extra...)
	return decode.DefaultBuilder().Build(opts...)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
