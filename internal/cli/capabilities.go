package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Capabilities lists what the registry decodes.
type Capabilities struct {
	Keys               []string `json:"keys"`
	ContentTypes       []string `json:"content_types"`
	ConformanceClasses []string `json:"conformance_classes"`
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List registered decoders",
		Long: `List the registry keys, content types and conformance classes of every
registered decoder.

Examples:
  sosdecode capabilities
  sosdecode capabilities --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(rootOpts, cmd)
		},
	}
}

func runCapabilities(opts *RootOptions, cmd *cobra.Command) error {
	reg := opts.dispatcher().Registry()

	caps := Capabilities{}
	for _, k := range reg.Keys() {
		caps.Keys = append(caps.Keys, k.String())
	}
	caps.ContentTypes, caps.ConformanceClasses = reg.Capabilities()

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(caps)
	}

	w := cmd.OutOrStdout()
	section := func(title string, items []string) {
		fmt.Fprintf(w, "%s (%d):\n", title, len(items))
		for _, it := range items {
			fmt.Fprintf(w, "  %s\n", it)
		}
	}
	section("Content types", caps.ContentTypes)
	section("Conformance classes", caps.ConformanceClasses)
	if opts.Verbose {
		section("Keys", caps.Keys)
	} else {
		fmt.Fprintf(w, "Keys: %d (use --verbose to list)\n", len(caps.Keys))
	}
	return nil
}
