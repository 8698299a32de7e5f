package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/ir"
	"github.com/52North/SOS-sub005/internal/xmltree"
)

// DecodeResult is the output of the decode command.
type DecodeResult struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode an XML document",
		Long: `Decode an OGC XML document and print the decoded value as canonical JSON.

The document element selects the decoder. Use "-" to read from stdin.

Exit codes:
  0 - Document decoded
  1 - Decode failed (the typed error is printed)
  2 - Command error (file not found, etc.)

Examples:
  sosdecode decode observation.xml
  sosdecode decode --format json filter.xml
  cat request.xml | sosdecode decode -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	root, _, err := readDocument(cmd, path, opts.settings().Limits.MaxNodes)
	if err != nil {
		return reportReadError(out, err)
	}

	v, err := opts.dispatcher().Decode(root)
	if err != nil {
		opts.log("warn").Debug("decode failed", zap.String("file", path), zap.Error(err))
		if ferr := out.DecodeError(err); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "decode failed", err)
	}

	result := DecodeResult{Type: fmt.Sprintf("%T", v), Value: v}
	if opts.Format == "json" {
		return out.Success(result)
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Type)
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// readError distinguishes unreadable input from malformed XML.
type readError struct {
	notFound bool
	err      error
}

func (e *readError) Error() string { return e.err.Error() }
func (e *readError) Unwrap() error { return e.err }

// readDocument reads path ("-" for stdin) and parses it.
func readDocument(cmd *cobra.Command, path string, maxNodes int) (*xmltree.Node, []byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, &readError{notFound: true, err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	root, err := xmltree.Parse(data, xmltree.WithMaxNodes(maxNodes))
	if err != nil {
		return nil, nil, &readError{err: fmt.Errorf("%s: %w", path, err)}
	}
	return root, data, nil
}

// reportReadError prints a readDocument failure and returns the matching
// exit error.
func reportReadError(out *OutputFormatter, err error) error {
	re, ok := err.(*readError)
	if ok && re.notFound {
		_ = out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read input", err)
	}
	_ = out.Error(ErrCodeMalformedXML, err.Error(), nil)
	return WrapExitError(ExitFailure, "malformed document", err)
}
