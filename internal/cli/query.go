package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/filtersql"
	"github.com/52North/SOS-sub005/internal/format/sos"
	"github.com/52North/SOS-sub005/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Driver string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <db> <request>",
		Short: "Evaluate a GetObservation request against the store",
		Long: `Decode a SOS 2.0 GetObservation request and list the stored observations
it selects, ordered by phenomenon time.

With --verbose the generated SQL is logged.

Examples:
  sosdecode query ./sos.db get_observation.xml
  sosdecode query --format json ./sos.db request.xml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlite3", "database driver (sqlite3|pgx)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command, dsn, requestFile string) error {
	out := opts.formatter(cmd)

	root, _, err := readDocument(cmd, requestFile, opts.settings().Limits.MaxNodes)
	if err != nil {
		return reportReadError(out, err)
	}

	req, err := decode.As[*sos.GetObservation](opts.dispatcher(), root, "request")
	if err != nil {
		_ = out.DecodeError(err)
		return WrapExitError(ExitFailure, "failed to decode request", err)
	}

	st, err := store.Open(opts.Driver, dsn)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	f := req.Filter()
	if opts.Verbose {
		query, params, err := filtersql.NewCompiler(st.Dialect()).Select("observations", nil, f)
		if err == nil {
			opts.log("warn").Debug("compiled query", zap.String("sql", query), zap.Any("params", params))
		}
	}

	records, err := st.QueryObservations(cmd.Context(), f)
	if err != nil {
		if _, ok := decode.KindOf(err); ok {
			_ = out.DecodeError(err)
			return WrapExitError(ExitFailure, "query rejected", err)
		}
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}

	if opts.Format == "json" {
		return out.Success(records)
	}
	w := cmd.OutOrStdout()
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\n", r.ID, r.Procedure, r.ObservedProperty, r.PhenomenonStart, r.PhenomenonEnd)
	}
	fmt.Fprintf(w, "%d observation(s)\n", len(records))
	return nil
}
