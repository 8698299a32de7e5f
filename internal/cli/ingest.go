package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/52North/SOS-sub005/internal/decode"
	"github.com/52North/SOS-sub005/internal/format/om"
	"github.com/52North/SOS-sub005/internal/format/sml"
	"github.com/52North/SOS-sub005/internal/store"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Offering string
	Driver   string
}

// IngestedDocument reports what was stored for one input file.
type IngestedDocument struct {
	File string `json:"file"`
	Kind string `json:"kind"` // "observation" | "procedure"
	ID   string `json:"id"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <db> <file>...",
		Short: "Decode documents into the observation store",
		Long: `Decode O&M observations and SensorML descriptions and write them to a store.

Observations are stored under --offering and deduplicated by content.
SensorML processes are stored as procedure descriptions keyed by their
identifier. Any other document is rejected.

Examples:
  sosdecode ingest ./sos.db observation.xml
  sosdecode ingest --offering urn:offering:1 ./sos.db obs/*.xml
  sosdecode ingest --driver pgx postgres://localhost/sos sensor.xml`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&opts.Offering, "offering", "", "offering the observations belong to")
	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlite3", "database driver (sqlite3|pgx)")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command, dsn string, files []string) error {
	out := opts.formatter(cmd)
	log := opts.log("warn")

	st, err := store.Open(opts.Driver, dsn)
	if err != nil {
		_ = out.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	d := opts.dispatcher()
	ctx := cmd.Context()
	ingested := make([]IngestedDocument, 0, len(files))

	for _, file := range files {
		root, data, err := readDocument(cmd, file, opts.settings().Limits.MaxNodes)
		if err != nil {
			return reportReadError(out, err)
		}

		v, err := d.Decode(root)
		if err != nil {
			_ = out.DecodeError(err)
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to decode %s", file), err)
		}

		doc := IngestedDocument{File: file}
		switch x := v.(type) {
		case *om.Observation:
			doc.Kind = "observation"
			doc.ID, err = st.InsertObservation(ctx, x, opts.Offering)
		case *sml.Process:
			doc.Kind = "procedure"
			doc.ID = x.Identifier
			err = st.PutProcedure(ctx, x.Identifier, sml.ContentType, string(data))
		default:
			err = decode.UnsupportedInput(root.Name, "only observations and SensorML processes can be stored")
			_ = out.DecodeError(err)
			return WrapExitError(ExitFailure, fmt.Sprintf("cannot ingest %s", file), err)
		}
		if err != nil {
			_ = out.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to store %s", file), err)
		}

		log.Debug("ingested document", zap.String("file", file), zap.String("kind", doc.Kind), zap.String("id", doc.ID))
		out.VerboseLog("stored %s %s from %s", doc.Kind, doc.ID, file)
		ingested = append(ingested, doc)
	}

	if opts.Format == "json" {
		return out.Success(ingested)
	}
	w := cmd.OutOrStdout()
	for _, doc := range ingested {
		fmt.Fprintf(w, "%s\t%s\t%s\n", doc.Kind, doc.ID, doc.File)
	}
	return nil
}
