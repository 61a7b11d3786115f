package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/emit"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB  string
	SoC string
}

// BuildDetail is the JSON payload for a single recorded build.
type BuildDetail struct {
	ir.BuildRecord
	Regions []ir.Region `json:"regions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [build-id]",
		Short: "List recorded builds",
		Long: `List the builds recorded in a build ledger in the order they were
recorded. With a build ID, show that build and its address map.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runHistory(ctx, opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "build ledger database path (required)")
	cmd.Flags().StringVar(&opts.SoC, "soc", "", "only list builds of this SoC")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts.RootOptions, cmd)

	// Opening creates the file, so a typo must not produce an empty ledger.
	if _, err := os.Stat(opts.DB); err != nil {
		return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), nil)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	if id != "" {
		return showBuild(ctx, st, id, formatter)
	}

	records, err := st.ListBuilds(ctx, opts.SoC)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No builds recorded")
		return nil
	}
	for _, rec := range records {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s (%s)  %s\n",
			rec.Seq, rec.ID, rec.SoC, rec.Variant, shortHash(rec.BundleHash))
	}
	return nil
}

func showBuild(ctx context.Context, st *store.Store, id string, formatter *OutputFormatter) error {
	rec, _, err := st.ReadBuild(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("no build with id %s", id), nil)
	}
	if err != nil {
		return formatter.Fail(ErrCodeStore, err.Error(), nil)
	}

	regions, err := st.ReadRegions(ctx, id)
	if err != nil {
		return formatter.Fail(ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(BuildDetail{BuildRecord: rec, Regions: regions})
	}

	fmt.Fprintf(formatter.Writer, "Build %s (seq %d)\n\n", rec.ID, rec.Seq)
	fmt.Fprintf(formatter.Writer, "  soc:          %s\n", rec.SoC)
	fmt.Fprintf(formatter.Writer, "  variant:      %s\n", rec.Variant)
	fmt.Fprintf(formatter.Writer, "  bundle hash:  %s\n", rec.BundleHash)
	fmt.Fprintf(formatter.Writer, "  config hash:  %s\n", rec.ConfigHash)
	fmt.Fprintf(formatter.Writer, "  generator:    %s (ir %s)\n\n", rec.EngineVersion, rec.IRVersion)

	return emit.RegionTable(formatter.Writer, nil, regions)
}

// shortHash truncates a content hash for list output.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
