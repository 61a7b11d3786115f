package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/compiler"
	"github.com/roach88/socgen/internal/emit"
	"github.com/roach88/socgen/internal/ir"
	"github.com/roach88/socgen/internal/soc"
	"github.com/roach88/socgen/internal/sources"
	"github.com/roach88/socgen/internal/store"
	"github.com/roach88/socgen/internal/variant"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	SoC    string // config name, required when the directory holds several
	Output string // output file path
	DB     string // build ledger path
}

// BuildSummary is the JSON payload of a successful build.
type BuildSummary struct {
	SoC     string     `json:"soc"`
	Variant ir.Variant `json:"variant"`
	ID      string     `json:"id"`
	Hash    string     `json:"hash"`
	Seq     int64      `json:"seq,omitempty"`
	Output  string     `json:"output,omitempty"`
	Bundle  *ir.Bundle `json:"bundle,omitempty"`

	// UnchangedSince is the seq of the previous build of the same SoC when
	// it produced the same bundle hash.
	UnchangedSince int64 `json:"unchanged_since,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <configs-dir>",
		Short: "Build a SoC instantiation bundle",
		Long: `Compose the CPU core, interrupt controller and timer described by a SoC
config and emit the instantiation bundle.

The output format follows the --output extension: .json, .yaml/.yml or
.v/.sv for a structural Verilog top. With --db the build is recorded in
the build ledger.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SoC, "soc", "", "SoC config to build")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.DB, "db", "", "build ledger database path")

	return cmd
}

func runBuild(ctx context.Context, opts *BuildOptions, configsDir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := NewOutputFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadOne(configsDir, opts.SoC, formatter)
	if err != nil {
		return err
	}

	table := variant.Default()
	if errs := compiler.Validate(&cfg, table); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	bundle, err := compose(cfg, table, logger)
	if err != nil {
		return formatter.BuildFailure(err)
	}

	summary := BuildSummary{
		SoC:     bundle.SoC,
		Variant: bundle.Variant,
		ID:      bundle.ID,
		Hash:    bundle.Hash,
		Output:  opts.Output,
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeBundleToFile(bundle, opts.Output); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %s bundle to %s", emit.FormatForPath(opts.Output), opts.Output)
	}

	if opts.DB != "" {
		seq, prev, err := recordBuild(ctx, opts.DB, cfg, bundle)
		if err != nil {
			return formatter.Fail(ErrCodeStore, err.Error(), nil)
		}
		summary.Seq = seq
		summary.UnchangedSince = prev
		formatter.VerboseLog("Recorded build %s as seq %d", bundle.ID, seq)
	}

	return outputBuildSuccess(formatter, summary, bundle)
}

// loadOne loads the configs directory and selects a single config: the one
// named by soc, or the only one present.
func loadOne(configsDir, name string, formatter *OutputFormatter) (ir.Config, error) {
	loadResult, loadErrors := LoadConfigs(configsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return ir.Config{}, formatter.Fail(loadErr.Code, loadErr.Message, nil)
		}
		return ir.Config{}, formatter.Fail(ErrCodeGeneric, loadErrors[0].Error(), nil)
	}
	if len(loadErrors) > 0 {
		return ir.Config{}, formatter.LoadFailures(loadErrors)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, configsDir)

	if name == "" {
		if len(loadResult.Configs) > 1 {
			return ir.Config{}, formatter.Fail(ErrCodeAmbiguous,
				fmt.Sprintf("%d soc configs found, select one with --soc", len(loadResult.Configs)),
				loadResult.Names())
		}
		return loadResult.Configs[0], nil
	}

	cfg, ok := loadResult.Config(name)
	if !ok {
		return ir.Config{}, formatter.Fail(ErrCodeUnknownSoC,
			fmt.Sprintf("no soc config named %q", name), loadResult.Names())
	}
	return cfg, nil
}

// compose resolves sources and runs the integrator for one config.
func compose(cfg ir.Config, table variant.Table, logger *slog.Logger) (*ir.Bundle, error) {
	integ, err := newIntegrator(cfg, table, logger)
	if err != nil {
		return nil, err
	}
	return integ.Build()
}

// newIntegrator resolves the config's sources and applies its reset vector.
func newIntegrator(cfg ir.Config, table variant.Table, logger *slog.Logger) (*soc.Integrator, error) {
	srcs, err := sources.Resolve(cfg.Sources)
	if err != nil {
		return nil, err
	}

	integ, err := soc.New(table, cfg, soc.Options{Logger: logger, Sources: srcs})
	if err != nil {
		return nil, err
	}
	if cfg.ResetVector != nil {
		if err := integ.SetResetAddress(*cfg.ResetVector); err != nil {
			return nil, err
		}
	}
	return integ, nil
}

// recordBuild appends the bundle to the ledger at dbPath. It also returns
// the seq of the SoC's previous build when that build has the same bundle
// hash, or 0.
func recordBuild(ctx context.Context, dbPath string, cfg ir.Config, bundle *ir.Bundle) (seq, unchangedSince int64, err error) {
	configHash, err := ir.ConfigHash(cfg)
	if err != nil {
		return 0, 0, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return 0, 0, err
	}
	defer st.Close()

	latest, err := st.LatestBuild(ctx, cfg.Name)
	switch {
	case err == nil && latest.BundleHash == bundle.Hash:
		unchangedSince = latest.Seq
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return 0, 0, err
	}

	seq, err = st.WriteBuild(ctx, ir.NewBuildRecord(bundle, configHash), bundle)
	if err != nil {
		return 0, 0, err
	}
	return seq, unchangedSince, nil
}

// outputBuildSuccess outputs a successful build.
func outputBuildSuccess(formatter *OutputFormatter, summary BuildSummary, bundle *ir.Bundle) error {
	if formatter.Format == "json" {
		// Without an output file the bundle travels in the response.
		if summary.Output == "" {
			summary.Bundle = bundle
		}
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Built %s (%s)\n\n", summary.SoC, summary.Variant)
	fmt.Fprintf(formatter.Writer, "  id:    %s\n", summary.ID)
	fmt.Fprintf(formatter.Writer, "  hash:  %s\n", summary.Hash)
	if summary.Seq > 0 {
		fmt.Fprintf(formatter.Writer, "  seq:   %d\n", summary.Seq)
	}
	if summary.UnchangedSince > 0 {
		fmt.Fprintf(formatter.Writer, "  bundle unchanged since seq %d\n", summary.UnchangedSince)
	}
	fmt.Fprintln(formatter.Writer)

	if err := emit.RegionTable(formatter.Writer, nil, bundle.Regions); err != nil {
		return err
	}

	if summary.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote bundle to %s\n", summary.Output)
	}
	return nil
}

// writeBundleToFile writes the bundle in the format chosen by the file
// extension.
func writeBundleToFile(b *ir.Bundle, filename string) error {
	var buf bytes.Buffer
	if err := emit.Write(&buf, b, emit.FormatForPath(filename)); err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
