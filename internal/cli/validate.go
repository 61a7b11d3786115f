package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/compiler"
	"github.com/roach88/socgen/internal/variant"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	SoCs   []string                   `json:"socs,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <configs-dir>",
		Short: "Validate SoC configs without building",
		Long: `Validate CUE SoC configs without composing a bundle.

Checks config syntax, SoC names, variants, reset vectors and the
non-cacheable window. Faster than build for development feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configsDir string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts, cmd)

	loadResult, validationErrors, err := ValidateConfigsDir(configsDir, formatter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return formatter.Fail(loadErr.Code, loadErr.Message, nil)
		}
		return formatter.Fail(ErrCodeGeneric, err.Error(), nil)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, loadResult.Names())
}

// ValidateConfigsDir loads every config in a directory and validates each
// one against the default variant table. Compile errors are reported as
// validation errors; only directory-level failures return err.
func ValidateConfigsDir(configsDir string, formatter *OutputFormatter) (*LoadResult, []compiler.ValidationError, error) {
	loadResult, loadErrors := LoadConfigs(configsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, nil, loadErrors[0]
	}
	if formatter != nil {
		formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, configsDir)
	}

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    getLineFromCuePos(loadErr.Pos),
			})
		}
	}

	table := variant.Default()
	for i := range loadResult.Configs {
		cfg := &loadResult.Configs[i]
		if formatter != nil {
			formatter.VerboseLog("Validating soc: %s", cfg.Name)
		}
		for _, verr := range compiler.Validate(cfg, table) {
			verr.Field = cfg.Name + "." + verr.Field
			validationErrors = append(validationErrors, verr)
		}
	}

	return loadResult, validationErrors, nil
}

// getLineFromCuePos extracts line number from a token.Pos.
func getLineFromCuePos(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, socs []string) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, SoCs: socs}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d SoC config(s) valid\n", len(socs))
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
