package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/socgen/internal/compiler"
	"github.com/roach88/socgen/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // command succeeded
	ExitFailure      = 1 // configs invalid or scenarios failed
	ExitCommandError = 2 // the command could not run: bad paths, load or build errors, ledger errors
)

// ExitError carries the process exit code for a command failure. The
// command has already reported the failure by the time it returns one.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code carried by err, or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format string // "json" | "text"
	Writer io.Writer
	// ErrWriter receives verbose diagnostics; nil means Writer. Commands set
	// it to stderr so diagnostics never interleave with JSON.
	ErrWriter io.Writer
	Verbose   bool
}

// NewOutputFormatter returns the formatter for a command run.
func NewOutputFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError carries an E-code for config and command errors, or the build
// error code (REGION_OVERLAP, ...) with its details for composition failures.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes data. Text mode prints it with fmt's default format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes an error. Text mode prints details only when verbose.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Fail reports a command-level error and returns the exit error for it.
func (f *OutputFormatter) Fail(code, message string, details interface{}) error {
	_ = f.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// BuildFailure reports a composition failure under its build error code, so
// scripts can tell a REGION_OVERLAP from a TOPOLOGY_MISMATCH. Anything else
// is E001.
func (f *OutputFormatter) BuildFailure(err error) error {
	code := ErrCodeGeneric
	var details interface{}

	var buildErr *ir.BuildError
	if errors.As(err, &buildErr) {
		code = string(buildErr.Code)
		if len(buildErr.Details) > 0 {
			details = buildErr.Details
		}
	}

	_ = f.Error(code, err.Error(), details)
	return WrapExitError(ExitCommandError, "build failed", err)
}

// LoadFailures reports every config load or compile error. JSON carries the
// first as the error and all of them as data; text prints CUE positions.
func (f *OutputFormatter) LoadFailures(errs []error) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("loading configs failed with %d error(s)", len(errs)))

	if f.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := loadErrorCode(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{Status: "error", Error: &cliErrors[0], Data: cliErrors}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(f.Writer, "✗ Loading configs failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		code, message := loadErrorCode(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", code, message)
	}
	return exitErr
}

// loadErrorCode maps a load error to its E-code and message.
func loadErrorCode(err error) (string, string) {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
