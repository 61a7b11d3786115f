package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/socgen/internal/compiler"
	"github.com/roach88/socgen/internal/ir"
)

// LoadMode controls how errors are handled during config loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading SoC configs from a directory.
type LoadResult struct {
	Configs   []ir.Config // Sorted by name
	FileCount int         // Number of CUE files found
}

// Config returns the config with the given name.
func (r *LoadResult) Config(name string) (ir.Config, bool) {
	for _, c := range r.Configs {
		if c.Name == name {
			return c, true
		}
	}
	return ir.Config{}, false
}

// Names returns the loaded SoC names.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Configs))
	for i, c := range r.Configs {
		names[i] = c.Name
	}
	return names
}

// LoadError represents an error that occurred during config loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadConfigs loads the CUE package in dir and compiles every entry under
// `soc`. LoadModeFailFast returns at the first compile error; directory and
// CUE errors always end the load with a nil result.
func LoadConfigs(dir string, mode LoadMode) (*LoadResult, []error) {
	value, fileCount, loadErr := loadCUE(dir)
	if loadErr != nil {
		return nil, []error{loadErr}
	}

	result := &LoadResult{FileCount: fileCount}
	errs := compileConfigs(value.LookupPath(cue.ParsePath("soc")), mode, result)

	sort.Slice(result.Configs, func(i, j int) bool { return result.Configs[i].Name < result.Configs[j].Name })

	if len(result.Configs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoConfigs, Message: "no soc configs found"})
	}
	return result, errs
}

// loadCUE builds the single CUE instance rooted at dir.
func loadCUE(dir string) (cue.Value, int, *LoadError) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("configs directory not found: %s", dir)}
	case err != nil:
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing configs directory: %v", err)}
	case !info.IsDir():
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	if err := instances[0].Err; err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", err)}
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return value, len(files), nil
}

// compileConfigs appends every compiled entry of socs to result. A missing
// `soc` field yields no configs and no errors.
func compileConfigs(socs cue.Value, mode LoadMode, result *LoadResult) []error {
	if !socs.Exists() {
		return nil
	}

	iter, err := socs.Fields()
	if err != nil {
		return []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating socs: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		c, err := compiler.CompileSoC(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "soc."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		result.Configs = append(result.Configs, *c)
	}
	return errs
}

// FindCUEFiles returns the .cue files under dir, skipping the cue.mod
// module directory.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "cue.mod" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoConfigs   = "E008" // No soc configs in the directory
	ErrCodeAmbiguous   = "E009" // Several configs and no --soc
	ErrCodeUnknownSoC  = "E010" // --soc names no loaded config
	ErrCodeStore       = "E011" // Build ledger error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "variant":
		return compiler.ErrUnknownVariant
	case field == "reset_vector":
		return compiler.ErrInvalidResetVector
	case strings.HasPrefix(field, "non_cacheable"):
		return compiler.ErrInvalidNonCacheable
	default:
		return ErrCodeGeneric
	}
}
