package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/engine"
	"github.com/roach88/cascade/internal/lexer"
)

// LoadMode controls how errors are handled during rule loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedFile is one compiled rule file.
type LoadedFile struct {
	Path     string
	Defaults bool
	Rules    []compiler.Rule
}

// LoadResult contains the rules loaded from files and inline expressions.
type LoadResult struct {
	Files []LoadedFile

	// Rules are all compiled rules in load order: files first, in path
	// order, then inline expressions.
	Rules []compiler.Rule

	// Defaults is false when any loaded file set `defaults: false`.
	Defaults bool

	FileCount int
}

// LoadError represents an error that occurred during rule loading.
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

// LoadRules compiles the CUE rule files named by paths, then the inline
// exprs. A path may be a .cue file or a directory, which contributes every
// .cue file beneath it in lexical order. Each file is compiled on its own.
//
// With LoadModeFailFast a nil result is returned with the first error.
// With LoadModeCollectAll the result holds every rule that compiled.
func LoadRules(paths, exprs []string, mode LoadMode) (*LoadResult, []error) {
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	files, err := expandPaths(paths)
	if err != nil {
		return nil, []error{err}
	}

	result := &LoadResult{Defaults: true, FileCount: len(files)}
	ctx := cuecontext.New()

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			if fail(&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}) {
				return nil, errs
			}
			continue
		}

		value := ctx.CompileBytes(data, cuecontext.Filename(path))
		if err := value.Err(); err != nil {
			if fail(&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}) {
				return nil, errs
			}
			continue
		}

		rf, fileErrs := compiler.CompileRuleFileAll(value)
		stop := false
		for _, fe := range fileErrs {
			if fail(convertCompileError(fe, path)) {
				stop = true
				break
			}
		}
		if stop {
			return nil, errs
		}
		if rf == nil {
			continue
		}

		result.Files = append(result.Files, LoadedFile{Path: path, Defaults: rf.Defaults, Rules: rf.Rules})
		result.Rules = append(result.Rules, rf.Rules...)
		if !rf.Defaults {
			result.Defaults = false
		}
	}

	for i, text := range exprs {
		rule, err := compiler.CompileRule(text)
		if err != nil {
			if fail(convertCompileError(err, fmt.Sprintf("expr[%d]", i))) {
				return nil, errs
			}
			continue
		}
		result.Rules = append(result.Rules, rule)
	}

	return result, errs
}

// RuleSet builds the rule set a command runs against: the built-in rules
// unless disabled by flag or by a loaded file, then every loaded rule in
// order.
func (r *LoadResult) RuleSet(noDefaults bool) *engine.RuleSet {
	rs := engine.NewRuleSet()
	if !noDefaults && r.Defaults {
		rs = engine.Default()
	}
	return rs.InsertAll(r.Rules...)
}

// expandPaths resolves files and directories into a list of .cue files.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules path not found: %s", path)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules path: %v", err)}
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		found, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(found) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
		files = append(files, found...)
	}
	return files, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a rule error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	loadErr := &LoadError{
		Code:    MapErrorCode(err),
		Message: fmt.Sprintf("%s: %v", context, err),
	}

	var fe *compiler.FileError
	if errors.As(err, &fe) {
		loadErr.Pos = fe.Pos
		if fe.Index >= 0 {
			loadErr.Message = fmt.Sprintf("rules[%d]: %v", fe.Index, fe.Err)
		} else {
			loadErr.Message = fe.Err.Error()
		}
	}
	return loadErr
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // Journal open failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Rule errors
	ErrCodeTokenize = "E101" // Rule text does not tokenize
	ErrCodeCompile  = "E102" // Rule tokens do not form a rule

	// Resolution errors
	ErrCodeInput      = "E201" // Scope argument does not parse
	ErrCodeResolution = "E202" // No rule chain produced a value
	ErrCodeEvaluation = "E203" // Formula failed to evaluate
)

// MapErrorCode maps a rule or resolution error to a CLI error code.
func MapErrorCode(err error) string {
	var fe *compiler.FileError
	switch {
	case lexer.IsTokenizeError(err):
		return ErrCodeTokenize
	case compiler.IsCompileError(err):
		return ErrCodeCompile
	case errors.As(err, &fe):
		// A CUE error attached to a position rather than a rule.
		return ErrCodeBuildFailed
	case engine.IsNoMatch(err), engine.IsNoFormula(err):
		return ErrCodeResolution
	case compiler.IsDivideByZero(err):
		return ErrCodeEvaluation
	default:
		return ErrCodeGeneric
	}
}
