package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/engine"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Exprs  []string
	Output string // output file path
}

// CompiledRule is the printable form of a compiled rule.
type CompiledRule struct {
	Stage   compiler.Stage `json:"stage"`
	Tag     string         `json:"tag"`
	ID      string         `json:"id"`
	Source  string         `json:"source,omitempty"`
	Program []string       `json:"program"`
}

// CompilationResult holds the compiled rules.
type CompilationResult struct {
	Rules []CompiledRule `json:"rules"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	FileCount       int
	BooleanCount    int
	ArithmeticCount int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [rule-files...]",
		Short: "Compile rules to postfix programs",
		Long: `Compile rule texts to their postfix programs.

Reads CUE rule files (or directories of them) and inline --expr texts,
and prints each rule's stage, tag, identity and postfix listing. With no
input the built-in rules are compiled.

Examples:
  cascade compile ./rules
  cascade compile -e "A && !B => H = T"
  cascade compile ./rules --format json --output compiled.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "inline rule text (repeatable)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	exprs := opts.Exprs
	if len(paths) == 0 && len(exprs) == 0 {
		formatter.VerboseLog("No input given; compiling the built-in rules")
		exprs = engine.DefaultRules
	}

	loadResult, loadErrors := LoadRules(paths, exprs, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		_ = formatter.Errors("✗ Compilation failed", cliErrors(loadErrors))
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(loadErrors)))
	}

	formatter.VerboseLog("Found %d CUE file(s)", loadResult.FileCount)

	result := &CompilationResult{Rules: make([]CompiledRule, 0, len(loadResult.Rules))}
	for _, rule := range loadResult.Rules {
		formatter.VerboseLog("Compiled %s rule %s", rule.Stage(), rule.ID())
		result.Rules = append(result.Rules, toCompiledRule(rule))
	}

	stats := calculateStats(result, loadResult.FileCount)

	if opts.Output != "" {
		if err := writeRulesToFile(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

func toCompiledRule(rule compiler.Rule) CompiledRule {
	return CompiledRule{
		Stage:   rule.Stage(),
		Tag:     rule.Tag().String(),
		ID:      rule.ID(),
		Source:  rule.Source(),
		Program: rule.Listing(),
	}
}

// calculateStats computes summary statistics from compilation result.
func calculateStats(result *CompilationResult, files int) CompilationStats {
	stats := CompilationStats{FileCount: files}
	for _, rule := range result.Rules {
		switch rule.Stage {
		case compiler.StageBoolean:
			stats.BooleanCount++
		case compiler.StageArithmetic:
			stats.ArithmeticCount++
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d boolean rule(s), %d arithmetic rule(s)\n\n",
		stats.BooleanCount, stats.ArithmeticCount)

	for _, rule := range result.Rules {
		fmt.Fprintf(w, "  %-10s %s  %s  %s\n", rule.Stage, rule.Tag, shortID(rule.ID), strings.Join(rule.Program, " "))
	}

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote compiled rules to %s\n", outputFile)
	}
	return nil
}

// shortID abbreviates a content hash for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// writeRulesToFile writes the compilation result as indented JSON.
func writeRulesToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
