package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/compiler"
)

func TestCompileDefaultRules(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 boolean rule(s), 3 arithmetic rule(s)")
	assert.Contains(t, out, "A B && C ! &&")
	assert.Contains(t, out, "D D E F - 25.5 / * +")
}

func TestCompileExprJSON(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd, "-e", "A && !B => H = T", "-e", "H = T => K = D / 2")
	require.NoError(t, err)

	var result CompilationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, result.Rules, 2)

	assert.Equal(t, compiler.StageBoolean, result.Rules[0].Stage)
	assert.Equal(t, "T", result.Rules[0].Tag)
	assert.Equal(t, []string{"A", "B", "!", "&&"}, result.Rules[0].Program)
	assert.Equal(t, "A && !B => H = T", result.Rules[0].Source)
	assert.NotEmpty(t, result.Rules[0].ID)

	assert.Equal(t, compiler.StageArithmetic, result.Rules[1].Stage)
	assert.Equal(t, []string{"D", "2", "/"}, result.Rules[1].Program)
}

func TestCompileRuleFile(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "rules.cue", `
defaults: false
rules: [
	"A && B && !C => H = P",
	"H = P => K = D * 2",
]
`)

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 1 boolean rule(s), 1 arithmetic rule(s)")
	assert.Contains(t, out, "D 2 *")
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled rules to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Len(t, result.Rules, 6)
}

func TestCompileNonExistentPath(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, "/nonexistent/rules")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestCompileEmptyDirectory(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	out, err := execute(cmd, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "E003")
}

func TestCompileInvalidRules(t *testing.T) {
	dir := t.TempDir()
	writeRuleFile(t, dir, "bad.cue", `
rules: [
	"A && => H = M",
	"A # B => H = M",
]
`)

	cmd := NewCompileCommand(&RootOptions{Format: "json"})
	out, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 error(s)")

	var errs []CLIError
	resp := decodeResponse(t, out, &errs)
	assert.Equal(t, "error", resp.Status)
	require.Len(t, errs, 2)
	assert.Equal(t, "E102", errs[0].Code)
	assert.Contains(t, errs[0].Message, "bad.cue:3:")
	assert.Contains(t, errs[0].Message, "rules[0]")
	assert.Equal(t, "E101", errs[1].Code)
	assert.Contains(t, errs[1].Message, "rules[1]")
}

func TestCompileVerboseOutput(t *testing.T) {
	cmd := NewCompileCommand(&RootOptions{Format: "text", Verbose: true})
	stderr := &bytes.Buffer{}
	cmd.SetErr(stderr)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stderr.String(), "compiling the built-in rules")
	assert.Contains(t, stderr.String(), "Compiled boolean rule")
	assert.NotContains(t, out.String(), "Compiled boolean rule")
}

func TestCalculateStats(t *testing.T) {
	result := &CompilationResult{Rules: []CompiledRule{
		{Stage: compiler.StageBoolean},
		{Stage: compiler.StageBoolean},
		{Stage: compiler.StageArithmetic},
	}}

	stats := calculateStats(result, 4)
	assert.Equal(t, CompilationStats{FileCount: 4, BooleanCount: 2, ArithmeticCount: 1}, stats)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
	assert.Equal(t, "abc", shortID("abc"))
}
