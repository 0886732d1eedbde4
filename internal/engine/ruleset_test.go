package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cascade/internal/compiler"
	"github.com/roach88/cascade/internal/ir"
	"github.com/roach88/cascade/internal/lexer"
)

func mustAdd(t *testing.T, rs *RuleSet, texts ...string) *RuleSet {
	t.Helper()
	next, err := rs.Add(texts...)
	require.NoError(t, err)
	return next
}

func TestDefaultResolve(t *testing.T) {
	rs := Default()
	require.Equal(t, 6, rs.Len())

	got, err := rs.Resolve(ir.NewScope(false, true, true, 5.0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = rs.Resolve(ir.NewScope(true, true, true, 1.0, 52, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestResolveEachTag(t *testing.T) {
	rs := Default()

	tests := []struct {
		name  string
		scope ir.Scope
		tag   ir.Tag
		want  float64
	}{
		{"M", ir.NewScope(true, true, false, 2.0, 5, 0), ir.TagM, 3.0},
		{"P", ir.NewScope(true, true, true, 1.0, 1, 1), ir.TagP, 1.0},
		{"T", ir.NewScope(false, true, true, 3.0, 0, 10), ir.TagT, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rs.Explain(tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, res.Tag)
			assert.InDelta(t, tt.want, res.Value, 1e-9)
			assert.NotEmpty(t, res.GuardID)
			assert.NotEmpty(t, res.FormulaID)
		})
	}
}

func TestResolveNoMatch(t *testing.T) {
	rs := Default()

	_, err := rs.Resolve(ir.NewScope(false, false, false, 1.0, 1, 1))
	require.Error(t, err)
	assert.True(t, IsNoMatch(err))
	assert.Equal(t, "NO_MATCH: no matching boolean rule", err.Error())

	_, err = NewRuleSet().Resolve(ir.Scope{})
	assert.True(t, IsNoMatch(err))

	var nilSet *RuleSet
	_, err = nilSet.Resolve(ir.Scope{})
	assert.True(t, IsNoMatch(err))
}

func TestResolveNoFormula(t *testing.T) {
	rs := mustAdd(t, NewRuleSet(), "A => H = P", "H = M => K = D")

	res, err := rs.Explain(ir.NewScope(true, false, false, 1, 0, 0))
	require.Error(t, err)
	assert.True(t, IsNoFormula(err))
	assert.Equal(t, "NO_FORMULA: no arithmetic rule for tag P", err.Error())
	assert.Equal(t, ir.TagP, res.Tag)
	assert.Empty(t, res.FormulaID)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ir.TagP, re.Tag)
}

func TestResolveDivideByZero(t *testing.T) {
	rs := mustAdd(t, NewRuleSet(), "A => H = M", "H = M => K = D / (E - F)")

	_, err := rs.Resolve(ir.NewScope(true, false, false, 1, 4, 4))
	require.Error(t, err)
	assert.True(t, compiler.IsDivideByZero(err))
	assert.False(t, IsNoMatch(err))
	assert.False(t, IsNoFormula(err))
	assert.Equal(t, "DIVIDE_BY_ZERO", ErrorCode(err))
}

func TestResolveFirstMatchWins(t *testing.T) {
	// Both guards hold for a=true b=true; the earlier one decides.
	rs := mustAdd(t, NewRuleSet(),
		"A => H = M",
		"B => H = P",
		"H = M => K = 1",
		"H = P => K = 2",
	)

	got, err := rs.Resolve(ir.FlagScope(true, true, false))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestResolveFirstFormulaWins(t *testing.T) {
	rs := mustAdd(t, NewRuleSet(),
		"A => H = M",
		"H = M => K = 1",
		"H = M => K = 2",
	)

	got, err := rs.Resolve(ir.FlagScope(true, false, false))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestInsertReplacesEqualRule(t *testing.T) {
	rs := mustAdd(t, NewRuleSet(), "A => H = M", "B => H = P")
	again := mustAdd(t, rs, "A => H = M")

	require.Equal(t, 2, again.Len())
	rules := again.Rules()
	assert.Equal(t, "B => H = P", rules[0].Source())
	assert.Equal(t, "A => H = M", rules[1].Source())
}

func TestInsertIdempotentResolve(t *testing.T) {
	base := Default()
	twice := mustAdd(t, base, "A && B && C => H = P")

	assert.Equal(t, base.Len(), twice.Len())

	for _, s := range []ir.Scope{
		ir.NewScope(true, true, true, 1.0, 52, 1),
		ir.NewScope(false, true, true, 5.0, 0, 30),
		ir.NewScope(true, true, false, 2.0, 5, 0),
	} {
		want, wantErr := base.Resolve(s)
		got, gotErr := twice.Resolve(s)
		assert.Equal(t, wantErr, gotErr)
		assert.Equal(t, want, got)
	}

	// The re-inserted rule moved to the end; a later structurally different
	// rule lands after it.
	extended := mustAdd(t, twice, "!A && !B && !C => H = M")
	rules := extended.Rules()
	assert.Equal(t, "A && B && C => H = P", rules[len(rules)-2].Source())
	assert.Equal(t, "!A && !B && !C => H = M", rules[len(rules)-1].Source())
}

// A rule that only changes the tag of an existing guard replaces it. This
// is how an override works, and also means two rules with the same guard
// can never coexist.
func TestInsertOverrideByTag(t *testing.T) {
	base := Default()

	got, err := base.Resolve(ir.NewScope(true, true, false, 1.0, 52, 1))
	require.NoError(t, err)
	assert.InDelta(t, 6.2, got, 1e-9) // tag M

	overridden := mustAdd(t, base, "A && B && !C => H = P")
	assert.Equal(t, base.Len(), overridden.Len())

	got, err = overridden.Resolve(ir.NewScope(true, true, false, 1.0, 52, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, got) // tag P

	// Formula with the same program under another key replaces the old key.
	swapped := mustAdd(t, NewRuleSet(), "A => H = M", "H = M => K = D", "H = P => K = D")
	_, err = swapped.Resolve(ir.FlagScope(true, false, false))
	assert.True(t, IsNoFormula(err))
}

func TestInsertDoesNotMutateReceiver(t *testing.T) {
	base := Default()
	id := base.ID()

	_ = mustAdd(t, base, "!A && !B && !C => H = P")

	assert.Equal(t, 6, base.Len())
	assert.Equal(t, id, base.ID())
	_, err := base.Resolve(ir.FlagScope(false, false, false))
	assert.True(t, IsNoMatch(err))
}

func TestAddFailureKeepsReceiver(t *testing.T) {
	base := Default()

	next, err := base.Add("A => H = M", "!A && !B && !")
	require.Error(t, err)
	assert.True(t, compiler.IsCompileError(err))
	assert.Same(t, base, next)
}

func TestRuleSetID(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.ID(), b.ID())

	c := mustAdd(t, a, "A => H = M")
	assert.NotEqual(t, a.ID(), c.ID())

	// A tag change alone changes the set's ID even though the rule IDs match.
	d := mustAdd(t, a, "A && B && !C => H = P")
	assert.NotEqual(t, a.ID(), d.ID())

	assert.Equal(t, NewRuleSet().ID(), (&RuleSet{}).ID())
}

func TestRulesReturnsCopy(t *testing.T) {
	rs := Default()
	rules := rs.Rules()
	rules[0] = nil
	assert.NotNil(t, rs.Rules()[0])
}

func TestNewRuleSetSkipsNil(t *testing.T) {
	rule, err := compiler.CompileRule("A => H = M")
	require.NoError(t, err)

	rs := NewRuleSet(nil, rule, nil)
	assert.Equal(t, 1, rs.Len())
}

func TestTextsRebuildTokenCompiledSet(t *testing.T) {
	var rules []compiler.Rule
	for _, text := range DefaultRules {
		tokens, err := lexer.Tokenize(text)
		require.NoError(t, err)
		rule, err := compiler.CompileTokens(tokens)
		require.NoError(t, err)
		rules = append(rules, rule)
	}
	rs := NewRuleSet(rules...)

	rebuilt := mustAdd(t, NewRuleSet(), rs.Texts()...)
	assert.Equal(t, rs.ID(), rebuilt.ID())
	assert.Equal(t, Default().ID(), rebuilt.ID())

	got, err := rebuilt.Resolve(ir.NewScope(true, true, true, 1.0, 52, 1))
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}
