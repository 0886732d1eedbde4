package engine

// DefaultRules is the built-in rule set, in insertion order.
var DefaultRules = []string{
	"A && B && !C => H = M",
	"A && B && C => H = P",
	"!A && B && C => H = T",
	"H = M => K = D + (D * E / 10)",
	"H = P => K = D + (D * (E - F) / 25.5)",
	"H = T => K = D - (D * F / 30)",
}

// Default compiles DefaultRules.
// It panics if they do not compile, which only a broken build can cause.
func Default() *RuleSet {
	rs, err := (&RuleSet{}).Add(DefaultRules...)
	if err != nil {
		panic("engine: default rules: " + err.Error())
	}
	return rs
}
