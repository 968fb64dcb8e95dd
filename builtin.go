package cleanurl

// Builtin returns a RuleSet built from the matcher definitions that were baked
// into the binary from the matchers directory. Every call returns a new
// RuleSet.
func Builtin() (*RuleSet, error) {
	return NewRuleSet(builtinMatchers()...)
}
