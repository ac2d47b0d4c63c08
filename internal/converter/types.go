// Package converter implements the core of the domain-list to Surge ruleset
// conversion: line parsing, recursive include resolution, rendering and
// output validation.
package converter

// RuleKind represents the type of a rule.
type RuleKind int

const (
	RuleDomainSuffix RuleKind = iota // "domain:" prefix or bare line
	RuleDomain                       // "full:" prefix, exact domain match
	RuleDomainKeyword                // "keyword:" prefix, substring match
	RuleDomainRegex                  // "regexp:" prefix
	RuleComment                      // synthetic diagnostic, produced only by the resolver
)

// Rule is one parsed rule line. Attrs is the set of @tag names present on
// the source line; it is never mutated after parsing.
type Rule struct {
	Kind  RuleKind
	Value string
	Attrs map[string]bool
}

// HasAttr reports whether the rule carries the given attribute tag.
func (r Rule) HasAttr(attr string) bool {
	return r.Attrs[attr]
}

// Options controls rendering and validation behavior.
type Options struct {
	// Wildcard enables DOMAIN-WILDCARD output lines and accepts them as valid.
	Wildcard bool
	// Comments emits diagnostic comment lines into output files.
	Comments bool
}
