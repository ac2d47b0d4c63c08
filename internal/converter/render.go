package converter

import (
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/pattern"
)

// RenderRule maps one rule to zero or more Surge lines. Comment rules render
// only when comment output is enabled.
func RenderRule(rule Rule, opts Options) []string {
	switch rule.Kind {
	case RuleDomainSuffix:
		return []string{"DOMAIN-SUFFIX," + rule.Value}
	case RuleDomain:
		return []string{"DOMAIN," + rule.Value}
	case RuleDomainKeyword:
		return []string{"DOMAIN-KEYWORD," + rule.Value}
	case RuleDomainRegex:
		return pattern.ToSurge(rule.Value, opts.Wildcard)
	case RuleComment:
		if opts.Comments {
			return []string{"# " + rule.Value}
		}
		return nil
	default:
		return nil
	}
}

// RenderRuleset renders a resolved rule sequence to validated output lines,
// preserving rule order. Lines failing validation are dropped and counted,
// never written.
func RenderRuleset(rules []Rule, opts Options) (lines []string, dropped int) {
	validator := NewValidator(opts)
	for _, rule := range rules {
		for _, line := range RenderRule(rule, opts) {
			if !validator.Valid(line) {
				dropped++
				continue
			}
			lines = append(lines, line)
		}
	}
	return lines, dropped
}
