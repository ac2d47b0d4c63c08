package converter

import (
	"regexp"
	"strings"
)

var (
	includeRe  = regexp.MustCompile(`^include:([A-Za-z0-9_.\-]+)$`)
	prefixedRe = regexp.MustCompile(`^(domain|full|keyword|regexp):(.+)$`)
)

// Parsed is the result of classifying one source line: a rule, an include
// target, or neither (blank, comment-only or tags-only line).
type Parsed struct {
	Rule    *Rule
	Include string
}

// ParseLine classifies one raw source line.
//
// Comment stripping is purely lexical: the first '#' anywhere on the line
// starts a comment, even inside a regexp value. This matches the upstream
// dialect's behavior and is a known limitation of it.
func ParseLine(raw string) Parsed {
	line := strings.TrimPrefix(raw, "\uFEFF")
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Parsed{}
	}

	if m := includeRe.FindStringSubmatch(line); m != nil {
		return Parsed{Include: m[1]}
	}

	kind := RuleDomainSuffix
	body := line
	if m := prefixedRe.FindStringSubmatch(line); m != nil {
		switch m[1] {
		case "full":
			kind = RuleDomain
		case "keyword":
			kind = RuleDomainKeyword
		case "regexp":
			kind = RuleDomainRegex
		}
		body = strings.TrimSpace(m[2])
	}

	values, attrs := splitAttrs(strings.Fields(body))
	if len(values) == 0 {
		return Parsed{}
	}
	return Parsed{Rule: &Rule{
		Kind:  kind,
		Value: strings.Join(values, " "),
		Attrs: attrs,
	}}
}

// splitAttrs separates @tag tokens from value tokens. A bare "@" counts as a
// value token, not a tag.
func splitAttrs(tokens []string) ([]string, map[string]bool) {
	var values []string
	var attrs map[string]bool
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "@") && len(tok) > 1 {
			if attrs == nil {
				attrs = make(map[string]bool)
			}
			attrs[tok[1:]] = true
			continue
		}
		values = append(values, tok)
	}
	return values, attrs
}
