// Package pattern translates the domain-list dialect's anchored regular
// expressions into Surge ruleset lines.
package pattern

import (
	"regexp"
	"strings"
)

// The two shapes that translate precisely. Both require an anchored literal
// whose only escape is `\.`; anything else goes through the URL-REGEX
// fallback.
var (
	// ^(.+\.)?example\.com$, optional subdomain prefix then literal suffix.
	optionalSubdomainRe = regexp.MustCompile(`^\^\(\.\+\\\.\)\?([A-Za-z0-9\\.\-]+)\$$`)
	// ^foo\.bar$, a plain anchored literal.
	anchoredLiteralRe = regexp.MustCompile(`^\^([A-Za-z0-9\\.\-]+)\$$`)
)

// ToSurge translates one regexp rule value into Surge lines, best effort.
// The recognized shapes are tried in order, first match wins. The fallback
// wraps the pattern as a URL-REGEX line, which may match more broadly than
// the original domain pattern; its body is not validated here.
func ToSurge(pat string, wildcard bool) []string {
	p := strings.TrimSpace(pat)

	if m := optionalSubdomainRe.FindStringSubmatch(p); m != nil {
		base := unescapeDots(m[1])
		lines := []string{"DOMAIN," + base}
		if wildcard {
			lines = append(lines, "DOMAIN-WILDCARD,*."+base)
		}
		return lines
	}

	if m := anchoredLiteralRe.FindStringSubmatch(p); m != nil {
		return []string{"DOMAIN," + unescapeDots(m[1])}
	}

	host := strings.TrimPrefix(p, "^")
	host = strings.TrimSuffix(host, "$")
	return []string{`URL-REGEX,^https?://` + host + `(?::\d+)?(?:/|$)`}
}

func unescapeDots(s string) string {
	return strings.ReplaceAll(s, `\.`, ".")
}
