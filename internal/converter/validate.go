package converter

import (
	"regexp"
	"strings"
)

// Whitelist of rendered shapes. The generator can only legitimately produce
// these; anything else is a malformed source value leaking through.
var (
	domainLineRe   = regexp.MustCompile(`^(?:DOMAIN|DOMAIN-SUFFIX),[A-Za-z0-9._\-]+$`)
	keywordLineRe  = regexp.MustCompile(`^DOMAIN-KEYWORD,[^,\s]+$`)
	wildcardLineRe = regexp.MustCompile(`^DOMAIN-WILDCARD,\*\.[A-Za-z0-9._\-]+$`)
	urlRegexLineRe = regexp.MustCompile(`^URL-REGEX,.+$`)
)

// Validator accepts or rejects fully rendered output lines. The wildcard
// shape is accepted only when wildcard output is enabled.
type Validator struct {
	wildcard bool
}

func NewValidator(opts Options) *Validator {
	return &Validator{wildcard: opts.Wildcard}
}

// Valid reports whether a rendered line may be written. Comment lines are
// always acceptable; whether they render at all is gated by Options.Comments.
func (v *Validator) Valid(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	switch {
	case domainLineRe.MatchString(line),
		keywordLineRe.MatchString(line),
		urlRegexLineRe.MatchString(line):
		return true
	case v.wildcard && wildcardLineRe.MatchString(line):
		return true
	}
	return false
}
