package converter

import (
	"sort"
	"strings"
)

// Resolver expands include directives into flattened rule sequences. One
// Resolver covers one build: resolved rule-sets are cached for its lifetime,
// so repeated includes of the same name are computed once.
//
// The Resolver is not safe for concurrent use. The cycle-detection stack is
// threaded through calls, so a concurrent variant would only need a locked
// cache, not a different algorithm.
type Resolver struct {
	source Source
	cache  map[string][]Rule
}

func NewResolver(source Source) *Resolver {
	return &Resolver{source: source, cache: make(map[string][]Rule)}
}

// Resolve returns the flattened rule sequence for the named rule-set.
// Missing include targets and include cycles do not fail the build; they
// degrade to a single in-band diagnostic comment rule.
func (r *Resolver) Resolve(name string) []Rule {
	return r.resolve(name, nil)
}

func (r *Resolver) resolve(name string, stack []string) []Rule {
	if cached, ok := r.cache[name]; ok {
		out := make([]Rule, len(cached))
		copy(out, cached)
		return out
	}

	for _, active := range stack {
		if active != name {
			continue
		}
		path := make([]string, 0, len(stack)+1)
		path = append(path, stack...)
		path = append(path, name)
		// Not cached: a different call path might legitimately succeed.
		return []Rule{diagnostic("cyclic include: " + strings.Join(path, " -> "))}
	}

	content, err := r.source.Read(name)
	if err != nil {
		return []Rule{diagnostic("include target not found: " + name)}
	}

	stack = append(stack, name)
	var out []Rule
	for _, raw := range strings.Split(content, "\n") {
		parsed := ParseLine(strings.TrimSuffix(raw, "\r"))
		switch {
		case parsed.Include != "":
			out = append(out, r.resolve(parsed.Include, stack)...)
		case parsed.Rule != nil:
			out = append(out, *parsed.Rule)
		}
	}

	cached := make([]Rule, len(out))
	copy(cached, out)
	r.cache[name] = cached
	return out
}

func diagnostic(msg string) Rule {
	return Rule{Kind: RuleComment, Value: "WARNING: " + msg}
}

// CollectAttrs returns the sorted set of attribute tags observed across the
// given rules.
func CollectAttrs(rules []Rule) []string {
	seen := make(map[string]bool)
	for _, rule := range rules {
		for attr := range rule.Attrs {
			seen[attr] = true
		}
	}
	attrs := make([]string, 0, len(seen))
	for attr := range seen {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	return attrs
}

// FilterByAttr returns the rules carrying the given attribute tag, in order.
func FilterByAttr(rules []Rule, attr string) []Rule {
	var out []Rule
	for _, rule := range rules {
		if rule.HasAttr(attr) {
			out = append(out, rule)
		}
	}
	return out
}
