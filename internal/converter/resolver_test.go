package converter

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSource is an in-memory Source for resolver tests.
type mapSource map[string]string

func (s mapSource) Names() ([]string, error) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s mapSource) Read(name string) (string, error) {
	content, ok := s[name]
	if !ok {
		return "", fmt.Errorf("no such rule-set: %s", name)
	}
	return content, nil
}

func TestResolveFlat(t *testing.T) {
	source := mapSource{
		"cn": "a.cn\nfull:b.cn @cn\n# comment\nkeyword:baidu\n",
	}
	rules := NewResolver(source).Resolve("cn")

	require.Len(t, rules, 3)
	assert.Equal(t, Rule{Kind: RuleDomainSuffix, Value: "a.cn"}, rules[0])
	assert.Equal(t, RuleDomain, rules[1].Kind)
	assert.Equal(t, "b.cn", rules[1].Value)
	assert.True(t, rules[1].HasAttr("cn"))
	assert.Equal(t, Rule{Kind: RuleDomainKeyword, Value: "baidu"}, rules[2])
}

func TestResolveIncludeSplice(t *testing.T) {
	source := mapSource{
		"parent": "before.com\ninclude:child\nafter.com\n",
		"child":  "mid1.com\nmid2.com\n",
	}
	rules := NewResolver(source).Resolve("parent")

	values := make([]string, len(rules))
	for i, r := range rules {
		values[i] = r.Value
	}
	assert.Equal(t, []string{"before.com", "mid1.com", "mid2.com", "after.com"}, values)
}

func TestResolveCycle(t *testing.T) {
	source := mapSource{
		"a": "a1.com\ninclude:b\n",
		"b": "b1.com\ninclude:a\n",
	}
	rules := NewResolver(source).Resolve("a")

	require.Len(t, rules, 3)
	assert.Equal(t, "a1.com", rules[0].Value)
	assert.Equal(t, "b1.com", rules[1].Value)
	assert.Equal(t, RuleComment, rules[2].Kind)
	assert.Equal(t, "WARNING: cyclic include: a -> b -> a", rules[2].Value)
}

func TestResolveSelfCycle(t *testing.T) {
	source := mapSource{"x": "include:x\n"}
	rules := NewResolver(source).Resolve("x")

	require.Len(t, rules, 1)
	assert.Equal(t, RuleComment, rules[0].Kind)
	assert.Equal(t, "WARNING: cyclic include: x -> x", rules[0].Value)
}

func TestResolveMissingTarget(t *testing.T) {
	source := mapSource{"top": "ok.com\ninclude:ghost\n"}
	rules := NewResolver(source).Resolve("top")

	require.Len(t, rules, 2)
	assert.Equal(t, "ok.com", rules[0].Value)
	assert.Equal(t, RuleComment, rules[1].Kind)
	assert.Equal(t, "WARNING: include target not found: ghost", rules[1].Value)
}

func TestResolveMemoized(t *testing.T) {
	source := mapSource{
		"top":    "include:shared\ninclude:shared\n",
		"shared": "s.com\n",
	}
	resolver := NewResolver(source)

	first := resolver.Resolve("top")
	second := resolver.Resolve("top")
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "s.com", first[0].Value)
	assert.Equal(t, "s.com", first[1].Value)
}

func TestResolveReturnsDefensiveCopy(t *testing.T) {
	source := mapSource{"x": "a.com\nb.com\n"}
	resolver := NewResolver(source)

	first := resolver.Resolve("x")
	first[0].Value = "mutated"

	second := resolver.Resolve("x")
	assert.Equal(t, "a.com", second[0].Value)
}

func TestResolveMissingNotCached(t *testing.T) {
	// A missing target degrades to a diagnostic but is not cached, so a
	// later resolution can succeed once the target exists.
	source := mapSource{"top": "include:late\n"}
	resolver := NewResolver(source)

	rules := resolver.Resolve("late")
	require.Len(t, rules, 1)
	assert.Equal(t, RuleComment, rules[0].Kind)

	source["late"] = "late.com\n"
	rules = resolver.Resolve("late")
	require.Len(t, rules, 1)
	assert.Equal(t, Rule{Kind: RuleDomainSuffix, Value: "late.com"}, rules[0])
}

func TestResolveCyclePathDependent(t *testing.T) {
	// The diagnostic names the actual call path, so entering the cycle from
	// a different rule-set produces a different message. The diagnostic-only
	// result is never cached under the cycled name itself.
	source := mapSource{
		"a": "a1.com\ninclude:b\n",
		"b": "b1.com\ninclude:a\n",
	}

	fromA := NewResolver(source).Resolve("a")
	require.Len(t, fromA, 3)
	assert.Equal(t, "WARNING: cyclic include: a -> b -> a", fromA[2].Value)

	fromB := NewResolver(source).Resolve("b")
	require.Len(t, fromB, 3)
	assert.Equal(t, "WARNING: cyclic include: b -> a -> b", fromB[2].Value)
}

func TestCollectAndFilterAttrs(t *testing.T) {
	rules := []Rule{
		{Kind: RuleDomainSuffix, Value: "a.com", Attrs: map[string]bool{"cn": true}},
		{Kind: RuleDomainSuffix, Value: "b.com"},
		{Kind: RuleDomain, Value: "c.com", Attrs: map[string]bool{"ads": true, "cn": true}},
	}

	assert.Equal(t, []string{"ads", "cn"}, CollectAttrs(rules))

	cn := FilterByAttr(rules, "cn")
	require.Len(t, cn, 2)
	assert.Equal(t, "a.com", cn[0].Value)
	assert.Equal(t, "c.com", cn[1].Value)

	assert.Empty(t, FilterByAttr(rules, "missing"))
}
