package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSurgeOptionalSubdomain(t *testing.T) {
	assert.Equal(t,
		[]string{"DOMAIN,example.com"},
		ToSurge(`^(.+\.)?example\.com$`, false))

	assert.Equal(t,
		[]string{"DOMAIN,example.com", "DOMAIN-WILDCARD,*.example.com"},
		ToSurge(`^(.+\.)?example\.com$`, true))
}

func TestToSurgeAnchoredLiteral(t *testing.T) {
	assert.Equal(t, []string{"DOMAIN,foo.bar"}, ToSurge(`^foo\.bar$`, false))
	// Wildcard mode does not change plain literal translation.
	assert.Equal(t, []string{"DOMAIN,foo.bar"}, ToSurge(`^foo\.bar$`, true))
}

func TestToSurgeFallback(t *testing.T) {
	assert.Equal(t,
		[]string{`URL-REGEX,^https?://tracker\.[a-z]+\.net(?::\d+)?(?:/|$)`},
		ToSurge(`^tracker\.[a-z]+\.net$`, false))

	// Anchors are stripped once if present, not required.
	assert.Equal(t,
		[]string{`URL-REGEX,^https?://ads(?::\d+)?(?:/|$)`},
		ToSurge(`ads`, false))
}

func TestToSurgeWhitespaceTrimmed(t *testing.T) {
	assert.Equal(t, []string{"DOMAIN,foo.bar"}, ToSurge("  ^foo\\.bar$  ", false))
}
