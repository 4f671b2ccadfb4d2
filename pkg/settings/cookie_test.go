package settings_test

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/settings"
	"github.com/stretchr/testify/assert"
)

func TestCookie_RoundTrip(t *testing.T) {
	m := domain.DefaultAgentModels()
	m.Critic = "claude-critic"

	got := settings.DecodeCookie(settings.EncodeCookie(m))
	assert.Equal(t, m, got)

	// Browsers may hand the value back URL-escaped.
	assert.Equal(t, m, settings.DecodeCookie(url.QueryEscape(settings.EncodeCookie(m))))
}

func TestDecodeCookie_FallsBackToDefaults(t *testing.T) {
	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	defaults := domain.DefaultAgentModels()

	cases := map[string]string{
		"empty":        "",
		"not base64":   "%%%not-base64%%%",
		"not json":     b64("{nope"),
		"truncated":    b64(`{"clarifier":"x"`),
		"array":        b64(`["clarifier","x"]`),
		"string":       b64(`"clarifier"`),
		"null":         b64(`null`),
		"wrong values": b64(`{"clarifier":42,"outline":null}`),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, defaults, settings.DecodeCookie(value))
			})
		})
	}
}

func TestDecodeCookie_PartialObject(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte(`{"design":"dall-e-3","unknownRole":"x","research":"  "}`))

	got := settings.DecodeCookie(value)
	want := domain.DefaultAgentModels()
	want.Design = "dall-e-3"
	assert.Equal(t, want, got)
}

func TestFromMap_DropsUnknownKeys(t *testing.T) {
	got := settings.FromMap(map[string]any{
		"slideWriter": "gpt-x",
		"extra":       "ignored",
		"critic":      true,
	})
	assert.Equal(t, domain.AgentModels{SlideWriter: "gpt-x"}, got)
}
