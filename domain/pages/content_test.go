package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNegotiateLanguage(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty header", "", "en"},
		{"exact english", "en", "en"},
		{"regional spanish", "es-MX,es;q=0.9", "es"},
		{"french preferred", "fr-FR,fr;q=0.9,en;q=0.5", "fr"},
		{"german", "de-DE", "de"},
		{"unsupported falls back", "ja-JP,ja;q=0.9", "en"},
		{"quality ordering respected", "de;q=0.4,es;q=0.9", "es"},
		{"garbage header", ";;;===", "en"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, negotiateLanguage(tc.header))
		})
	}
}

func TestContentFor_VariantCopy(t *testing.T) {
	a := contentFor("en", "A")
	b := contentFor("en", "B")

	assert.Equal(t, "A", a.Variant)
	assert.Equal(t, "B", b.Variant)
	assert.NotEqual(t, a.Headline, b.Headline)
	assert.NotEqual(t, a.CTALabel, b.CTALabel)

	// shared copy does not vary with the experiment
	assert.Equal(t, a.Subhead, b.Subhead)
	assert.Equal(t, a.Tagline, b.Tagline)
}

func TestContentFor_UnknownInputsFallBack(t *testing.T) {
	data := contentFor("xx", "")

	assert.Equal(t, "en", data.Lang)
	assert.Equal(t, "A", data.Variant)
	assert.NotEmpty(t, data.Headline)
	assert.NotEmpty(t, data.CTALabel)
}

func TestContentFor_EveryLanguageComplete(t *testing.T) {
	for lang := range copyByLanguage {
		for _, variant := range []string{"A", "B"} {
			data := contentFor(lang, variant)
			assert.NotEmpty(t, data.Headline, "%s/%s headline", lang, variant)
			assert.NotEmpty(t, data.CTALabel, "%s/%s cta", lang, variant)
			assert.NotEmpty(t, data.Subhead, "%s subhead", lang)
			assert.NotEmpty(t, data.EmailPlaceholder, "%s placeholder", lang)
		}
	}
}
