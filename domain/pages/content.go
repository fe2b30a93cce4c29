package pages

import (
	"time"

	"github.com/wayfarermaps/landing/pkg/constants"
	"golang.org/x/text/language"
)

// supportedLanguages drives Accept-Language negotiation. English is the
// fallback and must stay first.
var supportedLanguages = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

type landingPageData struct {
	Lang             string
	Title            string
	Tagline          string
	Headline         string
	Subhead          string
	CTALabel         string
	EmailPlaceholder string
	Variant          string
	Year             int
}

// pageCopy holds the translated strings for one language. The experiment
// swaps only the headline and the call to action.
type pageCopy struct {
	Tagline          string
	Subhead          string
	EmailPlaceholder string
	HeadlineA        string
	HeadlineB        string
	CTAA             string
	CTAB             string
}

var copyByLanguage = map[string]pageCopy{
	"en": {
		Tagline:          "Maps worth keeping",
		Subhead:          "Wayfarer turns modern map data into hand-drawn charts you can annotate, print, and take far beyond the grid.",
		EmailPlaceholder: "you@example.com",
		HeadlineA:        "Chart your own course.",
		HeadlineB:        "The world, hand-drawn for you.",
		CTAA:             "Join the waitlist",
		CTAB:             "Get early access",
	},
	"es": {
		Tagline:          "Mapas que vale la pena guardar",
		Subhead:          "Wayfarer convierte datos cartográficos modernos en cartas dibujadas a mano que puedes anotar, imprimir y llevar lejos de la red.",
		EmailPlaceholder: "tu@ejemplo.com",
		HeadlineA:        "Traza tu propio rumbo.",
		HeadlineB:        "El mundo, dibujado a mano para ti.",
		CTAA:             "Únete a la lista de espera",
		CTAB:             "Consigue acceso anticipado",
	},
	"fr": {
		Tagline:          "Des cartes qui se gardent",
		Subhead:          "Wayfarer transforme les données cartographiques modernes en cartes dessinées à la main, à annoter, imprimer et emporter loin du réseau.",
		EmailPlaceholder: "vous@exemple.fr",
		HeadlineA:        "Tracez votre propre route.",
		HeadlineB:        "Le monde, dessiné à la main pour vous.",
		CTAA:             "Rejoindre la liste d'attente",
		CTAB:             "Obtenir un accès anticipé",
	},
	"de": {
		Tagline:          "Karten, die man behält",
		Subhead:          "Wayfarer verwandelt moderne Kartendaten in handgezeichnete Karten zum Beschriften, Drucken und Mitnehmen, weit weg vom Netz.",
		EmailPlaceholder: "du@beispiel.de",
		HeadlineA:        "Bestimme deinen eigenen Kurs.",
		HeadlineB:        "Die Welt, von Hand gezeichnet für dich.",
		CTAA:             "Auf die Warteliste",
		CTAB:             "Früher Zugang sichern",
	},
}

// negotiateLanguage maps an Accept-Language header to one of the supported
// languages, defaulting to English for anything unparseable.
func negotiateLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "en"
	}

	_, index, _ := languageMatcher.Match(tags...)
	base, _ := supportedLanguages[index].Base()
	return base.String()
}

func contentFor(lang, variant string) landingPageData {
	text, ok := copyByLanguage[lang]
	if !ok {
		lang = "en"
		text = copyByLanguage[lang]
	}

	headline, cta := text.HeadlineA, text.CTAA
	if variant == constants.VariantB {
		headline, cta = text.HeadlineB, text.CTAB
	} else {
		variant = constants.VariantA
	}

	return landingPageData{
		Lang:             lang,
		Title:            "Wayfarer | " + text.Tagline,
		Tagline:          text.Tagline,
		Headline:         headline,
		Subhead:          text.Subhead,
		CTALabel:         cta,
		EmailPlaceholder: text.EmailPlaceholder,
		Variant:          variant,
		Year:             time.Now().Year(),
	}
}
