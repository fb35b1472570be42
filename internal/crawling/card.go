package crawling

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

// UnknownName is the card name used when no name selector matches.
const UnknownName = "Unknown"

// CardName reads the display name of a listing card.
func CardName(card *goquery.Selection) string {
	if name := FirstText(card, Bounded(1, 100, Selectors(cardNameSelectors...)...)...); name != "" {
		return name
	}
	return UnknownName
}

// ExtractCard builds a lower-fidelity record from the fields visible on a listing card.
func ExtractCard(card *goquery.Selection, rawURL, name string) *types.Profile {
	b := types.NewProfileBuilder(types.SourceCard, Now().UTC())
	b.ProfileURL(platform.NormalizeProfileURL(rawURL))
	b.RawName(name)

	headline := FirstText(card, Selectors(cardHeadlineSelectors...)...)
	b.Headline(headline)
	b.Location(FirstText(card, Selectors(cardLocationSelectors...)...))
	if headline != "" {
		b.Position(splitAt(headline))
	}
	return b.Build()
}
