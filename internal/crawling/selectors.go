// Package crawling extracts profile records from rendered pages and discovers profile
// entries on listing pages.
package crawling

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// TextFunc reads one candidate value from a page or a fragment of one.
type TextFunc func(root *goquery.Selection) (string, bool)

// Selector reads the text of the first element matching css.
func Selector(css string) TextFunc {
	return func(root *goquery.Selection) (string, bool) {
		text := nodeText(root.Find(css).First())
		return text, text != ""
	}
}

// Selectors turns a priority list of CSS selectors into TextFuncs.
func Selectors(css ...string) []TextFunc {
	fns := make([]TextFunc, len(css))
	for i, c := range css {
		fns[i] = Selector(c)
	}
	return fns
}

// Bounded accepts a candidate only when its length is strictly between lo and hi runes.
func Bounded(lo, hi int, fns ...TextFunc) []TextFunc {
	out := make([]TextFunc, len(fns))
	for i, fn := range fns {
		out[i] = func(root *goquery.Selection) (string, bool) {
			text, ok := fn(root)
			n := utf8.RuneCountInString(text)
			return text, ok && n > lo && n < hi
		}
	}
	return out
}

// FirstText returns the first accepted candidate, or "" when none is.
func FirstText(root *goquery.Selection, fns ...TextFunc) string {
	for _, fn := range fns {
		if text, ok := fn(root); ok {
			return text
		}
	}
	return ""
}

// nodeText returns the element's text with whitespace runs collapsed.
func nodeText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(s.Text()), " ")
}

// Profile page selectors, most specific layout first.
var (
	nameSelectors = []string{
		"h1.text-heading-xlarge",
		".pv-top-card--list li:first-child",
		".text-heading-xlarge",
		".profile-topcard-person-entity__name",
		".artdeco-entity-lockup__title",
		`h1[class*="name"]`,
		".pv-text-details__left-panel h1",
		`[data-anonymize="person-name"]`,
	}
	headlineSelectors = []string{
		".text-body-medium.break-words",
		".pv-top-card--list-bullet",
		`[data-anonymize="headline"]`,
	}
	locationSelectors = []string{
		".text-body-small.inline.t-black--light.break-words",
		".pv-top-card--list.pv-top-card--list-bullet span",
		`[data-anonymize="location"]`,
	}
	aboutSelectors = []string{
		"#about ~ .display-flex .inline-show-more-text",
		".pv-about__summary-text",
		`[data-anonymize="about-summary"]`,
	}
)

// Section list items and their sub-selectors.
const (
	experienceAnchor = "#experience"
	educationAnchor  = "#education"
	skillsAnchor     = "#skills"
	sectionItem      = "li.artdeco-list__item"
	itemBold         = `.t-bold span[aria-hidden="true"]`
	itemNormal       = `.t-normal span[aria-hidden="true"]`
	itemLight        = `.t-black--light span[aria-hidden="true"]`
)

// Listing page selectors.
var (
	containerSelectors = []string{
		".reusable-search__result-container",
		"li.reusable-search__result-container",
		".entity-result",
		".search-result__wrapper",
		".hiring-people__list-item",
		".profile-list__profile-item",
		".search-results__result-item",
		".talent-search-result-card",
		".mn-connection-card",
		".discover-person-card",
	}
	entryLinkSelectors = []string{
		`a[href*="/in/"].app-aware-link`,
		`a[href*="/in/"][data-control-name]`,
		".entity-result__title-text a",
		".entity-result__title a",
		".actor-name-with-distance a",
		".search-result__title a",
		`a.ember-view[href*="/in/"]`,
		`a[href*="/in/"]`,
	}
	cardNameSelectors = []string{
		`.entity-result__title-text a span[aria-hidden="true"]`,
		`.entity-result__title-text span[aria-hidden="true"]`,
		".actor-name",
		".name",
		".search-result__title",
		`span[dir="ltr"]`,
	}
	cardHeadlineSelectors = []string{
		".entity-result__primary-subtitle",
		".subline-level-1",
		".search-result__subtitle",
		".entity-result__summary",
	}
	cardLocationSelectors = []string{
		".entity-result__secondary-subtitle",
		".subline-level-2",
		".search-result__location",
	}
)

// ProfileLinkSelector matches every profile link of a page.
const ProfileLinkSelector = `a[href*="/in/"]`
