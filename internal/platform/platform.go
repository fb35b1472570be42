// Package platform holds the URL rules of the profile platform: page-kind detection,
// profile link recognition, and URL normalization. It has no browser or network
// dependency so the text extractor can use it.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// PlatformName is the gate phrase looked for in exported documents and rejected in page titles.
const PlatformName = "linkedin"

// BaseURL is the origin used to absolutize relative profile links.
const BaseURL = "https://www.linkedin.com"

// PageKind classifies a page by its URL shape.
type PageKind string

const (
	// PageProfile is a single-target profile page (/in/<slug>)
	PageProfile PageKind = "profile"
	// PageListing is a search, recruiter, or connections listing page
	PageListing PageKind = "listing"
	// PageUnknown is anything else
	PageUnknown PageKind = "unknown"
)

// listingMarkers are path fragments of listing routes.
var listingMarkers = []string{
	"/search/",
	"/talent/",
	"/recruiter/",
	"/sales/",
	"/mynetwork/",
}

// DetectPage identifies the page kind from a URL.
func DetectPage(urlStr string) PageKind {
	lower := strings.ToLower(urlStr)
	if strings.Contains(lower, "/in/") && !strings.Contains(lower, "/search/") {
		return PageProfile
	}
	for _, marker := range listingMarkers {
		if strings.Contains(lower, marker) {
			return PageListing
		}
	}
	return PageUnknown
}

// IsProfileHref reports whether an href points at a profile.
func IsProfileHref(href string) bool {
	return strings.Contains(href, "/in/")
}

// IsListingHref reports whether an href points at a search or listing route.
func IsListingHref(href string) bool {
	return strings.Contains(href, "/search/")
}

// NormalizeProfileURL turns a profile href into its absolute canonical form:
// relative links are resolved against BaseURL, and query, fragment, and trailing slash are dropped.
func NormalizeProfileURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	base, _ := url.Parse(BaseURL)
	ref, err := url.Parse(raw)
	if err != nil {
		if strings.HasPrefix(raw, "http") {
			return raw
		}
		return BaseURL + raw
	}
	abs := base.ResolveReference(ref)
	abs.RawQuery = ""
	abs.Fragment = ""
	return strings.TrimSuffix(abs.String(), "/")
}

// profileSlugRe finds profile URLs in free text (exported documents).
var profileSlugRe = regexp.MustCompile(`(?i)linkedin\.com/in/([a-zA-Z0-9\-]+)`)

// ProfileURLFromText returns the first profile URL mentioned anywhere in text, normalized.
func ProfileURLFromText(text string) string {
	m := profileSlugRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return BaseURL + "/in/" + m[1]
}
