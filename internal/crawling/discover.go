package crawling

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/profile-scraper/internal/browser"
	"github.com/jonathan/profile-scraper/internal/platform"
)

// Minimum rendered size of a primary profile link. Smaller links are avatars.
const (
	MinLinkWidth  = 50
	MinLinkHeight = 20
)

// Entry is one discovered profile on a listing page.
type Entry struct {
	// Ref addresses the entry's container in the live page.
	Ref browser.ElementRef
	// Node is the container in the snapshot the entry was discovered on.
	Node *goquery.Selection
	// Href is the link's raw href attribute; URL is its normalized absolute form.
	Href string
	URL  string
}

// DiscoverEntries enumerates the profile entries of a listing snapshot.
//
// Container selectors are tried in priority order and the first one yielding entries
// wins. Otherwise every profile link is considered, keeping only links whose rendered
// size (from boxes) marks them as primary links and that do not point at a listing route.
// A nil boxes slice skips the size filter. Entries are unique by normalized URL.
func DiscoverEntries(doc *goquery.Document, boxes []browser.LinkBox) ([]Entry, error) {
	if doc == nil {
		return nil, &DiscoveryError{Message: "no page snapshot"}
	}

	seen := make(map[string]struct{})
	add := func(entries []Entry, e Entry) []Entry {
		if _, dup := seen[e.URL]; dup {
			return entries
		}
		seen[e.URL] = struct{}{}
		return append(entries, e)
	}

	for _, css := range containerSelectors {
		var entries []Entry
		doc.Find(css).Each(func(i int, container *goquery.Selection) {
			href, ok := entryLink(container)
			if !ok {
				return
			}
			entries = add(entries, Entry{
				Ref:  browser.ElementRef{Selector: css, Index: i},
				Node: container,
				Href: href,
				URL:  platform.NormalizeProfileURL(href),
			})
		})
		if len(entries) > 0 {
			log.Debug().Str("selector", css).Int("entries", len(entries)).Msg("entries discovered")
			return entries, nil
		}
	}

	entries := fallbackEntries(doc, boxes, add)
	log.Debug().Int("entries", len(entries)).Msg("entries discovered from profile links")
	return entries, nil
}

// entryLink finds the profile link inside a container.
func entryLink(container *goquery.Selection) (string, bool) {
	for _, css := range entryLinkSelectors {
		href, ok := container.Find(css).First().Attr("href")
		if ok && platform.IsProfileHref(href) {
			return href, true
		}
	}
	return "", false
}

func fallbackEntries(doc *goquery.Document, boxes []browser.LinkBox, add func([]Entry, Entry) []Entry) []Entry {
	byIndex := make(map[int]browser.LinkBox, len(boxes))
	for _, b := range boxes {
		byIndex[b.Index] = b
	}

	var entries []Entry
	doc.Find(ProfileLinkSelector).Each(func(i int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || platform.IsListingHref(href) {
			return
		}
		if boxes != nil && !isPrimaryLink(byIndex[i], href) {
			return
		}
		container, up := closestItem(link)
		entries = add(entries, Entry{
			Ref:  browser.ElementRef{Selector: ProfileLinkSelector, Index: i, Up: up},
			Node: container,
			Href: href,
			URL:  platform.NormalizeProfileURL(href),
		})
	})
	return entries
}

func isPrimaryLink(box browser.LinkBox, href string) bool {
	if box.Href != href || len(box.Ancestors) == 0 {
		return false
	}
	size := box.Ancestors[0]
	return size.Width > MinLinkWidth && size.Height > MinLinkHeight
}

// closestItem returns the nearest enclosing list item, or the parent when there is none,
// with the number of parent hops to reach it.
func closestItem(link *goquery.Selection) (*goquery.Selection, int) {
	up := 0
	for n := link.Parent(); n.Length() > 0; n = n.Parent() {
		up++
		if goquery.NodeName(n) == "li" {
			return n, up
		}
	}
	return link.Parent(), 1
}
