package crawling

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

// SentinelName is used when no name can be read from a profile page.
const SentinelName = "LinkedIn_Profile"

// MaxSkills caps skills read from a profile page.
const MaxSkills = 20

// Now is the clock used for ExtractedAt. Tests may replace it.
var Now = time.Now

// ExtractProfile reads a full profile page. Fields without a matching selector stay empty;
// the name falls back to the document title and then to SentinelName.
func ExtractProfile(doc *goquery.Document, pageURL string) *types.Profile {
	if doc == nil {
		return nil
	}
	root := doc.Selection
	b := types.NewProfileBuilder(types.SourcePage, Now().UTC())
	b.ProfileURL(platform.NormalizeProfileURL(pageURL))

	b.RawName(pageName(doc))
	headline := FirstText(root, Selectors(headlineSelectors...)...)
	b.Headline(headline)
	b.Location(FirstText(root, Selectors(locationSelectors...)...))
	b.About(FirstText(root, Selectors(aboutSelectors...)...))

	for _, e := range experienceItems(root) {
		b.AddExperience(e)
	}
	if exp := b.Current().Experience; len(exp) > 0 {
		b.Position(exp[0].Title, exp[0].Company)
	} else {
		b.Position(splitAt(headline))
	}

	var schools, degrees []string
	for _, e := range educationItems(root) {
		if b.AddEducation(e) {
			schools = append(schools, e.School)
			if e.Degree != "" {
				degrees = append(degrees, e.Degree)
			}
		}
	}
	b.Schools(schools)
	b.Degrees(degrees)

	b.Skills(skillItems(root), MaxSkills)
	return b.Build()
}

// ParseHTML parses a rendered page.
func ParseHTML(html, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Cause: err}
	}
	return doc, nil
}

// ExtractProfileHTML parses html and extracts the profile it renders.
func ExtractProfileHTML(html, pageURL string) (*types.Profile, error) {
	doc, err := ParseHTML(html, pageURL)
	if err != nil {
		return nil, err
	}
	return ExtractProfile(doc, pageURL), nil
}

// pageName tries the name selectors, then the "<name> | <site>" document title.
func pageName(doc *goquery.Document) string {
	if name := FirstText(doc.Selection, Bounded(1, 100, Selectors(nameSelectors...)...)...); name != "" {
		return name
	}
	if name := titleName(doc); name != "" {
		return name
	}
	return SentinelName
}

func titleName(doc *goquery.Document) string {
	title := nodeText(doc.Find("title").First())
	before, _, found := strings.Cut(title, "|")
	if !found {
		return ""
	}
	name := strings.TrimSpace(before)
	if strings.Contains(strings.ToLower(name), platform.PlatformName) {
		return ""
	}
	return name
}

// sectionItems returns the list items of the section that holds anchor.
func sectionItems(root *goquery.Selection, anchor string) *goquery.Selection {
	return root.Find(anchor).First().Parent().Find(sectionItem)
}

func experienceItems(root *goquery.Selection) []types.ExperienceEntry {
	var out []types.ExperienceEntry
	sectionItems(root, experienceAnchor).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		e := types.ExperienceEntry{
			Title:    nodeText(item.Find(itemBold).First()),
			Company:  nodeText(item.Find(itemNormal).First()),
			Duration: nodeText(item.Find(itemLight).First()),
		}
		if e.Title != "" || e.Company != "" {
			out = append(out, e)
		}
		return len(out) < types.MaxExperienceEntries
	})
	return out
}

func educationItems(root *goquery.Selection) []types.EducationEntry {
	var out []types.EducationEntry
	sectionItems(root, educationAnchor).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		e := types.EducationEntry{
			School: nodeText(item.Find(itemBold).First()),
			Degree: nodeText(item.Find(itemNormal).First()),
		}
		if e.School != "" {
			out = append(out, e)
		}
		return len(out) < types.MaxEducationEntries
	})
	return out
}

// skillItems collects distinct skill names in page order.
func skillItems(root *goquery.Selection) []string {
	seen := make(map[string]struct{})
	var out []string
	root.Find(skillsAnchor).First().Parent().Find(itemBold).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		skill := nodeText(s)
		if skill == "" {
			return true
		}
		if _, dup := seen[skill]; !dup {
			seen[skill] = struct{}{}
			out = append(out, skill)
		}
		return len(out) < MaxSkills
	})
	return out
}

// splitAt splits a card or page headline on " at ". Without it, the whole headline is the title.
func splitAt(headline string) (title, company string) {
	if before, after, found := strings.Cut(headline, " at "); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return headline, ""
}
