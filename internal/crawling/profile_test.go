package crawling

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-scraper/internal/types"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := ParseHTML(html, "https://www.linkedin.com/in/test")
	require.NoError(t, err)
	return doc
}

const fullProfileHTML = `
<html>
<head><title>Jane Doe | LinkedIn</title></head>
<body>
  <h1 class="text-heading-xlarge">  Jane   Doe </h1>
  <div class="text-body-medium break-words">Staff Engineer at Initech</div>
  <span class="text-body-small inline t-black--light break-words">Toronto, Ontario, Canada</span>
  <section>
    <div id="about"></div>
    <div class="display-flex"><div class="inline-show-more-text">Builds things.</div></div>
  </section>
  <section>
    <div id="experience"></div>
    <ul>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Staff Engineer</span></div>
        <div class="t-normal"><span aria-hidden="true">Initech</span></div>
        <div class="t-black--light"><span aria-hidden="true">2021 - Present</span></div>
      </li>
      <li class="artdeco-list__item"><div class="t-black--light"><span aria-hidden="true">only a date</span></div></li>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">Engineer</span></div>
        <div class="t-normal"><span aria-hidden="true">Globex</span></div>
      </li>
    </ul>
  </section>
  <section>
    <div id="education"></div>
    <ul>
      <li class="artdeco-list__item">
        <div class="t-bold"><span aria-hidden="true">University of Toronto</span></div>
        <div class="t-normal"><span aria-hidden="true">BSc, Computer Science</span></div>
      </li>
      <li class="artdeco-list__item"><div class="t-normal"><span aria-hidden="true">No school</span></div></li>
    </ul>
  </section>
  <section>
    <div id="skills"></div>
    <div class="t-bold"><span aria-hidden="true">Go</span></div>
    <div class="t-bold"><span aria-hidden="true">Kubernetes</span></div>
    <div class="t-bold"><span aria-hidden="true">Go</span></div>
  </section>
</body>
</html>`

func TestExtractProfile_FullPage(t *testing.T) {
	Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { Now = time.Now }()

	p := ExtractProfile(mustDoc(t, fullProfileHTML), "https://www.linkedin.com/in/jane-doe/?trk=x")
	require.NotNil(t, p)

	assert.Equal(t, "Jane Doe", p.FullName)
	assert.Equal(t, "Jane", p.FirstName)
	assert.Equal(t, "Doe", p.LastName)
	assert.Equal(t, "Staff Engineer at Initech", p.Headline)
	assert.Equal(t, "Toronto, Ontario, Canada", p.Location)
	assert.Equal(t, "Builds things.", p.About)
	assert.Equal(t, "Staff Engineer", p.Title)
	assert.Equal(t, "Initech", p.Company)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", p.ProfileURL)
	assert.Equal(t, types.SourcePage, p.Source)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), p.ExtractedAt)

	assert.Equal(t, []types.ExperienceEntry{
		{Title: "Staff Engineer", Company: "Initech", Duration: "2021 - Present"},
		{Title: "Engineer", Company: "Globex"},
	}, p.Experience)
	assert.Equal(t, []types.EducationEntry{{School: "University of Toronto", Degree: "BSc, Computer Science"}}, p.Education)
	assert.Equal(t, "University of Toronto", p.School)
	assert.Equal(t, "Go, Kubernetes", p.Skills)
}

func TestExtractProfile_EmptyPageIsPartialNotError(t *testing.T) {
	p := ExtractProfile(mustDoc(t, `<html><body><p>nothing here</p></body></html>`), "https://www.linkedin.com/in/x")
	require.NotNil(t, p)
	assert.Equal(t, SentinelName, p.FullName)
	assert.Empty(t, p.Headline)
	assert.Empty(t, p.Experience)
	assert.Empty(t, p.Skills)
}

func TestExtractProfile_NameFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"later selector", `<div class="artdeco-entity-lockup__title">Sam Rivera</div>`, "Sam Rivera"},
		{"title", `<title>Sam Rivera | LinkedIn</title>`, "Sam Rivera"},
		{"title rejecting platform name", `<title>LinkedIn Login | LinkedIn</title>`, SentinelName},
		{"overlong candidate skipped", `<h1 class="text-heading-xlarge">` + strings.Repeat("x", 120) + `</h1><title>Ann Lee | LinkedIn</title>`, "Ann Lee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ExtractProfile(mustDoc(t, "<html>"+tt.html+"</html>"), "")
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.FullName)
		})
	}
}

func TestExtractProfile_CapsExperienceAndSkills(t *testing.T) {
	var items, skills strings.Builder
	for i := 0; i < 14; i++ {
		fmt.Fprintf(&items, `<li class="artdeco-list__item"><div class="t-bold"><span aria-hidden="true">Role %d</span></div></li>`, i)
	}
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&skills, `<div class="t-bold"><span aria-hidden="true">Skill %d</span></div>`, i)
	}
	html := `<html><body><section><div id="experience"></div><ul>` + items.String() +
		`</ul></section><section><div id="skills"></div>` + skills.String() + `</section></body></html>`

	p := ExtractProfile(mustDoc(t, html), "")
	require.NotNil(t, p)
	assert.Len(t, p.Experience, types.MaxExperienceEntries)
	assert.Len(t, strings.Split(p.Skills, ", "), MaxSkills)
}

func TestExtractProfile_HeadlineSplitWithoutExperience(t *testing.T) {
	html := `<html><body><div class="text-body-medium break-words">Founder at Globex</div></body></html>`
	p := ExtractProfile(mustDoc(t, html), "")
	assert.Equal(t, "Founder", p.Title)
	assert.Equal(t, "Globex", p.Company)
}

func TestFirstText_PriorityOrder(t *testing.T) {
	doc := mustDoc(t, `<html><body><p class="b">second</p><p class="a">first</p><p class="c"></p></body></html>`)
	root := doc.Selection

	assert.Equal(t, "first", FirstText(root, Selectors(".missing", ".a", ".b")...))
	assert.Equal(t, "second", FirstText(root, Selectors(".c", ".b")...))
	assert.Equal(t, "", FirstText(root, Selectors(".c", ".missing")...))
	assert.Equal(t, "second", FirstText(root, Bounded(5, 100, Selectors(".a", ".b")...)...))
}
