package types

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFull  string
		wantFirst string
		wantLast  string
	}{
		{"plain", "Jane Doe", "Jane Doe", "Jane", "Doe"},
		{"comma credential", "John A. Smith, CPA", "John A. Smith", "John", "A. Smith"},
		{"bare credential", "Maria Lopez MBA", "Maria Lopez", "Maria", "Lopez"},
		{"several credentials", "Ann Lee PMP, CFA", "Ann Lee", "Ann", "Lee"},
		{"credential prefix of a word is kept", "Priya MDavid", "Priya MDavid", "Priya", "MDavid"},
		{"single token", "Cher", "Cher", "Cher", ""},
		{"empty", "", "", "", ""},
		{"extra whitespace", "  Li   Wei  ", "Li Wei", "Li", "Wei"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full, first, last := SplitName(tt.raw)
			assert.Equal(t, tt.wantFull, full)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestSplitName_RoundTrip(t *testing.T) {
	for _, raw := range []string{"John A. Smith, CPA", "Mary Jane Watson", "Jean-Luc Picard PhD", "Ada Lovelace"} {
		full, first, last := SplitName(raw)
		require.NotEmpty(t, last, raw)
		assert.Equal(t, full, first+" "+last, raw)
	}
}

func TestProfileBuilder_Caps(t *testing.T) {
	b := NewProfileBuilder(SourcePage, time.Unix(0, 0))
	for i := 0; i < 15; i++ {
		b.AddExperience(ExperienceEntry{Title: "T", Company: "C"})
	}
	for i := 0; i < 8; i++ {
		b.AddEducation(EducationEntry{School: "S"})
	}
	b.Schools([]string{"a", "b", "c", "d"})
	b.Skills([]string{"1", "2", "3"}, 2)
	b.Headline(strings.Repeat("x", 300))

	p := b.Build()
	assert.Len(t, p.Experience, MaxExperienceEntries)
	assert.Len(t, p.Education, MaxEducationEntries)
	assert.Equal(t, "a | b | c", p.School)
	assert.Equal(t, "1, 2", p.Skills)
	assert.Len(t, p.Headline, MaxHeadlineChars)
}

func TestProfile_WithPDFLinkCopies(t *testing.T) {
	b := NewProfileBuilder(SourcePDF, time.Now())
	b.Name("Jane Doe")
	b.AddExperience(ExperienceEntry{Title: "Engineer", Company: "Acme"})
	original := b.Build()

	linked := original.WithPDFLink("https://drive.example/file")
	linked.Experience[0].Title = "Changed"

	assert.Empty(t, original.PDFLink)
	assert.Equal(t, "https://drive.example/file", linked.PDFLink)
	assert.Equal(t, "Engineer", original.Experience[0].Title)
}

func TestProfile_Key(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/in/jane", (&Profile{ProfileURL: "https://www.linkedin.com/in/jane", SourceDocument: "a.pdf"}).Key())
	assert.Equal(t, "file:a.pdf", (&Profile{SourceDocument: "a.pdf"}).Key())
	assert.Equal(t, "name:jane doe", (&Profile{FullName: "Jane Doe"}).Key())
}

func TestProfile_ExperienceSummary(t *testing.T) {
	p := &Profile{Experience: []ExperienceEntry{
		{Title: "Lead", Company: "Acme", Duration: "2021 - Present"},
		{Title: "Dev", Company: "Initech"},
	}}
	assert.Equal(t, "Lead @ Acme (2021 - Present) | Dev @ Initech", p.ExperienceSummary())
}

func TestProfile_IsPartial(t *testing.T) {
	var nilProfile *Profile
	assert.True(t, nilProfile.IsPartial())
	assert.True(t, (&Profile{}).IsPartial())
	assert.False(t, (&Profile{FirstName: "Jane"}).IsPartial())
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Jane_Doe_PhD", SanitizeFilename(`Jane Doe: "PhD"`))
	assert.Equal(t, "a_b", SanitizeFilename("  a / \\ b  "))
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 150)), 100)
}
