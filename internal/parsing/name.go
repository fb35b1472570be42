package parsing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/profile-scraper/internal/platform"
	"github.com/jonathan/profile-scraper/internal/types"
)

// nameSkip lists header lines that are never names even though they are capitalized.
var nameSkip = []string{
	HeaderSummary, HeaderExperience, HeaderEducation, HeaderSkills, HeaderTopSkills,
	HeaderContact, HeaderLanguages, HeaderCertifications, HeaderHonors, HeaderPublications,
}

// nameSearchStart returns the first line that may hold the name. Exported documents put
// the certifications and languages sidebar before the name, so the scan starts after
// whichever of the two comes last.
func nameSearchStart(s sections) int {
	start := max(s.certifications, s.languages)
	if start == types.NotFound {
		return 0
	}
	return start + 1
}

// findName returns the index of the first name-like line in the window, or types.NotFound.
func findName(lines []string, start, window int, fold bool) int {
	skip := stopWords(fold, nameSkip...)
	end := min(start+window, len(lines))
	for i := start; i < end; i++ {
		if !skip.Contains(lines[i]) && looksLikeName(lines[i]) {
			return i
		}
	}
	return types.NotFound
}

// looksLikeName accepts 2 to 4 capitalized tokens without digits, URLs, or parentheses.
// A trailing credential (", CPA") is tolerated because it is stripped later.
func looksLikeName(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < 4 || n > 50 {
		return false
	}
	lower := strings.ToLower(line)
	if strings.ContainsAny(line, "(@") || strings.Contains(lower, "www.") || strings.Contains(lower, platform.PlatformName) {
		return false
	}
	if strings.ContainsFunc(line, unicode.IsDigit) {
		return false
	}

	tokens := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for _, tok := range tokens {
		r, _ := utf8.DecodeRuneInString(tok)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
