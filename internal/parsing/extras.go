package parsing

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/profile-scraper/internal/types"
)

// findSkills keeps short lines after the skills header until the next section.
func findSkills(lines []string, skillsIdx, window, limit int, fold bool) []string {
	if skillsIdx == types.NotFound {
		return nil
	}
	return types.TakeUpTo(lines, types.Window{
		Start: skillsIdx + 1,
		Size:  window,
		Limit: limit,
		Stop: stopWords(fold, HeaderLanguages, HeaderCertifications, HeaderExperience,
			HeaderEducation, HeaderSummary, HeaderHonors),
	}, types.Keep(func(line string) bool {
		n := utf8.RuneCountInString(line)
		return n >= 2 && n < 50
	}))
}

// findSummary joins the lines after the summary header into one paragraph.
func findSummary(lines []string, summaryIdx, window int) string {
	if summaryIdx == types.NotFound {
		return ""
	}
	parts := types.TakeUpTo(lines, types.Window{
		Start: summaryIdx + 1,
		Size:  window,
		Stop:  types.NewFoldedStopWords(HeaderExperience, HeaderEducation, HeaderSkills),
	}, types.Keep(func(string) bool { return true }))
	return strings.Join(parts, " ")
}

// findCertifications reads the certifications sidebar. The scan never runs into the
// name line, which follows the sidebar in exported documents.
func findCertifications(lines []string, certIdx, nameIdx, window int) []string {
	if certIdx == types.NotFound {
		return nil
	}
	if nameIdx > certIdx {
		window = min(window, nameIdx-certIdx-1)
	}
	return types.TakeUpTo(lines, types.Window{
		Start: certIdx + 1,
		Size:  window,
		Limit: types.MaxCertifications,
		Stop: types.NewFoldedStopWords(HeaderSkills, HeaderTopSkills, HeaderEducation,
			HeaderExperience, HeaderLanguages, HeaderSummary, HeaderHonors),
	}, types.Keep(func(line string) bool {
		return utf8.RuneCountInString(line) > 3
	}))
}
