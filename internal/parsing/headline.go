package parsing

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// headlineSeparators are tried in order; the first one present splits title from company.
var headlineSeparators = []string{" at ", " - ", " | "}

// splitHeadline derives title and company from a headline such as
// "Senior Engineer at Acme Corp | Tech". The company is cut at the first "|".
func splitHeadline(headline string) (title, company string) {
	for _, sep := range headlineSeparators {
		before, after, found := strings.Cut(headline, sep)
		if !found {
			continue
		}
		title = strings.TrimSpace(before)
		company, _, _ = strings.Cut(after, "|")
		return title, strings.TrimSpace(company)
	}
	return "", ""
}

var regionRe = regexp.MustCompile(`(?i)\b(Canada|USA|United States|Australia|UK|United Kingdom|India|Ontario|British Columbia|Alberta|Quebec|California|New York|Texas|Washington|Massachusetts|Area)\b`)

// findLocation scans a few lines after the headline for a "City, Region" line.
func findLocation(lines []string, headlineIdx, lookahead int, fold bool) string {
	stop := stopWords(fold, HeaderSummary, HeaderExperience)
	end := min(headlineIdx+1+lookahead, len(lines))
	for j := headlineIdx + 1; j < end; j++ {
		line := lines[j]
		if stop.Contains(line) {
			break
		}
		if isLocation(line) {
			return line
		}
	}
	return ""
}

func isLocation(line string) bool {
	return strings.Contains(line, ",") &&
		!strings.Contains(line, "(") &&
		utf8.RuneCountInString(line) < 60 &&
		regionRe.MatchString(line)
}
