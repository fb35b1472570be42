package parsing

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/profile-scraper/internal/types"
)

// dateRangeRe matches "2019 - Present", "Jan 2019 - Mar 2021" and "2015 - 2018",
// with a hyphen or en dash. Group 2 is the start year.
var dateRangeRe = regexp.MustCompile(`(\w+\s+)?(\d{4})\s*[-–]\s*(Present|\w+\s+\d{4}|\d{4})`)

var pageFooterRe = regexp.MustCompile(`^Page\s+\d+\s+of\s+\d+$`)

// job is one dated experience row found in the experience section.
type job struct {
	title     string
	company   string
	dateLine  string
	startYear int
	current   bool
}

// findJobs walks the experience section and returns dated rows, current jobs first and
// then by start year, latest first. Rows are laid out as company, title, date range.
func findJobs(lines []string, expIdx, eduIdx int) []job {
	if expIdx == types.NotFound {
		return nil
	}
	end := len(lines)
	if eduIdx > expIdx {
		end = eduIdx
	}

	var jobs []job
	for i := expIdx + 2; i < end && len(jobs) < types.MaxExperienceEntries; i++ {
		m := dateRangeRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		company := lines[i-2]
		if isPlaceholderCompany(company) {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		jobs = append(jobs, job{
			title:     lines[i-1],
			company:   company,
			dateLine:  lines[i],
			startYear: year,
			current:   strings.Contains(lines[i], "Present"),
		})
	}

	sort.SliceStable(jobs, func(a, b int) bool {
		if jobs[a].current != jobs[b].current {
			return jobs[a].current
		}
		return jobs[a].startYear > jobs[b].startYear
	})
	return jobs
}

func isPlaceholderCompany(s string) bool {
	switch s {
	case "", HeaderExperience, "Page":
		return true
	}
	return pageFooterRe.MatchString(s)
}

// isDescriptiveCompany reports whether a headline-derived company looks like a tagline
// rather than an employer name.
func isDescriptiveCompany(company string) bool {
	if company == "" || utf8.RuneCountInString(company) > 50 {
		return true
	}
	for _, word := range []string{"Aspiring", "Student", "Professional"} {
		if strings.Contains(company, word) {
			return true
		}
	}
	return false
}
