package ingestion

import "strings"

// CleanText normalizes linearized document text: line endings become LF, non-breaking
// spaces become spaces, each line is trimmed with inner whitespace runs collapsed, and
// blank lines are dropped.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = cleanLine(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// cleanLine trims a line and collapses runs of whitespace to one space.
func cleanLine(line string) string {
	return strings.Join(strings.Fields(line), " ")
}
