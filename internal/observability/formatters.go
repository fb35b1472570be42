// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jonathan/profile-scraper/internal/bulk"
	"github.com/jonathan/profile-scraper/internal/pipeline"
	"github.com/jonathan/profile-scraper/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return types.Truncate(s, n-3) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", inner, clip(line, inner))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// field writes "Label:  value" when value is set.
func field(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%-10s%s\n", label+":", value)
}

// PrintProfile outputs a human-readable summary of an extracted profile.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	field(&sb, "Name", profile.FullName)
	field(&sb, "Headline", profile.Headline)
	field(&sb, "Title", profile.Title)
	field(&sb, "Company", profile.Company)
	field(&sb, "Location", profile.Location)
	field(&sb, "School", profile.School)
	field(&sb, "Degree", profile.Degree)
	field(&sb, "Skills", profile.Skills)
	field(&sb, "URL", profile.ProfileURL)
	field(&sb, "Source", string(profile.Source))

	if len(profile.Experience) > 0 {
		sb.WriteString("\nExperience:\n")
		count := min(len(profile.Experience), maxItemsToShow)
		for _, e := range profile.Experience[:count] {
			fmt.Fprintf(&sb, "  • %s @ %s", e.Title, e.Company)
			if e.Duration != "" {
				fmt.Fprintf(&sb, " (%s)", e.Duration)
			}
			sb.WriteString("\n")
		}
		if len(profile.Experience) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(profile.Experience)-maxItemsToShow)
		}
	}

	if len(profile.Education) > 0 {
		sb.WriteString("\nEducation:\n")
		for _, e := range profile.Education {
			sb.WriteString("  • " + e.School)
			if e.Degree != "" {
				sb.WriteString(", " + e.Degree)
			}
			sb.WriteString("\n")
		}
	}

	title := "PARSED PROFILE"
	if profile.IsPartial() {
		title += " " + types.ItemPartial.Icon() + " (no first name)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the per-file outcome of a queue run.
func (p *Printer) PrintSummary(sum *pipeline.Summary) {
	if sum == nil {
		return
	}

	var sb strings.Builder
	for _, f := range sum.Files {
		line := fmt.Sprintf("%s %s", f.Status.Icon(), filepath.Base(f.Path))
		switch {
		case f.Err != nil:
			line += "  " + f.Err.Error()
		case f.Profile != nil:
			line += "  " + f.Profile.FullName
		}
		sb.WriteString(line + "\n")
	}
	if skipped := sum.Total - len(sum.Files); skipped > 0 {
		fmt.Fprintf(&sb, "… %d not processed\n", skipped)
	}
	sb.WriteString("\n" + sum.Message)

	p.printBox("RUN SUMMARY", strings.TrimPrefix(sb.String(), "\n"))
}

// PrintBulkResult outputs the counters of a finished traversal.
func (p *Printer) PrintBulkResult(res *bulk.Result) {
	if res == nil {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "State:     %s\n", res.State)
	fmt.Fprintf(&sb, "Found:     %d\n", res.Total)
	fmt.Fprintf(&sb, "Attempted: %d\n", res.Attempted)
	fmt.Fprintf(&sb, "%s Saved:   %d\n", types.ItemSuccess.Icon(), res.Succeeded)
	fmt.Fprintf(&sb, "%s Failed:  %d", types.ItemFailed.Icon(), res.Failed)
	p.printBox("BULK RUN", sb.String())
}

// PrintEvent writes one traversal event as a single line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(e bulk.Event) {
	switch e.Type {
	case bulk.EventProgress:
		fmt.Fprintf(p.out, "[%d/%d] saved\n", e.Current, e.Total)
	case bulk.EventComplete:
		fmt.Fprintf(p.out, "%s %s\n", types.ItemSuccess.Icon(), e.Message)
	case bulk.EventError:
		fmt.Fprintf(p.out, "%s %s\n", types.ItemFailed.Icon(), e.Message)
	case bulk.EventStopped:
		fmt.Fprintf(p.out, "■ %s\n", e.Message)
	default:
		if e.Severity == types.SeverityWarning {
			fmt.Fprintf(p.out, "%s %s\n", types.ItemPartial.Icon(), e.Message)
			return
		}
		fmt.Fprintln(p.out, e.Message)
	}
}

// PrintProgress writes one queue progress line. The summary event is skipped; use
// PrintSummary for it.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(e pipeline.ProgressEvent) {
	if e.Step == pipeline.StepSummary {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", e.Icon, e.Message)
}
