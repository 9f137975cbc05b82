// Package observability provides formatted console output for run summaries.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-harvester/internal/journal"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted terminal output.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs the end-of-run counters and the first few failures.
func (p *Printer) PrintRunSummary(j *journal.Journal) {
	if j == nil {
		return
	}
	stats := j.Stats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:          %s\n", j.RunID))
	sb.WriteString(fmt.Sprintf("Successful:   %d\n", stats.Successful))
	sb.WriteString(fmt.Sprintf("Skipped:      %d\n", stats.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:       %d\n", stats.Failed))
	sb.WriteString(fmt.Sprintf("Success rate: %.1f%%\n", stats.SuccessRate()))
	sb.WriteString(fmt.Sprintf("Bytes:        %d", stats.TotalBytes))

	p.printBox("Harvest Summary", sb.String())

	if errs := j.Errors(); len(errs) > 0 {
		var eb strings.Builder
		shown := errs
		if len(shown) > maxItemsToShow {
			shown = shown[:maxItemsToShow]
		}
		for i, e := range shown {
			if i > 0 {
				eb.WriteString("\n")
			}
			eb.WriteString(fmt.Sprintf("%s: %s", e.Subject, e.Message))
		}
		if len(errs) > maxItemsToShow {
			eb.WriteString(fmt.Sprintf("\n... and %d more", len(errs)-maxItemsToShow))
		}
		p.printBox(fmt.Sprintf("Failures (%d)", len(errs)), eb.String())
	}
}
