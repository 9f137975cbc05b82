package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Report renders the journal to a durable per-run report file under dir and
// returns its path. params echoes the command parameters the run was started
// with so the report is self-describing.
func (j *Journal) Report(dir string, params map[string]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("harvest_report_%s_%s.txt", j.StartedAt.Format("20060102_150405"), shortID(j.RunID.String()))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	sb.WriteString("ERP Harvest Report\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", j.RunID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", j.StartedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC3339)))

	if len(params) > 0 {
		sb.WriteString("Parameters:\n")
		for _, k := range sortedKeys(params) {
			sb.WriteString(fmt.Sprintf("  %s = %s\n", k, params[k]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(j.statsTable())
	sb.WriteString("\n\n")

	writeSubjectList(&sb, "Successful", j.stats.SucceededSubjects)
	writeSubjectList(&sb, "Skipped (already present)", j.stats.SkippedSubjects)
	writeSubjectList(&sb, "Failed", j.stats.FailedSubjects)
	writeEntryList(&sb, "Errors", j.Errors())
	writeEntryList(&sb, "Warnings", j.Warnings())

	if _, err := f.WriteString(sb.String()); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func (j *Journal) statsTable() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Successful", j.stats.Successful},
		{"Failed", j.stats.Failed},
		{"Skipped", j.stats.Skipped},
		{"Total", j.stats.Total()},
		{"Success rate", fmt.Sprintf("%.1f%%", j.stats.SuccessRate())},
		{"Bytes transferred", j.stats.TotalBytes},
	})
	return t.Render()
}

func writeSubjectList(sb *strings.Builder, title string, subjects []Subject) {
	if len(subjects) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s (%d):\n", title, len(subjects)))
	for _, s := range subjects {
		sb.WriteString("  - " + s.String() + "\n")
	}
	sb.WriteString("\n")
}

func writeEntryList(sb *strings.Builder, title string, entries []Entry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s (%d):\n", title, len(entries)))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("  [%s] %s: %s (%s)\n", e.Timestamp.Format("15:04:05"), e.Subject, e.Message, e.Category))
	}
	sb.WriteString("\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
