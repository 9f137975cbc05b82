// Package metadata persists harvested records: a sidecar JSON next to each
// document, plus consolidated JSON and CSV exports for a whole run.
package metadata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/resume-harvester/internal/naming"
	"github.com/jonathan/resume-harvester/internal/scrape"
)

// Writer owns the metadata directory for consolidated exports. Sidecars land
// next to their documents and do not touch the metadata directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter builds a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Sidecar writes record as pretty JSON next to documentPath, swapping the
// document extension for .meta.json.
func Sidecar(documentPath string, record any) (string, error) {
	path := filepath.Join(filepath.Dir(documentPath), naming.MetadataFileName(filepath.Base(documentPath)))
	if err := writeJSON(path, record); err != nil {
		return "", err
	}
	return path, nil
}

// Candidates writes the consolidated candidate exports and returns the JSON
// and CSV paths.
func (w *Writer) Candidates(records []*scrape.Candidate) (jsonPath, csvPath string, err error) {
	stamp := w.now().Format("20060102_150405")

	jsonPath = filepath.Join(w.dir, "candidates_"+stamp+".json")
	if err = writeJSON(jsonPath, records); err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(w.dir, "candidates_"+stamp+".csv")
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{
		"canonical_id", "id_provenance", "navigation_id", "name",
		"created_date", "updated_date", "email", "phone",
		"position", "status", "experience", "work_eligibility", "document_url",
	})
	for _, c := range records {
		rows = append(rows, []string{
			strconv.FormatInt(c.CanonicalID.Value, 10),
			string(c.CanonicalID.Provenance),
			strconv.FormatInt(c.NavigationID, 10),
			c.Name,
			c.CreatedDate,
			c.UpdatedDate,
			c.Email,
			c.Phone,
			c.Position,
			c.Status,
			c.Experience,
			c.WorkEligibility,
			c.DocumentURL,
		})
	}
	if err = writeCSV(csvPath, rows); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

// Cases writes the consolidated case exports and returns the JSON and CSV
// paths.
func (w *Writer) Cases(records []*scrape.JobCase) (jsonPath, csvPath string, err error) {
	stamp := w.now().Format("20060102_150405")

	jsonPath = filepath.Join(w.dir, "cases_"+stamp+".json")
	if err = writeJSON(jsonPath, records); err != nil {
		return "", "", err
	}

	csvPath = filepath.Join(w.dir, "cases_"+stamp+".csv")
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{
		"canonical_id", "id_provenance", "navigation_id", "title", "company",
		"status", "created_date", "updated_date", "assigned_team", "drafter",
		"client_canonical_id", "connected_candidates", "contract_type",
	})
	for _, jc := range records {
		connected := ""
		for i, id := range jc.ConnectedCandidateIDs {
			if i > 0 {
				connected += ";"
			}
			connected += id.String()
		}
		rows = append(rows, []string{
			strconv.FormatInt(jc.CanonicalID.Value, 10),
			string(jc.CanonicalID.Provenance),
			strconv.FormatInt(jc.NavigationID, 10),
			jc.Title,
			jc.CompanyName,
			jc.Status,
			jc.CreatedDate,
			jc.UpdatedDate,
			jc.AssignedTeam,
			jc.DrafterName,
			strconv.FormatInt(jc.ClientCanonicalID, 10),
			connected,
			jc.ContractType,
		})
	}
	if err = writeCSV(csvPath, rows); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}
