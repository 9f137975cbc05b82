package metadata

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-harvester/internal/scrape"
)

func sampleCandidate() *scrape.Candidate {
	return &scrape.Candidate{
		CanonicalID:  scrape.Resolved(984174),
		NavigationID: 4120,
		Name:         "Jane Smith",
		CreatedDate:  "2025-06-12",
		Email:        "jane@example.com",
		DocumentURL:  "https://erp.example.com/file/procDownload/a1b2c3",
	}
}

func TestSidecarNextToDocument(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "[Resume-984174] Jane Smith.pdf")

	path, err := Sidecar(docPath, sampleCandidate())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "[Resume-984174] Jane Smith.meta.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got scrape.Candidate
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Jane Smith", got.Name)
	assert.Equal(t, scrape.ProvenanceResolved, got.CanonicalID.Provenance)
}

func TestConsolidatedCandidates(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	w.now = func() time.Time { return time.Date(2025, 6, 12, 10, 30, 0, 0, time.UTC) }

	jsonPath, csvPath, err := w.Candidates([]*scrape.Candidate{sampleCandidate()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "candidates_20250612_103000.json"), jsonPath)
	assert.Equal(t, filepath.Join(dir, "candidates_20250612_103000.csv"), csvPath)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "canonical_id", rows[0][0])
	assert.Equal(t, "984174", rows[1][0])
	assert.Equal(t, "resolved", rows[1][1])
	assert.Equal(t, "Jane Smith", rows[1][3])
}

func TestConsolidatedCases(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	jc := &scrape.JobCase{
		CanonicalID:           scrape.Resolved(12345),
		NavigationID:          88,
		Title:                 "Backend Engineer",
		CompanyName:           "Acme Corp",
		ClientCanonicalID:     501,
		ConnectedCandidateIDs: []scrape.ID{scrape.Resolved(984174), scrape.Fallback(4121)},
	}

	jsonPath, csvPath, err := w.Cases([]*scrape.JobCase{jc})
	require.NoError(t, err)
	assert.FileExists(t, jsonPath)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "984174;4121", rows[1][11])
}
