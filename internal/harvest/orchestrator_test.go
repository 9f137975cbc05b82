package harvest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-harvester/internal/config"
	"github.com/jonathan/resume-harvester/internal/identity"
	"github.com/jonathan/resume-harvester/internal/session"
)

// fakeClient serves canned pages by URL and writes a fixed payload for
// download requests.
type fakeClient struct {
	pages    map[string]string
	getErrs  map[string]error
	payload  []byte
	loginErr error
	rawErr   error

	logins    int
	downloads int
	closed    bool
}

func (f *fakeClient) Login(context.Context) error {
	f.logins++
	return f.loginErr
}

func (f *fakeClient) Get(_ context.Context, url string) (*session.Page, error) {
	if err, ok := f.getErrs[url]; ok {
		return nil, err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, &session.RequestError{URL: url, Message: "no canned page"}
	}
	return &session.Page{URL: url, HTML: html, StatusCode: 200}, nil
}

func (f *fakeClient) GetRaw(ctx context.Context, url string) (*session.Page, error) {
	if f.rawErr != nil {
		return nil, f.rawErr
	}
	return f.Get(ctx, url)
}

func (f *fakeClient) Post(_ context.Context, url string, _ map[string]string) (*session.Page, error) {
	return nil, &session.RequestError{URL: url, Message: "unexpected post"}
}

func (f *fakeClient) DownloadStream(_ context.Context, _ string, destination string) error {
	f.downloads++
	return os.WriteFile(destination, f.payload, 0o644)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := &config.Config{
		BaseURL:         "https://erp.example.com",
		Username:        "u",
		Password:        "p",
		SessionTimeout:  30 * time.Minute,
		ResumesDir:      filepath.Join(base, "resumes"),
		MetadataDir:     filepath.Join(base, "metadata"),
		ResultsDir:      filepath.Join(base, "results"),
		LogsDir:         filepath.Join(base, "logs"),
		PageLoadTimeout: time.Second,
		DownloadTimeout: time.Second,
		MaxRetries:      2,
		RetryDelay:      0,
		RequestDelay:    0,
		PageDelay:       0,
		ItemsPerPage:    20,
		CandidateOffset: 979174,
		ShardUnit:       1000,
		LogLevel:        "info",
		LogFormat:       "text",
	}
	require.NoError(t, cfg.CreateDirectories())
	return cfg
}

func candidatePage(navID, canonicalID int64, name string) string {
	return fmt.Sprintf(`<html><head><title>Candidate - %s</title></head><body>
<input type="hidden" id="cdd" value="%d">
<h2>%d - %s</h2>
<table><tr><td>Created : 06/12/2025</td><td>x</td></tr></table>
<button onclick="downloadFile('key%d')">Download resume</button>
</body></html>`, name, canonicalID, navID, name, navID)
}

func pdfPayload() []byte {
	return []byte("%PDF-1.7 test payload")
}

func TestRunFullCrawl(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		payload: pdfPayload(),
		pages: map[string]string{
			"https://erp.example.com/searchcandidate/dispSearchList/1": `<html><body><table>
<tr><th>No</th><th>Name</th></tr>
<tr onclick="location.href='/candidate/dispView/4120'"><td>4120</td><td>Jane Smith</td></tr>
<tr onclick="location.href='/candidate/dispView/4121'"><td>4121</td><td>John Doe</td></tr>
</table></body></html>`,
			"https://erp.example.com/candidate/dispView/4120": candidatePage(4120, 983294, "Jane Smith"),
			"https://erp.example.com/candidate/dispView/4121": candidatePage(4121, 983295, "John Doe"),
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{Kind: identity.KindCandidate, Mode: ModeFullCrawl})

	require.NoError(t, err)
	assert.Equal(t, 1, client.logins)
	assert.True(t, client.closed)

	stats := o.Journal().Stats()
	assert.Equal(t, 2, stats.Successful)
	assert.Zero(t, stats.Failed)

	// Documents land in shard buckets keyed by canonical id.
	doc := filepath.Join(cfg.ResumesDir, "983000-983999", "[Resume-983294] Jane Smith.pdf")
	assert.FileExists(t, doc)
	assert.FileExists(t, filepath.Join(cfg.ResumesDir, "983000-983999", "[Resume-983294] Jane Smith.meta.json"))

	// The report and consolidated exports are always written.
	reports, err := filepath.Glob(filepath.Join(cfg.ResultsDir, "harvest_report_*.txt"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
	exports, err := filepath.Glob(filepath.Join(cfg.MetadataDir, "candidates_*.json"))
	require.NoError(t, err)
	assert.Len(t, exports, 1)
}

func TestRunByIDs(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		payload: pdfPayload(),
		pages: map[string]string{
			"https://erp.example.com/candidate/dispView/4120": candidatePage(4120, 983294, "Jane Smith"),
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCandidate,
		Mode:          ModeIDs,
		NavigationIDs: []int64{4120},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, o.Journal().Stats().Successful)
	assert.Equal(t, 1, client.downloads)
}

func TestRunEntityFailureDoesNotAbort(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		payload: pdfPayload(),
		pages: map[string]string{
			"https://erp.example.com/candidate/dispView/4121": candidatePage(4121, 983295, "John Doe"),
		},
		getErrs: map[string]error{
			"https://erp.example.com/candidate/dispView/4120": &session.RequestError{URL: "x", Message: "boom"},
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCandidate,
		Mode:          ModeIDs,
		NavigationIDs: []int64{4120, 4121},
	})

	require.NoError(t, err)
	stats := o.Journal().Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Successful)
}

func TestRunAuthFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		payload: pdfPayload(),
		getErrs: map[string]error{
			"https://erp.example.com/candidate/dispView/4120": &session.RequestError{
				URL: "x", Message: "stale", Cause: session.ErrSessionUnavailable,
			},
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCandidate,
		Mode:          ModeIDs,
		NavigationIDs: []int64{4120, 4121},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrSessionUnavailable))
	assert.True(t, client.closed, "session must close even on abort")

	// The report is still written on an aborted run.
	reports, globErr := filepath.Glob(filepath.Join(cfg.ResultsDir, "harvest_report_*.txt"))
	require.NoError(t, globErr)
	assert.Len(t, reports, 1)
}

func TestRunLoginFailure(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{loginErr: &session.AuthError{Message: "bad credentials"}}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{Kind: identity.KindCandidate, Mode: ModeFullCrawl})

	require.Error(t, err)
	var ae *session.AuthError
	assert.True(t, errors.As(err, &ae))
	assert.True(t, client.closed)
}

func TestRunIdentityMismatchWarns(t *testing.T) {
	cfg := testConfig(t)
	// Canonical id far outside offset tolerance.
	client := &fakeClient{
		payload: pdfPayload(),
		pages: map[string]string{
			"https://erp.example.com/candidate/dispView/4120": candidatePage(4120, 500000, "Jane Smith"),
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCandidate,
		Mode:          ModeIDs,
		NavigationIDs: []int64{4120},
	})

	require.NoError(t, err)
	warned := false
	for _, e := range o.Journal().Warnings() {
		if e.Category == "identity" {
			warned = true
		}
	}
	assert.True(t, warned, "inconsistent canonical id must be journaled")
}

func TestRunRawFetchFailureFallsBackWithWarning(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		payload: pdfPayload(),
		pages: map[string]string{
			"https://erp.example.com/candidate/dispView/4120": candidatePage(4120, 983294, "Jane Smith"),
		},
		rawErr: &session.RequestError{URL: "x", Message: "raw fetch refused"},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCandidate,
		Mode:          ModeIDs,
		NavigationIDs: []int64{4120},
	})

	require.NoError(t, err)
	stats := o.Journal().Stats()
	assert.Equal(t, 1, stats.Successful, "rendered markup must still yield the entity")

	warned := false
	for _, e := range o.Journal().Warnings() {
		if strings.Contains(e.Message, "raw document unavailable") {
			warned = true
		}
	}
	assert.True(t, warned, "falling back to rendered markup must be journaled as a warning")
}

func TestRunCaseKind(t *testing.T) {
	cfg := testConfig(t)
	client := &fakeClient{
		pages: map[string]string{
			"https://erp.example.com/case/dispEdit/88": `<html><head><title>Acme Corp - Backend Engineer</title></head><body>
<input type="hidden" name="caseNo" value="12345">
<table><tr><td>Created : 03/05/2025</td><td>x</td></tr></table>
<a href="/client/dispEdit/501">Acme Corp</a>
</body></html>`,
		},
	}

	o := New(cfg, client)
	err := o.Run(context.Background(), Options{
		Kind:          identity.KindCase,
		Mode:          ModeIDs,
		NavigationIDs: []int64{88},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, o.Journal().Stats().Successful)
	assert.FileExists(t, filepath.Join(cfg.MetadataDir, "12000-12999", "[Case-12345] Acme Corp - Backend Engineer.meta.json"))

	exports, globErr := filepath.Glob(filepath.Join(cfg.MetadataDir, "cases_*.json"))
	require.NoError(t, globErr)
	assert.Len(t, exports, 1)
}
