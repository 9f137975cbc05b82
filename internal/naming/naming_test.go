package naming

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Sang Youn HAN", "Sang Youn HAN"},
		{`bad<>:"/\|?*chars`, "badchars"},
		{"  trimmed.  ", "trimmed"},
		{"multi   space", "multi space"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), "input %q", tc.in)
	}
}

func TestSanitize_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("a", 300)
	assert.Len(t, Sanitize(long), 200)
}

func TestSanitize_TruncationIsRuneSafe(t *testing.T) {
	long := strings.Repeat("한", 300)
	got := Sanitize(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 200, utf8.RuneCountInString(got))
}

func TestResumeFileName(t *testing.T) {
	assert.Equal(t, "[Resume-1044760] Sang Youn HAN.pdf", ResumeFileName(1044760, "Sang Youn HAN", "pdf"))
	assert.Equal(t, "[Resume-1044760] Sang Youn HAN.pdf", ResumeFileName(1044760, "Sang Youn HAN", ".pdf"))
	assert.Equal(t, "[Resume-7] Unknown.docx", ResumeFileName(7, "", "docx"))
}

func TestCaseFileName(t *testing.T) {
	assert.Equal(t, "[Case-65585] Acme Corp - Senior Engineer.json", CaseFileName(65585, "Acme Corp", "Senior Engineer", "json"))
	assert.Equal(t, "[Case-1] Unknown - Untitled.json", CaseFileName(1, "", "", "json"))
}

func TestMetadataFileName(t *testing.T) {
	assert.Equal(t, "[Resume-1] Jane.meta.json", MetadataFileName("[Resume-1] Jane.pdf"))
	assert.Equal(t, "noext.meta.json", MetadataFileName("noext"))
}
