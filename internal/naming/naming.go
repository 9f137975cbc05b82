// Package naming builds filesystem-safe artifact names for harvested records.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 200

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
var repeatedSpace = regexp.MustCompile(`\s+`)

// Sanitize strips characters that are unsafe in filenames and collapses
// whitespace. The result is trimmed to a length Windows still accepts;
// truncation happens on rune boundaries so multi-byte names stay valid.
func Sanitize(name string) string {
	name = invalidChars.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " ._")
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

// ResumeBaseName renders the bracketed resume template without extension:
// "[Resume-{canonicalId}] {name}". The extension is appended once the
// document type is known.
func ResumeBaseName(canonicalID int64, name string) string {
	name = Sanitize(name)
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("[Resume-%d] %s", canonicalID, name)
}

// ResumeFileName renders "[Resume-{canonicalId}] {name}.{ext}".
func ResumeFileName(canonicalID int64, name, ext string) string {
	return ResumeBaseName(canonicalID, name) + "." + strings.TrimPrefix(ext, ".")
}

// CaseBaseName renders the bracketed case template without extension:
// "[Case-{canonicalId}] {company} - {title}".
func CaseBaseName(canonicalID int64, company, title string) string {
	company = Sanitize(company)
	if company == "" {
		company = "Unknown"
	}
	title = Sanitize(title)
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("[Case-%d] %s - %s", canonicalID, company, title)
}

// CaseFileName renders "[Case-{canonicalId}] {company} - {title}.{ext}".
func CaseFileName(canonicalID int64, company, title, ext string) string {
	return CaseBaseName(canonicalID, company, title) + "." + strings.TrimPrefix(ext, ".")
}

// MetadataFileName derives the sidecar metadata name from a document name by
// swapping the extension for .meta.json.
func MetadataFileName(documentName string) string {
	if i := strings.LastIndex(documentName, "."); i > 0 {
		documentName = documentName[:i]
	}
	return documentName + ".meta.json"
}
