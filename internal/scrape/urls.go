package scrape

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-harvester/internal/identity"
)

// URL templates of the origin system, keyed by entity kind.

// ListURL returns the list page URL for a kind and 1-based page number.
func ListURL(baseURL string, kind identity.Kind, page int) string {
	base := strings.TrimRight(baseURL, "/")
	switch kind {
	case identity.KindCase:
		return fmt.Sprintf("%s/case/dispList/%d", base, page)
	default:
		return fmt.Sprintf("%s/searchcandidate/dispSearchList/%d", base, page)
	}
}

// DetailURL returns the detail page URL for a kind and navigation id.
func DetailURL(baseURL string, kind identity.Kind, navigationID int64) string {
	base := strings.TrimRight(baseURL, "/")
	switch kind {
	case identity.KindCase:
		return fmt.Sprintf("%s/case/dispEdit/%d", base, navigationID)
	case identity.KindClient:
		return fmt.Sprintf("%s/client/dispEdit/%d", base, navigationID)
	default:
		return fmt.Sprintf("%s/candidate/dispView/%d", base, navigationID)
	}
}

// DownloadURL returns the keyed document download URL.
func DownloadURL(baseURL, fileKey string) string {
	return fmt.Sprintf("%s/file/procDownload/%s", strings.TrimRight(baseURL, "/"), fileKey)
}
