package scrape

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The ERP renders dates as "Created : 06/12/2025" in label/value table cells.
var usDatePattern = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// labeledDate finds a table cell containing "<label> :" and returns the date
// next to it, normalized to YYYY-MM-DD. The raw document must be preferred by
// callers when available, because script execution can alter date widgets.
func labeledDate(doc *goquery.Document, label string) (string, bool) {
	found := ""
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if !strings.Contains(text, label+" :") && !strings.Contains(text, label+":") {
			return true
		}
		if iso, ok := normalizeDate(text); ok {
			found = iso
			return false
		}
		return true
	})
	return found, found != ""
}

// normalizeDate extracts the first date in text and converts it to the ISO
// calendar form. MM/DD/YYYY is the fixed external format; an already-ISO
// value passes through.
func normalizeDate(text string) (string, bool) {
	if m := usDatePattern.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[3], m[1], m[2]), true
	}
	if m := isoDatePattern.FindString(text); m != "" {
		return m, true
	}
	return "", false
}
