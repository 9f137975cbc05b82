package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var downloadKeyPattern = regexp.MustCompile(`downloadFile\('([^']+)'\)`)
var nameShapedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-zA-Z]*)+\b`)

// DetailParser extracts full records from detail pages. Each field runs its
// own fallback chain, so one failed extractor never blocks the others.
type DetailParser struct {
	baseURL string
}

// NewDetailParser builds a detail parser resolving relative document links
// against baseURL.
func NewDetailParser(baseURL string) *DetailParser {
	return &DetailParser{baseURL: strings.TrimRight(baseURL, "/")}
}

// ParseCandidate builds a Candidate from a rendered detail document, reading
// dates from rawDoc first when it is available. Missing required fields come
// back as warnings for the caller's journal, never as errors.
func (p *DetailParser) ParseCandidate(doc *goquery.Document, navigationID int64, rawDoc *goquery.Document) (*Candidate, []Warning) {
	var warnings []Warning

	c := &Candidate{
		NavigationID: navigationID,
	}

	if canonical, ok := contentCanonicalID(doc); ok {
		c.CanonicalID = Resolved(canonical)
	} else {
		c.CanonicalID = Fallback(navigationID)
		warnings = append(warnings, Warning{Field: "canonicalId", Message: "no canonical id in page content, using navigation id"})
	}

	if name, ok := candidateName(doc); ok {
		c.Name = name
	} else {
		warnings = append(warnings, Warning{Field: "name", Message: "no name extraction strategy succeeded"})
	}

	created, updated, dateWarnings := p.dates(doc, rawDoc)
	c.CreatedDate = created
	c.UpdatedDate = updated
	warnings = append(warnings, dateWarnings...)

	c.Email = tableValue(doc, "E-Mail")
	c.Phone = tableValue(doc, "Phone")
	c.Position = tableValue(doc, "Current Position Title")
	c.Status = tableValue(doc, "Status")
	c.Experience = tableValue(doc, "Experience Year")
	c.WorkEligibility = tableValue(doc, "Work Eligibility")

	if docURL, ok := p.documentURL(doc); ok {
		c.DocumentURL = docURL
	}

	return c, warnings
}

// dates reads Created/Last Updated, preferring the raw document because the
// rendered one can disagree after script execution.
func (p *DetailParser) dates(doc, rawDoc *goquery.Document) (string, string, []Warning) {
	var warnings []Warning

	source := rawDoc
	if source == nil {
		source = doc
		warnings = append(warnings, Warning{Field: "dates", Message: "raw document unavailable, dates read from rendered markup"})
	}

	created, ok := labeledDate(source, "Created")
	if !ok && source != doc {
		created, ok = labeledDate(doc, "Created")
	}
	if !ok {
		warnings = append(warnings, Warning{Field: "createdDate", Message: "no date extraction strategy succeeded"})
	}

	updated, ok := labeledDate(source, "Last Updated")
	if !ok && source != doc {
		updated, ok = labeledDate(doc, "Last Updated")
	}
	if !ok {
		warnings = append(warnings, Warning{Field: "updatedDate", Message: "no date extraction strategy succeeded"})
	}

	return created, updated, warnings
}

// contentCanonicalID reads the canonical id the page itself asserts, kept in
// a hidden input by every known release.
func contentCanonicalID(doc *goquery.Document) (int64, bool) {
	for _, sel := range []string{"input#cdd", "input[name=cdd]", "input#caseNo", "input[name=caseNo]"} {
		if v, ok := doc.Find(sel).First().Attr("value"); ok {
			if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

// candidateName runs the name fallback chain: section header, document
// title, labeled table cell, then a loose scan for name-shaped tokens.
func candidateName(doc *goquery.Document) (string, bool) {
	if h2 := strings.TrimSpace(doc.Find("h2").First().Text()); h2 != "" {
		if _, after, found := strings.Cut(h2, " - "); found {
			if name := strings.TrimSpace(after); name != "" {
				return name, true
			}
		}
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		if _, after, found := strings.Cut(title, " - "); found {
			if name := strings.TrimSpace(after); name != "" {
				return name, true
			}
		}
	}

	if name := tableValue(doc, "Name"); name != "" {
		return name, true
	}

	found := ""
	doc.Find("h1, h2, h3, strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := nameShapedPattern.FindString(s.Text()); m != "" {
			found = m
			return false
		}
		return true
	})
	return found, found != ""
}

// tableValue finds a th whose text contains header and returns the adjacent
// td, the label/value layout the ERP uses throughout.
func tableValue(doc *goquery.Document, header string) string {
	value := ""
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return true
		}
		if !strings.Contains(strings.TrimSpace(th.Text()), header) {
			return true
		}
		value = strings.TrimSpace(td.Text())
		return false
	})
	return value
}

// documentURL locates the resume download reference: a download button's
// inline action first, then direct file links under the resume section, then
// any download action on the page.
func (p *DetailParser) documentURL(doc *goquery.Document) (string, bool) {
	if key, ok := downloadKeyFromButtons(doc, "resume"); ok {
		return p.baseURL + "/file/procDownload/" + key, true
	}

	link := ""
	doc.Find(`a[href]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		lower := strings.ToLower(href)
		if !strings.Contains(lower, "/html/files/") {
			return true
		}
		for _, ext := range []string{".pdf", ".doc", ".docx", ".zip"} {
			if strings.HasSuffix(lower, ext) {
				link = href
				return false
			}
		}
		return true
	})
	if link != "" {
		if strings.HasPrefix(link, "/") {
			return p.baseURL + link, true
		}
		return link, true
	}

	if key, ok := downloadKeyFromButtons(doc, ""); ok {
		return p.baseURL + "/file/procDownload/" + key, true
	}
	return "", false
}

// downloadKeyFromButtons scans button onclick handlers for the file key. A
// non-empty labelHint restricts the scan to buttons mentioning it.
func downloadKeyFromButtons(doc *goquery.Document, labelHint string) (string, bool) {
	key := ""
	doc.Find("button, a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if labelHint != "" && !strings.Contains(strings.ToLower(el.Text()), labelHint) {
			return true
		}
		onclick, ok := el.Attr("onclick")
		if !ok {
			return true
		}
		if m := downloadKeyPattern.FindStringSubmatch(onclick); m != nil {
			key = m[1]
			return false
		}
		return true
	})
	return key, key != ""
}
