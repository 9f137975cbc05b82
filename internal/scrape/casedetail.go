package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseCase builds a JobCase from a case edit page. The same per-field
// fallback discipline as ParseCandidate applies: extraction failures become
// warnings and the record is returned regardless.
func (p *DetailParser) ParseCase(doc *goquery.Document, navigationID int64, rawDoc *goquery.Document) (*JobCase, []Warning) {
	var warnings []Warning

	jc := &JobCase{
		NavigationID: navigationID,
	}

	if canonical, ok := contentCanonicalID(doc); ok {
		jc.CanonicalID = Resolved(canonical)
	} else {
		jc.CanonicalID = Fallback(navigationID)
		warnings = append(warnings, Warning{Field: "canonicalId", Message: "no canonical id in page content, using navigation id"})
	}

	title, company := caseTitle(doc)
	if title == "" {
		title = tableValue(doc, "Position Title")
	}
	if company == "" {
		company = tableValue(doc, "Company")
	}
	jc.Title = title
	jc.CompanyName = company
	if title == "" {
		warnings = append(warnings, Warning{Field: "title", Message: "no title extraction strategy succeeded"})
	}
	if company == "" {
		warnings = append(warnings, Warning{Field: "companyName", Message: "no company extraction strategy succeeded"})
	}

	created, updated, dateWarnings := p.dates(doc, rawDoc)
	jc.CreatedDate = created
	jc.UpdatedDate = updated
	warnings = append(warnings, dateWarnings...)

	jc.Status = tableValue(doc, "Status")
	jc.AssignedTeam = tableValue(doc, "Assigned Team")
	jc.DrafterName = tableValue(doc, "Drafter")
	jc.ContractType = tableValue(doc, "Contract Type")
	jc.PositionInfo = tableValue(doc, "Position Info")
	jc.Requirements = tableValue(doc, "Requirements")
	jc.Benefits = tableValue(doc, "Benefits")

	jc.ClientCanonicalID = clientReference(doc)
	jc.ConnectedCandidateIDs = connectedCandidates(doc)

	return jc, warnings
}

// caseTitle splits the "Company - Title" heading the case pages carry.
func caseTitle(doc *goquery.Document) (title, company string) {
	for _, sel := range []string{"h2", "title"} {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if before, after, found := strings.Cut(text, " - "); found {
			return strings.TrimSpace(after), strings.TrimSpace(before)
		}
	}
	return "", ""
}

// clientReference finds the linked client's id from its edit-page anchor.
func clientReference(doc *goquery.Document) int64 {
	var id int64
	doc.Find(`a[href*="/client/dispEdit/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := navIDPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil && v > 0 {
			id = v
			return false
		}
		return true
	})
	return id
}

// connectedCandidates collects every candidate linked to the case. Anchors
// into candidate detail pages carry navigation ids, so those are tagged
// fallback; ids embedded as data attributes are already canonical.
func connectedCandidates(doc *goquery.Document) []ID {
	var ids []ID
	seen := map[int64]bool{}

	doc.Find(`[data-candidate-id]`).Each(func(_ int, el *goquery.Selection) {
		raw, _ := el.Attr("data-candidate-id")
		if v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && v > 0 && !seen[v] {
			seen[v] = true
			ids = append(ids, Resolved(v))
		}
	})

	doc.Find(`a[href*="/candidate/dispView/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := navIDPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil && v > 0 && !seen[v] {
			seen[v] = true
			ids = append(ids, Fallback(v))
		}
	})

	return ids
}
