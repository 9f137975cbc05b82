package scrape

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/resume-harvester/internal/identity"
)

var navIDPattern = regexp.MustCompile(`(?:dispView|dispEdit)/(\d+)`)

// ListParser extracts record stubs from list pages using an ordered chain of
// structural strategies, most site-specific first. It never errors: a page
// that matches no strategy yields an empty result.
type ListParser struct {
	baseURL string
}

// NewListParser builds a list parser resolving relative links against baseURL.
func NewListParser(baseURL string) *ListParser {
	return &ListParser{baseURL: strings.TrimRight(baseURL, "/")}
}

// Parse runs the strategy chain and returns the stubs of the first strategy
// that finds anything.
func (p *ListParser) Parse(doc *goquery.Document, kind identity.Kind) []Stub {
	action := "dispView"
	if kind == identity.KindCase || kind == identity.KindClient {
		action = "dispEdit"
	}

	strategies := []struct {
		name string
		run  func() []Stub
	}{
		{"row-click-handler", func() []Stub { return p.rowsByClickHandler(doc, action) }},
		{"detail-link", func() []Stub { return p.rowsByDetailLink(doc, action) }},
		{"generic-table", func() []Stub { return p.rowsByGenericTable(doc) }},
	}

	for _, s := range strategies {
		if stubs := s.run(); len(stubs) > 0 {
			slog.Debug("list strategy matched", "strategy", s.name, "rows", len(stubs))
			return stubs
		}
	}

	slog.Warn("no list strategy matched page structure", "kind", string(kind))
	return nil
}

// rowsByClickHandler matches rows whose onclick references the known detail
// action, the layout used by current ERP releases.
func (p *ListParser) rowsByClickHandler(doc *goquery.Document, action string) []Stub {
	var stubs []Stub
	doc.Find(`tr[onclick*="` + action + `"]`).Each(func(_ int, row *goquery.Selection) {
		onclick, _ := row.Attr("onclick")
		if stub, ok := p.stubFromAction(onclick, row); ok {
			stubs = append(stubs, stub)
		}
	})
	return stubs
}

// rowsByDetailLink matches rows carrying a direct anchor to the detail page.
func (p *ListParser) rowsByDetailLink(doc *goquery.Document, action string) []Stub {
	var stubs []Stub
	doc.Find(`table tr`).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(`a[href*="` + action + `"]`).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		if stub, ok := p.stubFromAction(href, row); ok {
			stubs = append(stubs, stub)
		}
	})
	return stubs
}

// rowsByGenericTable is the last resort: any table with a header row and at
// least one data row whose cells contain links or click handlers.
func (p *ListParser) rowsByGenericTable(doc *goquery.Document) []Stub {
	var stubs []Stub
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		rows := tbl.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		var found []Stub
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			ref := ""
			if v, ok := row.Attr("onclick"); ok {
				ref = v
			} else if link := row.Find("a[href]").First(); link.Length() > 0 {
				ref, _ = link.Attr("href")
			}
			if ref == "" {
				return
			}
			if stub, ok := p.stubFromAction(ref, row); ok {
				found = append(found, stub)
			}
		})
		if len(found) > 0 {
			stubs = found
			return false
		}
		return true
	})
	return stubs
}

// stubFromAction pulls the navigation id out of an onclick handler or href
// and completes the stub from the surrounding row.
func (p *ListParser) stubFromAction(ref string, row *goquery.Selection) (Stub, bool) {
	m := navIDPattern.FindStringSubmatch(ref)
	if m == nil {
		return Stub{}, false
	}
	navID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || navID <= 0 {
		return Stub{}, false
	}

	return Stub{
		NavigationID: navID,
		DetailURL:    p.resolve(ref),
		NameHint:     nameHintFromRow(row),
	}, true
}

// resolve turns a href or onclick fragment into an absolute detail URL.
func (p *ListParser) resolve(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if strings.HasPrefix(ref, "/") && !strings.ContainsAny(ref, "('\"") {
		return p.baseURL + ref
	}
	// Onclick handlers wrap the route in script; rebuild it from the action.
	m := navIDPattern.FindString(ref)
	if m == "" {
		return ""
	}
	prefix := "/candidate/"
	if strings.HasPrefix(m, "dispEdit") {
		prefix = "/case/"
	}
	return p.baseURL + prefix + m
}

// nameHintFromRow finds the first link or cell text that looks like a name
// rather than an id or date.
func nameHintFromRow(row *goquery.Selection) string {
	hint := ""
	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.TrimSpace(a.Text())
		if looksLikeName(text) {
			hint = text
			return false
		}
		return true
	})
	if hint != "" {
		return hint
	}
	row.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := strings.TrimSpace(td.Text())
		if looksLikeName(text) {
			hint = text
			return false
		}
		return true
	})
	return hint
}

var digitsOnly = regexp.MustCompile(`^\d+$`)
var dateLike = regexp.MustCompile(`^\d{2,4}[-/]\d{2}[-/]\d{2,4}$`)

func looksLikeName(text string) bool {
	if len(text) < 3 {
		return false
	}
	if digitsOnly.MatchString(text) || dateLike.MatchString(text) {
		return false
	}
	return true
}
