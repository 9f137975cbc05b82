package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HasNext reports whether a list page links to a page beyond current. It
// checks explicit next-page controls first, then numbered page links.
func HasNext(doc *goquery.Document, current int) bool {
	next := false
	doc.Find("a, button").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(el.Text()))
		if text == "next" || text == ">" || text == "»" {
			next = true
			return false
		}
		return true
	})
	if next {
		return true
	}

	target := fmt.Sprintf("/%d", current+1)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.HasSuffix(href, target) {
			next = true
			return false
		}
		return true
	})
	return next
}
