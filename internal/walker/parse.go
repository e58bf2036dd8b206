package walker

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

// NextLink finds the pagination "next" control in a fetched page: an anchor
// styled as a button whose text is the single forward chevron. The
// double-chevron "last page" control and disabled controls never match. The
// returned URL is absolute with any anchor fragment stripped.
func NextLink(body []byte, site *crawler.Site) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	var next string
	doc.Find("a.btn").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		// The parser decodes entities, so a literal "&gt;" in the source
		// arrives here as ">"; ">>" fails the equality check.
		if text != ">" && text != "&gt;" {
			return true
		}
		if s.HasClass("disabled") {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		resolved, err := site.Resolve(href)
		if err != nil {
			return true
		}
		next = resolved
		return false
	})
	return next, next != ""
}

// LowestSection scans a table-of-contents page for links into the book's
// pages and returns the lowest referenced section index.
func LowestSection(body []byte, site *crawler.Site, bookID string) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, false
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, href)
		}
	})

	lowest := 0
	for _, section := range site.SectionLinks(bookID, hrefs) {
		if lowest == 0 || section < lowest {
			lowest = section
		}
	}
	return lowest, lowest > 0
}
