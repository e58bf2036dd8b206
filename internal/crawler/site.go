package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Site knows the remote site's URL scheme: origin/book/{id} for the table of
// contents and origin/book/{id}/{section} for pages.
type Site struct {
	base *url.URL
}

// NewSite parses the base origin (e.g. https://shamela.ws).
func NewSite(baseURL string) (*Site, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Site{base: u}, nil
}

// TOCURL returns the table-of-contents URL for a book.
func (s *Site) TOCURL(bookID string) string {
	return fmt.Sprintf("%s/book/%s", s.base, bookID)
}

// PageURL returns the URL for one section of a book.
func (s *Site) PageURL(bookID string, section int) string {
	return fmt.Sprintf("%s/book/%s/%d", s.base, bookID, section)
}

// sectionPattern matches /book/{id}/{section} paths for a given book.
func (s *Site) sectionPattern(bookID string) *regexp.Regexp {
	return regexp.MustCompile(`/book/` + regexp.QuoteMeta(bookID) + `/(\d+)`)
}

// Section extracts the section index from a page URL. It returns false when
// the URL does not address a page of the given book.
func (s *Site) Section(bookID, rawURL string) (int, bool) {
	m := s.sectionPattern(bookID).FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// SectionLinks extracts every section index referenced by the given hrefs,
// in order of appearance.
func (s *Site) SectionLinks(bookID string, hrefs []string) []int {
	var sections []int
	for _, href := range hrefs {
		if n, ok := s.Section(bookID, href); ok {
			sections = append(sections, n)
		}
	}
	return sections
}

// Resolve turns an in-page href into an absolute URL against the site origin
// and strips any anchor fragment.
func (s *Site) Resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	abs := s.base.ResolveReference(ref)
	abs.Fragment = ""
	return abs.String(), nil
}
