// Package local implements the filesystem-backed page and record store.
//
// The store is the resume mechanism: a page artifact on disk means that
// (book, section) is never fetched again, across runs. Keys are purely a
// function of book ID and section index.
package local

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

// Layout under the root directory:
//
//	books/{id}/book_{id}_section_{n}.html
//	books/{id}/book_{id}_meta.json
//	runs/run_{run_id}.json
const (
	booksDir = "books"
	runsDir  = "runs"
)

var validBookID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store persists page artifacts and crawl records under a root directory.
type Store struct {
	root string
}

// New creates the root directory if needed and verifies it is writable.
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	probe := filepath.Join(root, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("storage root is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}
	return &Store{root: root}, nil
}

// BookDir returns the directory holding one book's artifacts.
func (s *Store) BookDir(bookID string) string {
	return filepath.Join(s.root, booksDir, bookID)
}

func (s *Store) pagePath(bookID string, section int) string {
	return filepath.Join(s.BookDir(bookID), fmt.Sprintf("book_%s_section_%d.html", bookID, section))
}

func (s *Store) recordPath(bookID string) string {
	return filepath.Join(s.BookDir(bookID), fmt.Sprintf("book_%s_meta.json", bookID))
}

// Exists reports whether the page artifact is already persisted. This is the
// sole gate deciding whether a page address hits the network.
func (s *Store) Exists(bookID string, section int) bool {
	if !validBookID.MatchString(bookID) || section <= 0 {
		return false
	}
	info, err := os.Stat(s.pagePath(bookID, section))
	return err == nil && !info.IsDir()
}

// SavePage writes one page artifact.
func (s *Store) SavePage(bookID string, section int, body []byte) error {
	if !validBookID.MatchString(bookID) {
		return fmt.Errorf("invalid book id %q", bookID)
	}
	if section <= 0 {
		return fmt.Errorf("invalid section %d", section)
	}
	if err := os.MkdirAll(s.BookDir(bookID), 0o750); err != nil {
		return fmt.Errorf("create book dir: %w", err)
	}
	target := s.pagePath(bookID, section)
	if err := os.WriteFile(target, body, 0o600); err != nil {
		return fmt.Errorf("write page %s: %w", target, err)
	}
	return nil
}

// SaveRecord writes the book's crawl record, overwriting any previous one.
func (s *Store) SaveRecord(bookID string, record crawler.CrawlRecord) error {
	if !validBookID.MatchString(bookID) {
		return fmt.Errorf("invalid book id %q", bookID)
	}
	if err := os.MkdirAll(s.BookDir(bookID), 0o750); err != nil {
		return fmt.Errorf("create book dir: %w", err)
	}
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	target := s.recordPath(bookID)
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write record %s: %w", target, err)
	}
	return nil
}

// LoadRecord reads a previously written crawl record.
func (s *Store) LoadRecord(bookID string) (crawler.CrawlRecord, error) {
	var record crawler.CrawlRecord
	data, err := os.ReadFile(s.recordPath(bookID))
	if err != nil {
		return record, fmt.Errorf("read record: %w", err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}

// ReadPage reads a persisted page artifact.
func (s *Store) ReadPage(bookID string, section int) ([]byte, error) {
	data, err := os.ReadFile(s.pagePath(bookID, section))
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	return data, nil
}

// Books lists every book ID with a directory in the archive, sorted.
func (s *Store) Books() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, booksDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && validBookID.MatchString(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Sections lists the section indices persisted for one book, ascending.
func (s *Store) Sections(bookID string) ([]int, error) {
	if !validBookID.MatchString(bookID) {
		return nil, fmt.Errorf("invalid book id %q", bookID)
	}
	entries, err := os.ReadDir(s.BookDir(bookID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	prefix := fmt.Sprintf("book_%s_section_", bookID)
	var sections []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".html") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".html"))
		if err != nil || n <= 0 {
			continue
		}
		sections = append(sections, n)
	}
	sort.Ints(sections)
	return sections, nil
}

// SaveRunSummary writes the end-of-run aggregate next to the book artifacts.
func (s *Store) SaveRunSummary(runID string, summary any) error {
	dir := filepath.Join(s.root, runsDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	target := filepath.Join(dir, fmt.Sprintf("run_%s.json", runID))
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return fmt.Errorf("write run summary %s: %w", target, err)
	}
	return nil
}
