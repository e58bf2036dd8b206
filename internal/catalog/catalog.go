// Package catalog resolves book metadata (title, author) from the discovery
// files produced by the catalog tooling. A lookup miss is not an error: the
// crawler proceeds with a placeholder title.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

// Discovery file names, probed in order.
const (
	allBooksFile     = "all_books.json"
	booksCatalogFile = "books_catalog.json"
)

// Catalog is an in-memory index of book metadata keyed by book ID.
type Catalog struct {
	books map[string]crawler.BookInfo
}

type catalogEnvelope struct {
	Books []bookEntry `json:"books"`
}

// bookEntry tolerates both discovery formats: all_books.json uses "book_id",
// books_catalog.json uses "id".
type bookEntry struct {
	BookID     json.Number `json:"book_id"`
	ID         json.Number `json:"id"`
	Title      string      `json:"title"`
	AuthorID   json.Number `json:"author_id"`
	AuthorName string      `json:"author_name"`
}

func (e bookEntry) key() string {
	if e.BookID.String() != "" {
		return e.BookID.String()
	}
	return e.ID.String()
}

// Load reads the discovery directory. A missing directory or missing files
// yield an empty catalog; only malformed JSON is an error.
func Load(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{books: make(map[string]crawler.BookInfo)}
	if dir == "" {
		return c, nil
	}

	for _, name := range []string{booksCatalogFile, allBooksFile} {
		path := filepath.Join(dir, name)
		entries, err := loadEntries(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", path, err)
		}
		// all_books.json is read last so it wins on duplicate IDs.
		for _, e := range entries {
			id := e.key()
			if id == "" {
				continue
			}
			c.books[id] = crawler.BookInfo{
				BookID:     id,
				Title:      e.Title,
				AuthorID:   e.AuthorID.String(),
				AuthorName: e.AuthorName,
			}
		}
		logger.Info("loaded catalog file",
			zap.String("path", path),
			zap.Int("entries", len(entries)),
		)
	}
	return c, nil
}

func loadEntries(path string) ([]bookEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// all_books.json is a bare list; books_catalog.json wraps it in a
	// {"books": [...]} envelope.
	var list []bookEntry
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var envelope catalogEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return envelope.Books, nil
}

// Lookup returns the metadata for a book ID.
func (c *Catalog) Lookup(bookID string) (crawler.BookInfo, bool) {
	info, ok := c.books[bookID]
	return info, ok
}

// Len reports the number of indexed books.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Placeholder is the fallback metadata used when a book is not cataloged.
func Placeholder(bookID string) crawler.BookInfo {
	return crawler.BookInfo{
		BookID: bookID,
		Title:  fmt.Sprintf("Book %s", bookID),
	}
}
