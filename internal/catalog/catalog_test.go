package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_AllBooks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "all_books.json", `[
		{"book_id": 22, "title": "صحيح البخاري", "author_id": 10, "author_name": "البخاري"},
		{"book_id": "23", "title": "Book Twenty Three"}
	]`)

	c, err := Load(dir, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	info, ok := c.Lookup("22")
	require.True(t, ok)
	require.Equal(t, "صحيح البخاري", info.Title)
	require.Equal(t, "10", info.AuthorID)
	require.Equal(t, "البخاري", info.AuthorName)

	info, ok = c.Lookup("23")
	require.True(t, ok)
	require.Equal(t, "Book Twenty Three", info.Title)
	require.Empty(t, info.AuthorID)
}

func TestLoad_CatalogEnvelopeFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "books_catalog.json", `{"books": [
		{"id": 7, "title": "Catalog Seven", "author_id": 3}
	]}`)

	c, err := Load(dir, zap.NewNop())
	require.NoError(t, err)

	info, ok := c.Lookup("7")
	require.True(t, ok)
	require.Equal(t, "Catalog Seven", info.Title)
}

func TestLoad_AllBooksWinsOverCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "books_catalog.json", `{"books": [{"id": 7, "title": "old title"}]}`)
	writeFile(t, dir, "all_books.json", `[{"book_id": 7, "title": "new title"}]`)

	c, err := Load(dir, zap.NewNop())
	require.NoError(t, err)

	info, ok := c.Lookup("7")
	require.True(t, ok)
	require.Equal(t, "new title", info.Title)
}

func TestLoad_MissingDirIsEmpty(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 0, c.Len())

	_, ok := c.Lookup("22")
	require.False(t, ok)
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "all_books.json", `{not json`)

	_, err := Load(dir, zap.NewNop())
	require.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	info := Placeholder("99")
	require.Equal(t, "Book 99", info.Title)
	require.Equal(t, "99", info.BookID)
}
