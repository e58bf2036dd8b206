package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

func writeList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func ids(jobs []crawler.BookJob) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.BookID)
	}
	return out
}

func TestLoadBookList_Text(t *testing.T) {
	t.Parallel()

	path := writeList(t, "# priority batch\n22\n23\n\n  24  \n22\n")
	jobs, err := LoadBookList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"22", "23", "24"}, ids(jobs))
}

func TestLoadBookList_JSONNumbers(t *testing.T) {
	t.Parallel()

	path := writeList(t, `[22, 23, 24]`)
	jobs, err := LoadBookList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"22", "23", "24"}, ids(jobs))
}

func TestLoadBookList_JSONStrings(t *testing.T) {
	t.Parallel()

	path := writeList(t, `["22", "23"]`)
	jobs, err := LoadBookList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"22", "23"}, ids(jobs))
}

func TestLoadBookList_JSONObjects(t *testing.T) {
	t.Parallel()

	path := writeList(t, `[
		{"book_id": 22, "title": "صحيح البخاري", "author_id": 10, "author_name": "البخاري"},
		{"id": "23", "title": "Book Twenty Three"},
		{"book_id": 22, "title": "duplicate, dropped"}
	]`)
	jobs, err := LoadBookList(path)
	require.NoError(t, err)
	require.Equal(t, []string{"22", "23"}, ids(jobs))

	require.Equal(t, "صحيح البخاري", jobs[0].Title)
	require.Equal(t, "10", jobs[0].AuthorID)
	require.Equal(t, "البخاري", jobs[0].AuthorName)

	require.Equal(t, "Book Twenty Three", jobs[1].Title)
	require.Empty(t, jobs[1].AuthorID)
}

func TestLoadBookList_MalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeList(t, `[{"book_id": 22}, 23]`)
	_, err := LoadBookList(path)
	require.Error(t, err)
}

func TestLoadBookList_Empty(t *testing.T) {
	t.Parallel()

	path := writeList(t, "# nothing but comments\n\n")
	_, err := LoadBookList(path)
	require.Error(t, err)
}

func TestLoadBookList_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadBookList(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
