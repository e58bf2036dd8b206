package local

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

func TestStore_PageRoundTrip(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.False(t, s.Exists("7", 1))
	require.NoError(t, s.SavePage("7", 1, []byte("<html>section one</html>")))
	require.True(t, s.Exists("7", 1))
	require.False(t, s.Exists("7", 2))
	require.False(t, s.Exists("8", 1))

	data, err := os.ReadFile(filepath.Join(s.BookDir("7"), "book_7_section_1.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>section one</html>", string(data))
}

func TestStore_RecordOverwrite(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	first := crawler.CrawlRecord{
		BookID:         "22",
		Title:          "Book 22",
		CrawlTimestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:         crawler.StatusFailed,
		Errors:         []string{"failed to fetch section 3"},
	}
	require.NoError(t, s.SaveRecord("22", first))

	second := first
	second.Status = crawler.StatusComplete
	second.TotalPages = 12
	second.Errors = nil
	require.NoError(t, s.SaveRecord("22", second))

	got, err := s.LoadRecord("22")
	require.NoError(t, err)
	require.Equal(t, crawler.StatusComplete, got.Status)
	require.Equal(t, 12, got.TotalPages)
	require.Empty(t, got.Errors)
}

func TestStore_RejectsBadBookID(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.Error(t, s.SavePage("../evil", 1, []byte("x")))
	require.Error(t, s.SaveRecord("a/b", crawler.CrawlRecord{}))
	require.False(t, s.Exists("../evil", 1))
	require.False(t, s.Exists("7", 0))
}

func TestStore_RunSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.SaveRunSummary("0199", map[string]int{"completed": 3, "failed": 1}))
	_, err = os.Stat(filepath.Join(dir, "runs", "run_0199.json"))
	require.NoError(t, err)
}

func TestNew_RequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := New("  ")
	require.Error(t, err)
}

func TestStore_ListAndRead(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir())
	require.NoError(t, err)

	books, err := s.Books()
	require.NoError(t, err)
	require.Empty(t, books)

	require.NoError(t, s.SavePage("30", 3, []byte("three")))
	require.NoError(t, s.SavePage("30", 1, []byte("one")))
	require.NoError(t, s.SavePage("30", 10, []byte("ten")))
	require.NoError(t, s.SavePage("4", 1, []byte("other")))
	require.NoError(t, s.SaveRecord("30", crawler.CrawlRecord{BookID: "30"}))

	books, err = s.Books()
	require.NoError(t, err)
	require.Equal(t, []string{"30", "4"}, books)

	sections, err := s.Sections("30")
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 10}, sections)

	body, err := s.ReadPage("30", 3)
	require.NoError(t, err)
	require.Equal(t, "three", string(body))

	_, err = s.ReadPage("30", 2)
	require.Error(t, err)

	sections, err = s.Sections("nope")
	require.NoError(t, err)
	require.Empty(t, sections)
}
