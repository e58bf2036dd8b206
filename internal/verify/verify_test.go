package verify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maktaba/bookcrawler/internal/crawler"
	"github.com/maktaba/bookcrawler/internal/hash/sha256"
	"github.com/maktaba/bookcrawler/internal/storage/local"
)

func seedBook(t *testing.T, store *local.Store, bookID string, sections map[int]string, withRecord bool) {
	t.Helper()
	for n, body := range sections {
		require.NoError(t, store.SavePage(bookID, n, []byte(body)))
	}
	if withRecord {
		require.NoError(t, store.SaveRecord(bookID, crawler.CrawlRecord{
			BookID:         bookID,
			Title:          "Book " + bookID,
			CrawlTimestamp: time.Unix(0, 0).UTC(),
			Status:         crawler.StatusComplete,
			TotalPages:     len(sections),
		}))
	}
}

func page(n int) string {
	return strings.Repeat("x", 600) + string(rune('0'+n))
}

func TestVerifyBook_Clean(t *testing.T) {
	t.Parallel()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	seedBook(t, store, "22", map[int]string{1: page(1), 2: page(2), 3: page(3)}, true)

	v := New(store, sha256.New(), 500, zap.NewNop())
	report, err := v.VerifyBook("22")
	require.NoError(t, err)
	require.True(t, report.Clean())
	require.Equal(t, crawler.StatusComplete, report.Status)
	require.Equal(t, 3, report.Sections)
}

func TestVerifyBook_FindsGapsAndShortPages(t *testing.T) {
	t.Parallel()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	// Section 2 missing, section 4 truncated.
	seedBook(t, store, "9", map[int]string{1: page(1), 3: page(3), 4: "stub"}, true)

	v := New(store, sha256.New(), 500, zap.NewNop())
	report, err := v.VerifyBook("9")
	require.NoError(t, err)
	require.False(t, report.Clean())
	require.Equal(t, []int{2}, report.Gaps)
	require.Len(t, report.Issues, 1)
	require.Equal(t, 4, report.Issues[0].Section)
	require.Contains(t, report.Issues[0].Reason, "validity floor")
	require.NotEmpty(t, report.Issues[0].Digest)
}

func TestVerifyBook_MissingRecord(t *testing.T) {
	t.Parallel()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	seedBook(t, store, "7", map[int]string{1: page(1)}, false)

	v := New(store, sha256.New(), 500, zap.NewNop())
	report, err := v.VerifyBook("7")
	require.NoError(t, err)
	require.False(t, report.Clean())
	require.Contains(t, report.Issues[0].Reason, "record")
}

func TestVerifyAll(t *testing.T) {
	t.Parallel()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)
	seedBook(t, store, "1", map[int]string{1: page(1)}, true)
	seedBook(t, store, "2", map[int]string{2: page(2)}, true)

	v := New(store, sha256.New(), 500, zap.NewNop())
	reports, err := v.VerifyAll()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.True(t, reports[0].Clean())
	// Book 2 starts at section 2, so section 1 is a gap.
	require.Equal(t, []int{1}, reports[1].Gaps)
}

func TestVerifyAll_EmptyArchive(t *testing.T) {
	t.Parallel()

	store, err := local.New(t.TempDir())
	require.NoError(t, err)

	v := New(store, sha256.New(), 500, zap.NewNop())
	reports, err := v.VerifyAll()
	require.NoError(t, err)
	require.Empty(t, reports)
}
