package walker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

func testSite(t *testing.T) *crawler.Site {
	t.Helper()
	site, err := crawler.NewSite("https://shamela.ws")
	require.NoError(t, err)
	return site
}

func TestNextLink(t *testing.T) {
	t.Parallel()

	site := testSite(t)

	tests := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{
			name: "plain next control",
			html: `<a class="btn" href="/book/22/6">&gt;</a>`,
			want: "https://shamela.ws/book/22/6",
			ok:   true,
		},
		{
			name: "fragment stripped",
			html: `<a class="btn" href="/book/22/6#p3">&gt;</a>`,
			want: "https://shamela.ws/book/22/6",
			ok:   true,
		},
		{
			name: "absolute href",
			html: `<a class="btn" href="https://shamela.ws/book/22/6">&gt;</a>`,
			want: "https://shamela.ws/book/22/6",
			ok:   true,
		},
		{
			name: "double chevron is the last-page control",
			html: `<a class="btn" href="/book/22/99">&gt;&gt;</a>`,
		},
		{
			name: "disabled control skipped",
			html: `<a class="btn disabled" href="/book/22/6">&gt;</a>`,
		},
		{
			name: "missing href skipped",
			html: `<a class="btn">&gt;</a>`,
		},
		{
			name: "anchor without btn class skipped",
			html: `<a href="/book/22/6">&gt;</a>`,
		},
		{
			name: "surrounding whitespace tolerated",
			html: "<a class=\"btn\" href=\"/book/22/6\">\n &gt; \n</a>",
			want: "https://shamela.ws/book/22/6",
			ok:   true,
		},
		{
			name: "first usable control wins",
			html: `<a class="btn disabled" href="/book/22/5">&gt;</a>` +
				`<a class="btn" href="/book/22/6">&gt;</a>`,
			want: "https://shamela.ws/book/22/6",
			ok:   true,
		},
		{
			name: "no controls at all",
			html: `<div>plain text</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte("<html><body>" + tt.html + "</body></html>")
			got, ok := NextLink(body, site)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLowestSection(t *testing.T) {
	t.Parallel()

	site := testSite(t)

	body := []byte(`<html><body>
		<a href="/book/22/40">باب</a>
		<a href="/book/22/5#ch1">باب</a>
		<a href="/book/22/12">باب</a>
		<a href="/book/99/1">other book</a>
		<a href="/author/1759">author</a>
	</body></html>`)

	lowest, ok := LowestSection(body, site, "22")
	require.True(t, ok)
	require.Equal(t, 5, lowest)
}

func TestLowestSection_NoLinks(t *testing.T) {
	t.Parallel()

	site := testSite(t)
	_, ok := LowestSection([]byte(`<html><body><p>empty</p></body></html>`), site, "22")
	require.False(t, ok)
}
