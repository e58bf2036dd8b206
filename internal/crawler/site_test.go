package crawler

import "testing"

func TestSiteURLs(t *testing.T) {
	t.Parallel()

	s, err := NewSite("https://shamela.ws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.TOCURL("22"); got != "https://shamela.ws/book/22" {
		t.Errorf("toc url = %q", got)
	}
	if got := s.PageURL("22", 5); got != "https://shamela.ws/book/22/5" {
		t.Errorf("page url = %q", got)
	}
}

func TestNewSiteRejectsRelative(t *testing.T) {
	t.Parallel()

	if _, err := NewSite("/book/22"); err == nil {
		t.Fatal("expected error for relative base url")
	}
}

func TestSection(t *testing.T) {
	t.Parallel()

	s, err := NewSite("https://shamela.ws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		rawURL string
		want   int
		ok     bool
	}{
		{"absolute page url", "https://shamela.ws/book/22/17", 17, true},
		{"relative href", "/book/22/3", 3, true},
		{"toc url has no section", "https://shamela.ws/book/22", 0, false},
		{"different book", "/book/99/3", 0, false},
		{"anchor fragment kept out", "/book/22/8#p1", 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Section("22", tt.rawURL)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Section(%q) = (%d, %v), want (%d, %v)", tt.rawURL, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveStripsFragment(t *testing.T) {
	t.Parallel()

	s, err := NewSite("https://shamela.ws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Resolve("/book/22/6#p12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://shamela.ws/book/22/6" {
		t.Errorf("resolved = %q", got)
	}

	got, err = s.Resolve("https://shamela.ws/book/22/7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://shamela.ws/book/22/7" {
		t.Errorf("resolved absolute = %q", got)
	}
}

func TestSectionLinks(t *testing.T) {
	t.Parallel()

	s, err := NewSite("https://shamela.ws")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hrefs := []string{"/book/22/9", "/author/12", "/book/22/5#top", "/book/22"}
	got := s.SectionLinks("22", hrefs)
	want := []int{9, 5}
	if len(got) != len(want) {
		t.Fatalf("sections = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sections = %v, want %v", got, want)
		}
	}
}
