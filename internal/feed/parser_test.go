package feed

import (
	"testing"
	"time"
)

const rssWithImages = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Example Feed</title>
    <item>
      <title>Item with enclosure image</title>
      <link>https://example.com/1</link>
      <guid>guid-1</guid>
      <pubDate>Mon, 10 Nov 2025 08:00:00 GMT</pubDate>
      <description>Plain description.</description>
      <enclosure url="https://example.com/enc.jpg" type="image/jpeg" length="1000"/>
    </item>
    <item>
      <title>Item with media thumbnail</title>
      <link>https://example.com/2</link>
      <guid>guid-2</guid>
      <media:thumbnail url="https://example.com/thumb.jpg"/>
      <description>Another description.</description>
    </item>
    <item>
      <title>Item with og image in description</title>
      <link>https://example.com/3</link>
      <guid>guid-3</guid>
      <description>&lt;meta property="og:image" content="https://example.com/og.jpg"/&gt;&lt;p&gt;Text body.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Item with inline img tag</title>
      <link>https://example.com/4</link>
      <guid>guid-4</guid>
      <description>&lt;p&gt;Before &lt;img src="https://example.com/inline.png"/&gt; after.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Item with no image at all</title>
      <link>https://example.com/5</link>
      <guid>guid-5</guid>
      <description>Nothing here.</description>
    </item>
  </channel>
</rss>`

func TestParseResolvesImagesInPriorityOrder(t *testing.T) {
	t.Parallel()

	candidates, err := NewParser().Parse([]byte(rssWithImages), "example", "en")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(candidates))
	}

	want := []string{
		"https://example.com/enc.jpg",
		"https://example.com/thumb.jpg",
		"https://example.com/og.jpg",
		"https://example.com/inline.png",
		"",
	}
	for i, w := range want {
		if candidates[i].ImageURL != w {
			t.Fatalf("item %d: image = %q, want %q", i, candidates[i].ImageURL, w)
		}
	}
}

func TestParseFieldFallbacks(t *testing.T) {
	t.Parallel()

	raw := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>F</title>
  <item>
    <title>  Padded title  </title>
    <guid>https://example.com/permalink</guid>
    <pubDate>Mon, 10 Nov 2025 08:00:00 GMT</pubDate>
  </item>
</channel></rss>`

	candidates, err := NewParser().Parse([]byte(raw), "example", "ru")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Title != "Padded title" {
		t.Fatalf("title not trimmed: %q", c.Title)
	}
	if c.Link != "https://example.com/permalink" {
		t.Fatalf("permalink GUID should become the link: %q", c.Link)
	}
	if c.Language != "ru" || c.SourceID != "example" {
		t.Fatalf("metadata lost: %+v", c)
	}
	wantDate := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)
	if !c.PubDate.Equal(wantDate) {
		t.Fatalf("pub date = %v, want %v", c.PubDate, wantDate)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := NewParser().Parse([]byte("this is not a feed"), "example", "en"); err == nil {
		t.Fatal("expected an error for non-feed input")
	}
}

func TestRelativeAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		pub  time.Time
		want string
	}{
		{"zero time", time.Time{}, ""},
		{"future", now.Add(time.Hour), ""},
		{"minutes", now.Add(-25 * time.Minute), "25m"},
		{"hours", now.Add(-5 * time.Hour), "5h"},
		{"just under two days", now.Add(-47 * time.Hour), "47h"},
		{"days", now.Add(-3 * 24 * time.Hour), "3d"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := RelativeAge(tc.pub, now); got != tc.want {
				t.Fatalf("RelativeAge = %q, want %q", got, tc.want)
			}
		})
	}
}
