package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/folio/internal/posts"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:dc="http://purl.org/dc/elements/1.1/">
	<channel>
		<title>Test RSS Feed</title>
		<link>http://example.com</link>
		<description>Test Description</description>
		<item>
			<title>First Article</title>
			<link>http://example.com/posts/first-article</link>
			<description>This is the first article</description>
			<guid>article-1</guid>
			<pubDate>Wed, 01 Jan 2025 12:00:00 GMT</pubDate>
			<category>go</category>
			<dc:creator>Jane</dc:creator>
			<enclosure url="http://example.com/image1.jpg" type="image/jpeg" length="0"/>
		</item>
		<item>
			<title>Second Article</title>
			<link>http://example.com/posts/second-article/</link>
			<description>&lt;p&gt;Short &lt;em&gt;teaser&lt;/em&gt;&lt;/p&gt;</description>
			<content:encoded><![CDATA[<p>Hello <strong>world</strong></p><p><img src="http://example.com/cover.png" alt="cover"></p>]]></content:encoded>
			<guid>article-2</guid>
			<pubDate>Thu, 02 Jan 2025 12:00:00 GMT</pubDate>
		</item>
	</channel>
</rss>`

func TestParser_ParseRSS(t *testing.T) {
	origin := &posts.Origin{ID: "0123456789abcdef", URL: "http://example.com/rss"}
	items, err := NewParser().Parse(strings.NewReader(testRSS), origin, "Fallback")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Test RSS Feed", origin.Title)
	assert.Equal(t, "Test Description", origin.Description)

	first := items[0]
	assert.Equal(t, "0123456789ab:article-1", first.ID)
	assert.Equal(t, "first-article", first.Slug)
	assert.Equal(t, "First Article", first.Title)
	assert.Equal(t, "http://example.com/posts/first-article", first.URL)
	assert.Equal(t, "This is the first article", first.Content)
	assert.Equal(t, []string{"go"}, first.Tags)
	assert.Equal(t, "Jane", first.Author)
	assert.Equal(t, "http://example.com/image1.jpg", first.Image)
	assert.Equal(t, origin.ID, first.OriginID)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), first.PublishedAt)

	second := items[1]
	assert.Equal(t, "second-article", second.Slug)
	assert.Contains(t, second.Content, "Hello **world**")
	assert.NotContains(t, second.Content, "<strong>")
	assert.Equal(t, "Short teaser", second.Summary)
	assert.Equal(t, "Fallback", second.Author)
	assert.Equal(t, "http://example.com/cover.png", second.Image)
}

func TestParser_ParseAtom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Test Atom Feed</title>
	<link href="http://example.org/"/>
	<updated>2025-01-01T12:00:00Z</updated>
	<author><name>Atom Author</name></author>
	<entry>
		<title>Atom Entry 1</title>
		<link href="http://example.org/entry1"/>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
		<published>2025-01-01T10:00:00Z</published>
		<updated>2025-01-01T12:00:00Z</updated>
		<summary>Entry summary</summary>
		<content type="html">&lt;p&gt;Entry content&lt;/p&gt;</content>
	</entry>
</feed>`

	origin := &posts.Origin{ID: "atomorigin", URL: "http://example.org/atom"}
	items, err := NewParser().Parse(strings.NewReader(atom), origin, "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	entry := items[0]
	assert.Equal(t, "atomorigin:urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a", entry.ID)
	assert.Equal(t, "Entry content", entry.Content)
	assert.Equal(t, "Entry summary", entry.Summary)
	assert.Equal(t, "Atom Author", entry.Author)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), entry.PublishedAt)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), entry.UpdatedAt)
}

func TestParser_ParseInvalid(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("not a feed"), &posts.Origin{ID: "x"}, "")
	assert.Error(t, err)
}

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name     string
		originID string
		item     *gofeed.Item
		want     string
	}{
		{"guid", "feed1", &gofeed.Item{GUID: "g1", Link: "http://x/1"}, "feed1:g1"},
		{"link fallback", "feed1", &gofeed.Item{Link: "http://x/1"}, "feed1:http://x/1"},
		{"long origin truncated", "0123456789abcdefff", &gofeed.Item{GUID: "g"}, "0123456789ab:g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateID(tt.originID, tt.item))
		})
	}

	t.Run("random when nothing identifies the item", func(t *testing.T) {
		a := generateID("feed1", &gofeed.Item{})
		b := generateID("feed1", &gofeed.Item{})
		assert.True(t, strings.HasPrefix(a, "feed1:"))
		assert.NotEqual(t, a, b)
	})
}

func TestSlugFromLink(t *testing.T) {
	assert.Equal(t, "hello", slugFromLink("https://dev.to/jane/hello", "id"))
	assert.Equal(t, "hello", slugFromLink("https://dev.to/jane/hello/", "id"))
	assert.Equal(t, "id", slugFromLink("https://dev.to/", "id"))
	assert.Equal(t, "id", slugFromLink("", "id"))
}
