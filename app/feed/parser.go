package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses raw RSS/Atom/JSON feed data into normalized items.
func (p *Parser) Run(data []byte) ([]Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	return Item{
		Title:   strings.TrimSpace(item.Title),
		Summary: plainText(cmp.Or(item.Description, item.Content)),
		Link:    strings.TrimSpace(item.Link),
		Image:   p.extractImage(item),
		Rating:  p.extractRating(item),
	}
}

// extractImage prefers media:content, then the first image enclosure, then
// whatever image gofeed resolved for the item.
func (p *Parser) extractImage(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil && strings.HasPrefix(enclosure.Type, "image") {
			return enclosure.URL
		}
	}

	if item.Image != nil {
		return item.Image.URL
	}

	return ""
}

func (p *Parser) extractRating(item *gofeed.Item) string {
	if rating := strings.TrimSpace(item.Custom["rating"]); rating != "" {
		return rating
	}

	for _, elements := range item.Extensions {
		if rating := firstValue(elements, "rating"); rating != "" {
			return rating
		}
	}

	return ""
}

func firstValue(elements map[string][]ext.Extension, name string) string {
	for _, e := range elements[name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

// plainText strips markup from feed descriptions and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
