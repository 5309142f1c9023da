package magnet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lysyi3m/rss-seek/app/metrics"
)

// Link is a magnet URI with its inferred size, e.g. "1.4GB".
type Link struct {
	Size   string `json:"size"`
	Magnet string `json:"magnet"`
}

type Extractor struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	strategies []SizeStrategy
}

func NewExtractor(httpClient *http.Client, userAgent string, timeout time.Duration) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		strategies: DefaultStrategies,
	}
}

// Run fetches pageURL and returns every magnet link whose size could be
// inferred. Fetch failures yield an empty result, never an error.
func (e *Extractor) Run(ctx context.Context, pageURL string) []Link {
	data, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		slog.Warn("Failed to fetch detail page", "url", pageURL, "error", err)
		return []Link{}
	}

	links, err := e.Extract(data)
	if err != nil {
		slog.Warn("Failed to parse detail page", "url", pageURL, "error", err)
		return []Link{}
	}

	slog.Debug("Magnet links extracted", "url", pageURL, "links", len(links))

	return links
}

// Extract parses an HTML document and applies the size cascade to each
// magnet anchor. A failure on one anchor does not stop the others.
func (e *Extractor) Extract(data []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	links := []Link{}
	doc.Find(`a[href^="magnet:?"]`).Each(func(i int, a *goquery.Selection) {
		link, ok := e.extractAnchor(i, a)
		if !ok {
			return
		}
		links = append(links, link)
	})

	return links, nil
}

func (e *Extractor) extractAnchor(i int, a *goquery.Selection) (link Link, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Magnet anchor processing panicked", "index", i, "panic", r)
			link, ok = Link{}, false
		}
	}()

	href, _ := a.Attr("href")

	texts := map[TextSource]string{
		SourceDisplayName: displayName(href),
		SourceParentText:  visibleText(a.Parent()),
		SourceAnchorText:  strings.TrimSpace(a.Text()),
	}

	size, strategy := InferSize(e.strategies, texts)
	if size == "" {
		metrics.MagnetLinksDropped.Inc()
		slog.Debug("Dropping magnet link without size", "index", i)
		return Link{}, false
	}

	metrics.MagnetLinksExtracted.Inc()
	slog.Debug("Magnet size inferred", "index", i, "size", size, "strategy", strategy)

	return Link{Size: size, Magnet: href}, true
}

func (e *Extractor) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// displayName returns the decoded dn parameter of a magnet URI.
func displayName(href string) string {
	query := strings.TrimPrefix(href, "magnet:?")
	values, err := url.ParseQuery(query)
	if err != nil {
		// ParseQuery keeps every pair it could decode.
		slog.Debug("Malformed magnet query", "error", err)
	}
	return values.Get("dn")
}

// visibleText joins the element's text nodes with single spaces so that
// numbers in adjacent cells do not run together.
func visibleText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}
